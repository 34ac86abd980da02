package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/jsonutil"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// DefaultHuggingFaceURL is the Inference API base.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models"

// DefaultMaxImageBytes caps a single response body.
const DefaultMaxImageBytes = 20 << 20

// HuggingFaceBackend calls a text-to-image model on the Hugging Face
// Inference API. Every engine maps to the same configured model.
type HuggingFaceBackend struct {
	BaseURL  string
	// MaxBytes caps the response body. Larger responses fail.
	MaxBytes int64

	model      string
	httpClient *http.Client
}

// NewHuggingFaceBackend returns a backend for model.
func NewHuggingFaceBackend(model string) *HuggingFaceBackend {
	return &HuggingFaceBackend{
		BaseURL:  DefaultHuggingFaceURL,
		MaxBytes: DefaultMaxImageBytes,
		model:    model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type hfError struct {
	Error string `json:"error"`
}

func (b *HuggingFaceBackend) Name() string                     { return "huggingface" }
func (b *HuggingFaceBackend) CredentialName() string           { return credential.HuggingFaceAPIKey }
func (b *HuggingFaceBackend) Model(_ storyboard.Engine) string { return b.model }

func (b *HuggingFaceBackend) Generate(ctx context.Context, apiKey, prompt, model string, ratio storyboard.AspectRatio) (Image, error) {
	w, h := ratio.Dimensions()
	body, err := json.Marshal(hfRequest{Inputs: prompt, Parameters: hfParameters{Width: w, Height: h}})
	if err != nil {
		return Image{}, err
	}

	url := strings.TrimRight(b.BaseURL, "/") + "/" + model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	limit := b.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Image{}, fmt.Errorf("huggingface response: %w", err)
	}
	if int64(len(data)) > limit {
		return Image{}, fmt.Errorf("huggingface response exceeds %d bytes", limit)
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(data)
		if parsed, perr := jsonutil.ParseJSON[hfError](detail); perr == nil && parsed.Error != "" {
			detail = parsed.Error
		}
		return Image{}, chat.ClassifyStatus("GenerateSceneImage", resp.StatusCode, detail,
			fmt.Errorf("huggingface: HTTP %d: %s", resp.StatusCode, jsonutil.Preview(detail, 200)))
	}

	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("%w: unexpected content type %q", ErrNoImage, mime)
	}
	if len(data) == 0 {
		return Image{}, ErrNoImage
	}
	return Image{Data: data, MIMEType: mime}, nil
}
