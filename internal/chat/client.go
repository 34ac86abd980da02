// Package chat is the text generation client: reference analysis, topic
// ideation, script synthesis and storyboard scene breakdown.
//
// Every operation is one round trip to the model with no internal retry.
// The API key is resolved before anything is sent; a missing key fails with
// ErrMissingCredential and the transport is never called.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/tubescript-ai/internal/assets"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/metrics"
)

// TextRequest is one prompt sent to a TextModel. A non-nil Schema requests
// JSON output of that shape.
type TextRequest struct {
	Model  string
	System string
	Prompt string
	Schema *genai.Schema
}

// TextModel is the text generation transport.
type TextModel interface {
	GenerateText(ctx context.Context, apiKey string, req TextRequest) (string, error)
}

// Options configures a Client.
type Options struct {
	// Model overrides DefaultModelName.
	Model string
	// MetricsNamespace overrides the default EMF namespace.
	MetricsNamespace string
}

// Client holds only its collaborators; it keeps no per-session state.
type Client struct {
	creds     credential.Lookup
	model     TextModel
	modelName string
	namespace string
}

// New returns a Client resolving keys from creds and sending through model.
func New(creds credential.Lookup, model TextModel, opts Options) *Client {
	return &Client{
		creds:     creds,
		model:     model,
		modelName: ModelName(opts.Model),
		namespace: opts.MetricsNamespace,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.modelName }

// generate runs one request and returns the raw response text.
func (c *Client) generate(ctx context.Context, op, prompt string, schema *genai.Schema) (string, error) {
	start := time.Now()
	apiKey := c.creds.Get(ctx, credential.GeminiAPIKey)
	if apiKey == "" {
		log.Warn().Str("op", op).Msg("No Gemini API key configured")
		c.record(op, KindMissingCredential.String(), start)
		return "", newError(KindMissingCredential, op, nil)
	}

	log.Debug().
		Str("op", op).
		Str("model", c.modelName).
		Int("prompt_length", len(prompt)).
		Bool("json", schema != nil).
		Msg("Starting Gemini API call")

	text, err := c.model.GenerateText(ctx, apiKey, TextRequest{
		Model:  c.modelName,
		System: assets.SystemInstructionPrompt,
		Prompt: prompt,
		Schema: schema,
	})
	if err != nil {
		typed := Classify(op, err)
		c.record(op, typed.Kind.String(), start)
		return "", typed
	}
	if strings.TrimSpace(text) == "" {
		c.record(op, KindResultMissing.String(), start)
		return "", newError(KindResultMissing, op, nil)
	}

	log.Debug().
		Str("op", op).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Gemini API response received")
	return text, nil
}

// fail records a post-response failure and returns the typed error.
func (c *Client) fail(op string, kind Kind, err error, start time.Time) error {
	c.record(op, kind.String(), start)
	return newError(kind, op, err)
}

func (c *Client) succeed(op string, start time.Time) {
	c.record(op, "success", start)
}

func (c *Client) record(op, result string, start time.Time) {
	metrics.New(c.namespace).
		Dimension("Operation", op).
		Dimension("Result", result).
		Duration("GenerationLatencyMs", time.Since(start)).
		Count("GenerationCount").
		Property("model", c.modelName).
		Flush()
}
