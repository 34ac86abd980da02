// Package imagegen produces one storyboard image per call.
//
// A Generator never fails without also returning something to show: on a
// missing key or a backend failure it returns a placeholder image URL
// together with the typed error, so a caller can both record the failure
// and keep rendering.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// ErrNoImage is returned when a backend responds without image data.
var ErrNoImage = errors.New("backend returned no image")

// Image is either inline bytes or a remote URL.
type Image struct {
	Data     []byte
	MIMEType string
	URL      string
}

// Ref renders the image as something a browser can load.
func (img Image) Ref() string {
	if img.URL != "" {
		return img.URL
	}
	if len(img.Data) == 0 {
		return ""
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Backend is one image generation service.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// CredentialName is the credential the backend authenticates with.
	CredentialName() string
	// Model maps an engine tier to the backend's model ID.
	Model(engine storyboard.Engine) string
	Generate(ctx context.Context, apiKey, prompt, model string, ratio storyboard.AspectRatio) (Image, error)
}
