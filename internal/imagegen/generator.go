package imagegen

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// Placeholder reasons.
const (
	ReasonMissingKey = "API Key Required"
	ReasonFailed     = "Generation Failed"
)

// Generator resolves credentials and models for a Backend.
type Generator struct {
	creds   credential.Lookup
	backend Backend
}

// NewGenerator returns a Generator over backend.
func NewGenerator(creds credential.Lookup, backend Backend) *Generator {
	return &Generator{creds: creds, backend: backend}
}

// Backend returns the wrapped backend.
func (g *Generator) Backend() Backend { return g.backend }

// GenerateSceneImage produces one image reference for prompt. On failure it
// returns a placeholder URL along with a typed *chat.Error.
func (g *Generator) GenerateSceneImage(ctx context.Context, prompt string, engine storyboard.Engine, ratio storyboard.AspectRatio) (string, error) {
	const op = "GenerateSceneImage"

	apiKey := g.creds.Get(ctx, g.backend.CredentialName())
	if apiKey == "" {
		log.Warn().Str("backend", g.backend.Name()).Msg("No image API key configured, using placeholder")
		return Placeholder(ratio, ReasonMissingKey), chat.NewError(chat.KindMissingCredential, op, nil)
	}

	model := g.backend.Model(engine)
	start := time.Now()
	img, err := g.backend.Generate(ctx, apiKey, prompt, model, ratio)
	if err != nil {
		typed := chat.Classify(op, err)
		log.Warn().
			Err(err).
			Str("backend", g.backend.Name()).
			Str("model", model).
			Str("kind", typed.Kind.String()).
			Msg("Scene image generation failed, using placeholder")
		return Placeholder(ratio, ReasonFailed), typed
	}
	ref := img.Ref()
	if ref == "" {
		return Placeholder(ratio, ReasonFailed), chat.NewError(chat.KindResultMissing, op, ErrNoImage)
	}

	log.Debug().
		Str("backend", g.backend.Name()).
		Str("model", model).
		Dur("duration", time.Since(start)).
		Msg("Scene image generated")
	return ref, nil
}

// Placeholder returns the deterministic stand-in image URL for ratio.
func Placeholder(ratio storyboard.AspectRatio, reason string) string {
	w, h := ratio.Dimensions()
	return fmt.Sprintf("https://placehold.co/%dx%d/1a1a1a/white?text=%s", w, h, url.PathEscape(reason))
}
