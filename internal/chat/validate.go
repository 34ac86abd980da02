package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ValidateKey verifies apiKey with a minimal request against modelName
// (DefaultModelName when empty). It returns nil when the key works, or a
// typed *Error describing why it does not.
func ValidateKey(ctx context.Context, model TextModel, modelName, apiKey string) error {
	const op = "ValidateKey"
	if apiKey == "" {
		return newError(KindMissingCredential, op, nil)
	}

	modelName = ModelName(modelName)
	log.Debug().Str("model", modelName).Msg("Validating API key with Gemini API")
	start := time.Now()
	_, err := model.GenerateText(ctx, apiKey, TextRequest{Model: modelName, Prompt: "hi"})
	elapsed := time.Since(start)
	if err != nil {
		typed := Classify(op, err)
		log.Debug().Str("result", typed.Kind.String()).Dur("duration", elapsed).Msg("API key validation result")
		return typed
	}

	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}

// ValidateKey checks apiKey against the client's configured model.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	return ValidateKey(ctx, c.model, c.modelName, apiKey)
}
