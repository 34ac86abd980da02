package imagegen

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// Imagen model IDs per engine tier.
const (
	ModelImagen4Fast = "imagen-4.0-fast-generate-001"
	ModelImagen3     = "imagen-3.0-generate-002"
	ModelImagen4     = "imagen-4.0-generate-001"
)

var imagenModels = map[storyboard.Engine]string{
	storyboard.EngineNano:   ModelImagen4Fast,
	storyboard.EngineBanana: ModelImagen3,
	storyboard.EnginePro:    ModelImagen4,
}

// ImagenBackend generates images through the Gemini API's Imagen models.
type ImagenBackend struct {
	cache *chat.ClientCache
}

// NewImagenBackend shares cache with the text client so each key gets one
// genai client.
func NewImagenBackend(cache *chat.ClientCache) *ImagenBackend {
	if cache == nil {
		cache = chat.NewClientCache()
	}
	return &ImagenBackend{cache: cache}
}

func (b *ImagenBackend) Name() string           { return "imagen" }
func (b *ImagenBackend) CredentialName() string { return credential.GeminiAPIKey }

func (b *ImagenBackend) Model(engine storyboard.Engine) string {
	if m, ok := imagenModels[engine]; ok {
		return m
	}
	return ModelImagen4Fast
}

func (b *ImagenBackend) Generate(ctx context.Context, apiKey, prompt, model string, ratio storyboard.AspectRatio) (Image, error) {
	client, err := b.cache.Get(ctx, apiKey)
	if err != nil {
		return Image{}, err
	}

	resp, err := client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(ratio),
	})
	if err != nil {
		return Image{}, err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return Image{}, ErrNoImage
	}
	gen := resp.GeneratedImages[0]
	if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
		if gen.RAIFilteredReason != "" {
			log.Warn().Str("reason", gen.RAIFilteredReason).Msg("Imagen filtered the scene prompt")
			return Image{}, fmt.Errorf("%w: %s", ErrNoImage, gen.RAIFilteredReason)
		}
		return Image{}, ErrNoImage
	}
	return Image{Data: gen.Image.ImageBytes, MIMEType: gen.Image.MIMEType}, nil
}
