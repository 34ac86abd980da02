// Package app composes the generation stack shared by the CLI, the local
// server and the Lambda entry point.
package app

import (
	"io"

	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/config"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/imagegen"
	"github.com/fpang/tubescript-ai/internal/metrics"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

// Services is the wired generation stack.
type Services struct {
	Config      *config.Config
	Credentials *credential.Provider
	Client      *chat.Client
	Images      *imagegen.Generator
	Filler      *workflow.Filler
}

// Options adjusts composition per entry point.
type Options struct {
	// CredentialStore holds saved keys. Nil means only the defaults tier.
	CredentialStore credential.Store
	// WrapBackend, when set, wraps the image backend (e.g. S3 archiving).
	WrapBackend func(imagegen.Backend) imagegen.Backend
}

// New builds the stack from cfg. One genai client cache is shared by text
// and image generation.
func New(cfg *config.Config, opts Options) *Services {
	if !cfg.MetricsEnabled {
		metrics.SetOutput(io.Discard)
	}

	cache := chat.NewClientCache()
	creds := credential.NewProvider(opts.CredentialStore, credential.Defaults(cfg.GeminiAPIKey, cfg.HuggingFaceAPIKey))
	text := chat.NewGeminiTextModel(cache)
	client := chat.New(creds, text, chat.Options{Model: cfg.GeminiModel, MetricsNamespace: cfg.MetricsNamespace})

	var backend imagegen.Backend
	switch cfg.ImageBackend {
	case config.ImageBackendHuggingFace:
		backend = imagegen.NewHuggingFaceBackend(cfg.HuggingFaceModel)
	default:
		backend = imagegen.NewImagenBackend(cache)
	}
	if opts.WrapBackend != nil {
		backend = opts.WrapBackend(backend)
	}
	images := imagegen.NewGenerator(creds, backend)

	filler := workflow.NewFiller(images)
	filler.Delay = cfg.SceneImageDelay
	filler.MetricsNamespace = cfg.MetricsNamespace

	log.Debug().
		Str("model", client.Model()).
		Str("image_backend", backend.Name()).
		Dur("scene_delay", filler.Delay).
		Msg("Generation stack initialized")

	return &Services{
		Config:      cfg,
		Credentials: creds,
		Client:      client,
		Images:      images,
		Filler:      filler,
	}
}

// NewMachine starts a workflow session on this stack.
func (s *Services) NewMachine(id string) *workflow.Machine {
	return workflow.NewMachine(id, s.Client, s.Filler)
}

// LocalCredentialStore returns the store for CREDENTIAL_STORE on a
// workstation. SSM is only available through the Lambda entry point.
func LocalCredentialStore(cfg *config.Config) credential.Store {
	switch cfg.CredentialStore {
	case config.CredentialStoreMemory:
		return credential.NewMemoryStore()
	case config.CredentialStoreSSM:
		log.Warn().Msg("CREDENTIAL_STORE=ssm is only supported on Lambda, using the file store")
	}
	return credential.NewFileStore(cfg.DataDir)
}
