// Package credential resolves API keys for the generation backends.
//
// Resolution has two explicit tiers: a persistent Store that holds keys the
// user saved, and a static Defaults map populated from the environment or
// the build. The store always wins.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Credential names.
const (
	GeminiAPIKey      = "gemini_api_key"
	HuggingFaceAPIKey = "huggingface_api_key"
)

// buildGeminiKey may be injected at link time:
//
//	go build -ldflags "-X github.com/fpang/tubescript-ai/internal/credential.buildGeminiKey=..."
var buildGeminiKey string

var (
	// ErrEmptyKey is returned by Save for blank input.
	ErrEmptyKey = errors.New("credential value is empty")
	// ErrUnknownName is returned by ParseName.
	ErrUnknownName = errors.New("unknown credential")
)

// ParseName maps a user-facing alias ("gemini", "huggingface") or a full
// credential name to the credential name.
func ParseName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gemini", GeminiAPIKey:
		return GeminiAPIKey, nil
	case "huggingface", "hf", HuggingFaceAPIKey:
		return HuggingFaceAPIKey, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownName, s)
}

// Store persists saved credentials. Get returns "" with a nil error when the
// name has never been saved. Delete of a missing name succeeds.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// Lookup is the read-only view the generation clients depend on.
type Lookup interface {
	Get(ctx context.Context, name string) string
}

// Provider combines the persistent and default tiers.
type Provider struct {
	Store    Store
	Defaults map[string]string
}

// NewProvider returns a Provider over store with the given static defaults.
func NewProvider(store Store, defaults map[string]string) *Provider {
	return &Provider{Store: store, Defaults: defaults}
}

// Defaults builds the static tier. Empty values are omitted. The Gemini
// default falls back to a key injected at build time.
func Defaults(geminiKey, huggingFaceKey string) map[string]string {
	d := make(map[string]string)
	if geminiKey == "" {
		geminiKey = buildGeminiKey
	}
	if geminiKey != "" {
		d[GeminiAPIKey] = geminiKey
	}
	if huggingFaceKey != "" {
		d[HuggingFaceAPIKey] = huggingFaceKey
	}
	return d
}

// Get returns the saved value, else the default, else "". Store errors are
// logged and treated as not saved.
func (p *Provider) Get(ctx context.Context, name string) string {
	if p.Store != nil {
		v, err := p.Store.Get(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("credential", name).Msg("Failed to read saved credential, falling back to default")
		} else if v != "" {
			log.Debug().Str("credential", name).Str("source", "store").Msg("Credential resolved")
			return v
		}
	}
	if v := p.Defaults[name]; v != "" {
		log.Debug().Str("credential", name).Str("source", "default").Msg("Credential resolved")
		return v
	}
	return ""
}

// Source reports which tier would serve name: "store", "default" or "".
func (p *Provider) Source(ctx context.Context, name string) string {
	if p.Store != nil {
		if v, err := p.Store.Get(ctx, name); err == nil && v != "" {
			return "store"
		}
	}
	if p.Defaults[name] != "" {
		return "default"
	}
	return ""
}

// Save trims and persists a key.
func (p *Provider) Save(ctx context.Context, name, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if p.Store == nil {
		return errors.New("no credential store configured")
	}
	if err := p.Store.Put(ctx, name, key); err != nil {
		return err
	}
	log.Info().Str("credential", name).Msg("Credential saved")
	return nil
}

// Clear removes a saved key. The default tier is unaffected.
func (p *Provider) Clear(ctx context.Context, name string) error {
	if p.Store == nil {
		return nil
	}
	if err := p.Store.Delete(ctx, name); err != nil {
		return err
	}
	log.Info().Str("credential", name).Msg("Credential cleared")
	return nil
}

// Mask renders a key for display, keeping only the last four characters.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
