package credential

import (
	"context"
	"errors"
	"testing"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("disk on fire") }
func (failingStore) Put(context.Context, string, string) error  { return errors.New("disk on fire") }
func (failingStore) Delete(context.Context, string) error       { return errors.New("disk on fire") }

func TestProvider_StoreWinsOverDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := NewProvider(store, map[string]string{GeminiAPIKey: "default-key"})

	if got := p.Get(ctx, GeminiAPIKey); got != "default-key" {
		t.Errorf("expected default before save, got %q", got)
	}
	if err := p.Save(ctx, GeminiAPIKey, "  saved-key \n"); err != nil {
		t.Fatal(err)
	}
	if got := p.Get(ctx, GeminiAPIKey); got != "saved-key" {
		t.Errorf("expected trimmed saved key, got %q", got)
	}
	if got := p.Source(ctx, GeminiAPIKey); got != "store" {
		t.Errorf("expected store source, got %q", got)
	}
	if err := p.Clear(ctx, GeminiAPIKey); err != nil {
		t.Fatal(err)
	}
	if got := p.Get(ctx, GeminiAPIKey); got != "default-key" {
		t.Errorf("expected default after clear, got %q", got)
	}
}

func TestProvider_NeitherTier(t *testing.T) {
	p := NewProvider(NewMemoryStore(), nil)
	if got := p.Get(context.Background(), GeminiAPIKey); got != "" {
		t.Errorf("expected empty credential, got %q", got)
	}
	if got := p.Source(context.Background(), GeminiAPIKey); got != "" {
		t.Errorf("expected no source, got %q", got)
	}
}

func TestProvider_StoreErrorFallsBack(t *testing.T) {
	p := NewProvider(failingStore{}, map[string]string{GeminiAPIKey: "fallback"})
	if got := p.Get(context.Background(), GeminiAPIKey); got != "fallback" {
		t.Errorf("expected fallback on store error, got %q", got)
	}
}

func TestProvider_SaveRejectsBlank(t *testing.T) {
	p := NewProvider(NewMemoryStore(), nil)
	if err := p.Save(context.Background(), GeminiAPIKey, "   "); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestProvider_ClearIdempotent(t *testing.T) {
	p := NewProvider(NewMemoryStore(), nil)
	for i := 0; i < 2; i++ {
		if err := p.Clear(context.Background(), HuggingFaceAPIKey); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
	}
}

func TestDefaults(t *testing.T) {
	orig := buildGeminiKey
	defer func() { buildGeminiKey = orig }()

	buildGeminiKey = ""
	if d := Defaults("", ""); len(d) != 0 {
		t.Errorf("expected empty defaults, got %v", d)
	}

	buildGeminiKey = "baked-in"
	d := Defaults("", "hf")
	if d[GeminiAPIKey] != "baked-in" || d[HuggingFaceAPIKey] != "hf" {
		t.Errorf("unexpected defaults %v", d)
	}
	if d := Defaults("env-key", ""); d[GeminiAPIKey] != "env-key" {
		t.Errorf("environment should beat build key, got %v", d)
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"AIzaSyABCDEF1234", "************1234"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := map[string]string{
		"gemini":          GeminiAPIKey,
		" Gemini ":        GeminiAPIKey,
		GeminiAPIKey:      GeminiAPIKey,
		"huggingface":     HuggingFaceAPIKey,
		"hf":              HuggingFaceAPIKey,
		HuggingFaceAPIKey: HuggingFaceAPIKey,
	}
	for in, want := range tests {
		got, err := ParseName(in)
		if err != nil || got != want {
			t.Errorf("ParseName(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseName("openai"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}
