package imagegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

type keyMap map[string]string

func (k keyMap) Get(_ context.Context, name string) string { return k[name] }

type fakeBackend struct {
	img    Image
	err    error
	calls  int
	models []string
	ratios []storyboard.AspectRatio
}

func (f *fakeBackend) Name() string           { return "fake" }
func (f *fakeBackend) CredentialName() string { return credential.GeminiAPIKey }
func (f *fakeBackend) Model(e storyboard.Engine) string {
	return "model-" + string(e)
}

func (f *fakeBackend) Generate(_ context.Context, _, _, model string, ratio storyboard.AspectRatio) (Image, error) {
	f.calls++
	f.models = append(f.models, model)
	f.ratios = append(f.ratios, ratio)
	return f.img, f.err
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		ratio  storyboard.AspectRatio
		reason string
		want   string
	}{
		{storyboard.Landscape, ReasonMissingKey, "https://placehold.co/1024x576/1a1a1a/white?text=API%20Key%20Required"},
		{storyboard.Portrait, ReasonFailed, "https://placehold.co/576x1024/1a1a1a/white?text=Generation%20Failed"},
	}
	for _, tt := range tests {
		if got := Placeholder(tt.ratio, tt.reason); got != tt.want {
			t.Errorf("Placeholder(%s, %q) = %q, want %q", tt.ratio, tt.reason, got, tt.want)
		}
	}
}

func TestGenerateSceneImage_MissingKey(t *testing.T) {
	backend := &fakeBackend{}
	g := NewGenerator(keyMap{}, backend)

	url, err := g.GenerateSceneImage(context.Background(), "prompt", storyboard.EngineNano, storyboard.Portrait)
	if !errors.Is(err, chat.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if url != Placeholder(storyboard.Portrait, ReasonMissingKey) {
		t.Errorf("url = %q", url)
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times without a key", backend.calls)
	}
}

func TestGenerateSceneImage_Success(t *testing.T) {
	backend := &fakeBackend{img: Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}}
	g := NewGenerator(keyMap{credential.GeminiAPIKey: "k"}, backend)

	url, err := g.GenerateSceneImage(context.Background(), "a castle", storyboard.EnginePro, storyboard.Landscape)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("expected data URL, got %q", url)
	}
	if backend.models[0] != "model-pro" || backend.ratios[0] != storyboard.Landscape {
		t.Errorf("unexpected model/ratio %v %v", backend.models, backend.ratios)
	}
}

func TestGenerateSceneImage_Failure(t *testing.T) {
	backend := &fakeBackend{err: &genai.APIError{Code: 429, Message: "quota"}}
	g := NewGenerator(keyMap{credential.GeminiAPIKey: "k"}, backend)

	url, err := g.GenerateSceneImage(context.Background(), "p", storyboard.EngineNano, storyboard.Landscape)
	if !errors.Is(err, chat.ErrQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}
	if url != Placeholder(storyboard.Landscape, ReasonFailed) {
		t.Errorf("url = %q", url)
	}
}

func TestGenerateSceneImage_EmptyImage(t *testing.T) {
	g := NewGenerator(keyMap{credential.GeminiAPIKey: "k"}, &fakeBackend{})
	url, err := g.GenerateSceneImage(context.Background(), "p", storyboard.EngineNano, storyboard.Landscape)
	if !errors.Is(err, chat.ErrResultMissing) {
		t.Errorf("expected result missing, got %v", err)
	}
	if !strings.HasPrefix(url, "https://placehold.co/") {
		t.Errorf("url = %q", url)
	}
}

func TestImagenModels(t *testing.T) {
	b := NewImagenBackend(nil)
	tests := map[storyboard.Engine]string{
		storyboard.EngineNano:   ModelImagen4Fast,
		storyboard.EngineBanana: ModelImagen3,
		storyboard.EnginePro:    ModelImagen4,
	}
	for engine, want := range tests {
		if got := b.Model(engine); got != want {
			t.Errorf("Model(%s) = %s, want %s", engine, got, want)
		}
	}
}

func TestImageRef(t *testing.T) {
	if got := (Image{URL: "https://x/y.png", Data: []byte("ignored")}).Ref(); got != "https://x/y.png" {
		t.Errorf("remote ref = %q", got)
	}
	if got := (Image{Data: []byte("abc")}).Ref(); got != "data:image/png;base64,YWJj" {
		t.Errorf("inline ref = %q", got)
	}
	if got := (Image{}).Ref(); got != "" {
		t.Errorf("empty ref = %q", got)
	}
}
