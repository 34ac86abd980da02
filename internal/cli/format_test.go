package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{7 * time.Second, "0:07"},
		{2*time.Minute + 5*time.Second, "2:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintTopics(t *testing.T) {
	var buf bytes.Buffer
	PrintTopics(&buf, "hook then list", []chat.SuggestedTopic{{Title: "First", Rationale: "why"}, {Title: "Second", Rationale: "because"}})
	out := buf.String()
	for _, want := range []string{"hook then list", "  1. First", "  2. Second", "because"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestStructureMenu(t *testing.T) {
	menu := StructureMenu()
	if len(menu) != 6 || menu[len(menu)-1].ID != structure.Original {
		t.Errorf("menu = %+v", menu)
	}
}

func TestSceneLine(t *testing.T) {
	tests := []struct {
		name  string
		scene storyboard.Scene
		want  string
	}{
		{"pending", storyboard.Scene{SceneNumber: 1}, "pending"},
		{"generating", storyboard.Scene{SceneNumber: 2, IsGenerating: true}, "generating..."},
		{"url", storyboard.Scene{SceneNumber: 3, ImageURL: "https://x/3.png"}, "https://x/3.png"},
		{"inline", storyboard.Scene{SceneNumber: 4, ImageURL: "data:image/png;base64,AAAA"}, "inline image/png image"},
		{"placeholder", storyboard.Scene{SceneNumber: 5, ImageURL: "https://placehold.co/x", ImageFailed: true}, "failed (placeholder)"},
		{"failed", storyboard.Scene{SceneNumber: 6, ImageFailed: true}, "failed"},
	}
	for _, tt := range tests {
		if got := SceneLine(tt.scene); !strings.Contains(got, tt.want) {
			t.Errorf("%s: %q does not contain %q", tt.name, got, tt.want)
		}
	}
}

func TestCopyToClipboard(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	var got string
	writeClipboard = func(s string) error { got = s; return nil }

	if err := CopyToClipboard("## Script"); err != nil || got != "## Script" {
		t.Errorf("copied %q, %v", got, err)
	}
}
