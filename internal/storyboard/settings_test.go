package storyboard

import (
	"errors"
	"testing"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestStylesCatalog(t *testing.T) {
	styles := Styles()
	if len(styles) != 8 {
		t.Fatalf("expected 8 visual styles, got %d", len(styles))
	}
	for _, s := range styles {
		if !s.ID.Valid() {
			t.Errorf("style %s reports invalid", s.ID)
		}
		if s.ID.Descriptor() == "" {
			t.Errorf("style %s has no descriptor", s.ID)
		}
	}
	if VisualStyle("oil-painting").Valid() {
		t.Error("unknown style reported valid")
	}
}

func TestAspectRatioDimensions(t *testing.T) {
	if w, h := Landscape.Dimensions(); w != 1024 || h != 576 {
		t.Errorf("16:9 got %dx%d", w, h)
	}
	if w, h := Portrait.Dimensions(); w != 576 || h != 1024 {
		t.Errorf("9:16 got %dx%d", w, h)
	}
}

func TestSettingsPatch_Apply(t *testing.T) {
	style := StyleWebtoon
	count := 30
	got, err := SettingsPatch{VisualStyle: &style, SceneCount: &count}.Apply(DefaultSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.VisualStyle != StyleWebtoon || got.SceneCount != 30 {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Engine != EngineNano || got.AspectRatio != Landscape {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestSettingsPatch_Empty(t *testing.T) {
	if !(SettingsPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	count := 5
	if (SettingsPatch{SceneCount: &count}).Empty() {
		t.Error("patch with scene count should not be empty")
	}
}

func TestSettingsPatch_RejectsWhole(t *testing.T) {
	style := StylePixar
	tooMany := MaxScenes + 1
	base := DefaultSettings()

	got, err := SettingsPatch{VisualStyle: &style, SceneCount: &tooMany}.Apply(base)
	var optErr *ErrInvalidOption
	if !errors.As(err, &optErr) || optErr.Field != "sceneCount" {
		t.Fatalf("expected sceneCount option error, got %v", err)
	}
	if got != base {
		t.Errorf("expected settings unchanged on rejection, got %+v", got)
	}
}

func TestSettingsPatch_Bounds(t *testing.T) {
	for _, n := range []int{MinScenes, MaxScenes} {
		n := n
		if _, err := (SettingsPatch{SceneCount: &n}).Apply(DefaultSettings()); err != nil {
			t.Errorf("scene count %d should be accepted: %v", n, err)
		}
	}
	for _, n := range []int{MinScenes - 1, 0, -3} {
		n := n
		if _, err := (SettingsPatch{SceneCount: &n}).Apply(DefaultSettings()); err == nil {
			t.Errorf("scene count %d should be rejected", n)
		}
	}
	bad := AspectRatio("4:3")
	if _, err := (SettingsPatch{AspectRatio: &bad}).Apply(DefaultSettings()); err == nil {
		t.Error("4:3 should be rejected")
	}
}

func TestRenumber(t *testing.T) {
	scenes := []Scene{
		{SceneNumber: 4, ImageURL: "x", IsGenerating: true},
		{SceneNumber: 9, ImageFailed: true},
	}
	Renumber(scenes)
	for i, s := range scenes {
		if s.SceneNumber != i+1 {
			t.Errorf("scene %d numbered %d", i, s.SceneNumber)
		}
		if s.ImageURL != "" || s.IsGenerating || s.ImageFailed {
			t.Errorf("scene %d image state not cleared: %+v", i, s)
		}
	}
}
