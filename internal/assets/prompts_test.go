package assets

import (
	"strings"
	"testing"
)

func TestRenderAnalyzePrompt_Keywords(t *testing.T) {
	with := RenderAnalyzePrompt("my script", "budget, travel")
	if !strings.Contains(with, "my script") {
		t.Error("reference missing from prompt")
	}
	if !strings.Contains(with, "budget, travel") {
		t.Error("keywords missing from prompt")
	}

	without := RenderAnalyzePrompt("my script", "")
	if strings.Contains(without, "MUST include") {
		t.Error("keyword constraint rendered without keywords")
	}
}

func TestRenderAnalyzeMultiplePrompt_NumbersScripts(t *testing.T) {
	got := RenderAnalyzeMultiplePrompt([]string{"alpha", "beta", "gamma"}, "")
	for _, want := range []string{"[Script 1]", "[Script 2]", "[Script 3]", "alpha", "gamma"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "[Script 0]") {
		t.Error("scripts should be numbered from 1")
	}
}

func TestRenderRegenerateTopicsPrompt_SummaryVerbatim(t *testing.T) {
	summary := "Hook -> 3 tips -> twist <ending>"
	got := RenderRegenerateTopicsPrompt(summary, "ref", "cats")
	if !strings.Contains(got, summary) {
		t.Errorf("summary not passed through verbatim:\n%s", got)
	}
}

func TestRenderScriptPrompt(t *testing.T) {
	got := RenderScriptPrompt(ScriptData{Title: "X", Rationale: "because", Guide: "1. Hook", Reference: "ref"})
	for _, want := range []string{`"X"`, "because", "1. Hook", "ref"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderStoryboardPrompt(t *testing.T) {
	got := RenderStoryboardPrompt("the script", 30, "webtoon style")
	if !strings.Contains(got, "exactly 30") || !strings.Contains(got, "webtoon style") {
		t.Errorf("unexpected prompt:\n%s", got)
	}
}

func TestStructureGuide(t *testing.T) {
	for _, id := range []string{"in-medias-res", "problem-solution", "heros-journey", "save-the-cat", "kishotenketsu"} {
		guide, err := StructureGuide(id)
		if err != nil {
			t.Errorf("%s: %v", id, err)
			continue
		}
		if guide == "" {
			t.Errorf("%s: empty guide", id)
		}
	}
	if _, err := StructureGuide("original"); err == nil {
		t.Error("expected error for structure without a guide file")
	}
}
