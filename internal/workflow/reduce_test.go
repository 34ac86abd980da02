package workflow

import (
	"reflect"
	"testing"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

func TestReduce_LegalTransitions(t *testing.T) {
	webtoon := storyboard.StyleWebtoon
	tests := []struct {
		name  string
		from  Stage
		event Event
		to    Stage
		check func(t *testing.T, before, after State)
	}{
		{
			name: "analyzed", from: StageInput, to: StageTopicSelection,
			event: Analyzed{RawInput: "raw", Keywords: "kw", Result: chat.AnalysisResult{StructureSummary: "s", Topics: fiveTopics("T")}},
			check: func(t *testing.T, _, after State) {
				if after.StructureSummary != "s" || len(after.Topics) != 5 || after.RawInput != "raw" {
					t.Errorf("analysis not stored: %+v", after)
				}
			},
		},
		{
			name: "topic selected", from: StageTopicSelection, to: StageStructureSelection,
			event: TopicSelected{Topic: fiveTopics("Topic")[2]},
			check: func(t *testing.T, _, after State) {
				if after.SelectedTopic == nil || after.SelectedTopic.Title != "Topic 3" {
					t.Errorf("selected topic = %+v", after.SelectedTopic)
				}
			},
		},
		{
			name: "topics regenerated", from: StageTopicSelection, to: StageTopicSelection,
			event: TopicsRegenerated{Topics: fiveTopics("New")},
			check: func(t *testing.T, before, after State) {
				if after.Topics[0].Title != "New 1" {
					t.Error("topics not replaced")
				}
				if after.StructureSummary != before.StructureSummary {
					t.Error("structure summary changed on regeneration")
				}
			},
		},
		{
			name: "back to topics", from: StageStructureSelection, to: StageTopicSelection,
			event: Back{},
			check: func(t *testing.T, _, after State) {
				if after.SelectedStructure != "" {
					t.Error("selected structure kept")
				}
				if len(after.Topics) != 5 || after.StructureSummary == "" {
					t.Error("upstream topics or summary discarded")
				}
			},
		},
		{
			name: "back to input", from: StageTopicSelection, to: StageInput,
			event: Back{},
			check: func(t *testing.T, before, after State) {
				if after.Topics != nil || after.StructureSummary != "" {
					t.Error("topics and summary should be discarded")
				}
				if after.RawInput != before.RawInput {
					t.Error("raw input should be preserved")
				}
			},
		},
		{
			name: "script generated", from: StageStructureSelection, to: StageScriptView,
			event: ScriptGenerated{Structure: structure.Kishotenketsu, Script: "text"},
			check: func(t *testing.T, _, after State) {
				if after.GeneratedScript != "text" || after.SelectedStructure != structure.Kishotenketsu {
					t.Errorf("script not stored: %+v", after)
				}
			},
		},
		{
			name: "back from script", from: StageScriptView, to: StageStructureSelection,
			event: Back{},
			check: func(t *testing.T, _, after State) {
				if after.GeneratedScript != "" || after.SelectedStructure != "" {
					t.Error("script and structure should be discarded")
				}
				if after.SelectedTopic == nil {
					t.Error("selected topic should be kept")
				}
			},
		},
		{
			name: "storyboard opened", from: StageScriptView, to: StageStoryboardSettings,
			event: StoryboardOpened{},
			check: func(t *testing.T, _, after State) {
				if after.StoryboardSettings == nil || *after.StoryboardSettings != storyboard.DefaultSettings() {
					t.Errorf("settings = %+v", after.StoryboardSettings)
				}
			},
		},
		{
			name: "reset from script", from: StageScriptView, to: StageInput,
			event: Reset{},
			check: func(t *testing.T, _, after State) {
				if !reflect.DeepEqual(after, NewState()) {
					t.Errorf("reset left state behind: %+v", after)
				}
			},
		},
		{
			name: "settings changed", from: StageStoryboardSettings, to: StageStoryboardSettings,
			event: SettingsChanged{Patch: storyboard.SettingsPatch{VisualStyle: &webtoon}},
			check: func(t *testing.T, _, after State) {
				if after.StoryboardSettings.VisualStyle != storyboard.StyleWebtoon {
					t.Error("style not merged")
				}
			},
		},
		{
			name: "back from settings", from: StageStoryboardSettings, to: StageScriptView,
			event: Back{},
			check: func(t *testing.T, _, after State) {
				if after.StoryboardSettings != nil {
					t.Error("settings should be cleared")
				}
				if after.GeneratedScript == "" {
					t.Error("script should be kept")
				}
			},
		},
		{
			name: "scenes ready", from: StageStoryboardSettings, to: StageStoryboardView,
			event: ScenesReady{Batch: 4, Scenes: makeScenes(5)},
			check: func(t *testing.T, _, after State) {
				if len(after.StoryboardScenes) != 5 || after.Batch != 4 {
					t.Errorf("scenes not stored: %+v", after)
				}
				for _, sc := range after.StoryboardScenes {
					if sc.IsGenerating || sc.ImageURL != "" {
						t.Errorf("scene should start empty: %+v", sc)
					}
				}
			},
		},
		{
			name: "back from storyboard", from: StageStoryboardView, to: StageScriptView,
			event: Back{},
			check: func(t *testing.T, _, after State) {
				if after.StoryboardScenes != nil || after.StoryboardSettings != nil || after.Batch != 0 {
					t.Error("storyboard state should be discarded")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := stateAt(tt.from)
			snapshot := before.Clone()
			after, ok := Reduce(before, tt.event)
			if !ok {
				t.Fatalf("event rejected in %s", tt.from)
			}
			if after.Stage != tt.to {
				t.Errorf("stage = %s, want %s", after.Stage, tt.to)
			}
			if !reflect.DeepEqual(before, snapshot) {
				t.Error("Reduce mutated its input")
			}
			tt.check(t, before, after)
		})
	}
}

func TestReduce_ResetFromEveryStage(t *testing.T) {
	for _, stage := range Stages() {
		after, ok := Reduce(stateAt(stage), Reset{})
		if !ok || after.Stage != StageInput {
			t.Errorf("reset from %s: ok=%v stage=%s", stage, ok, after.Stage)
		}
	}
}

func TestReduce_IllegalEventsAreNoOps(t *testing.T) {
	events := []Event{
		Analyzed{Result: chat.AnalysisResult{Topics: fiveTopics("X")}},
		TopicsRegenerated{Topics: fiveTopics("X")},
		TopicSelected{Topic: fiveTopics("Topic")[0]},
		ScriptGenerated{Structure: structure.SaveTheCat, Script: "s"},
		StoryboardOpened{},
		SettingsChanged{},
		ScenesReady{Batch: 9, Scenes: makeScenes(2)},
		SceneStarted{Batch: 1, SceneNumber: 1},
		SceneResolved{Batch: 1, SceneNumber: 1, ImageURL: "x"},
		Back{},
	}
	legal := map[Stage]map[string]bool{
		StageInput:              {"analyzed": true},
		StageTopicSelection:     {"topics_regenerated": true, "topic_selected": true, "back": true},
		StageStructureSelection: {"script_generated": true, "back": true},
		StageScriptView:         {"storyboard_opened": true, "back": true},
		StageStoryboardSettings: {"settings_changed": true, "scenes_ready": true, "back": true},
		StageStoryboardView:     {"scene_started": true, "scene_resolved": true, "back": true},
	}
	for _, stage := range Stages() {
		for _, e := range events {
			if legal[stage][e.eventName()] {
				continue
			}
			before := stateAt(stage)
			after, ok := Reduce(before, e)
			if ok {
				t.Errorf("%s accepted in %s", e.eventName(), stage)
			}
			if !reflect.DeepEqual(after, before) {
				t.Errorf("%s in %s changed state", e.eventName(), stage)
			}
		}
	}
}

func TestReduce_LoadingGuards(t *testing.T) {
	s := stateAt(StageScriptView)
	s.IsLoading = true
	for _, e := range []Event{Begin{}, Back{}, Reset{}, StoryboardOpened{}} {
		if _, ok := Reduce(s, e); ok {
			t.Errorf("%s accepted while loading", e.eventName())
		}
	}
	if _, ok := Reduce(stateAt(StageInput), Failed{Message: "x"}); ok {
		t.Error("Failed accepted without a call in flight")
	}

	loading, _ := Reduce(stateAt(StageStructureSelection), Begin{})
	failed, ok := Reduce(loading, Failed{Message: "quota"})
	if !ok || failed.IsLoading || failed.Error != "quota" || failed.Stage != StageStructureSelection {
		t.Errorf("failure should keep the pre-call stage: %+v", failed)
	}
}

func TestReduce_UnknownTopicRejected(t *testing.T) {
	s := stateAt(StageTopicSelection)
	if _, ok := Reduce(s, TopicSelected{Topic: chat.SuggestedTopic{Title: "not offered"}}); ok {
		t.Error("topic outside the list accepted")
	}
}

func TestReduce_InvalidSettingsRejected(t *testing.T) {
	s := stateAt(StageStoryboardSettings)
	n := 4
	if _, ok := Reduce(s, SettingsChanged{Patch: storyboard.SettingsPatch{SceneCount: &n}}); ok {
		t.Error("scene count 4 accepted")
	}
}

func TestReduce_SceneEvents(t *testing.T) {
	s := stateAt(StageStoryboardView)

	started, ok := Reduce(s, SceneStarted{Batch: 1, SceneNumber: 2})
	if !ok || !started.StoryboardScenes[1].IsGenerating {
		t.Fatal("scene 2 not marked generating")
	}
	resolved, ok := Reduce(started, SceneResolved{Batch: 1, SceneNumber: 2, ImageURL: "u"})
	if !ok {
		t.Fatal("resolution rejected")
	}
	sc := resolved.StoryboardScenes[1]
	if sc.IsGenerating || sc.ImageURL != "u" || sc.ImageFailed {
		t.Errorf("unexpected scene %+v", sc)
	}

	failed, _ := Reduce(started, SceneResolved{Batch: 1, SceneNumber: 2, Failed: true})
	if sc := failed.StoryboardScenes[1]; sc.IsGenerating || sc.ImageURL != "" || !sc.ImageFailed {
		t.Errorf("failed scene %+v", sc)
	}

	if _, ok := Reduce(s, SceneResolved{Batch: 2, SceneNumber: 1, ImageURL: "stale"}); ok {
		t.Error("stale batch accepted")
	}
	if _, ok := Reduce(s, SceneResolved{Batch: 1, SceneNumber: 99, ImageURL: "x"}); ok {
		t.Error("unknown scene accepted")
	}
}
