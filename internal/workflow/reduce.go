package workflow

import "github.com/fpang/tubescript-ai/internal/storyboard"

// Reduce applies e to s. It never mutates s. When e is not legal in the
// current state it returns s unchanged and false.
func Reduce(s State, e Event) (State, bool) {
	next := s.Clone()
	switch e := e.(type) {
	case Begin:
		if s.IsLoading {
			return s, false
		}
		next.IsLoading = true
		next.Error = ""

	case Failed:
		if !s.IsLoading {
			return s, false
		}
		next.IsLoading = false
		next.Error = e.Message

	case Analyzed:
		if s.Stage != StageInput {
			return s, false
		}
		next.RawInput = e.RawInput
		next.RequiredKeywords = e.Keywords
		next.StructureSummary = e.Result.StructureSummary
		next.Topics = cloneSlice(e.Result.Topics)
		next.SelectedTopic = nil
		next.SelectedStructure = ""
		next.GeneratedScript = ""
		next.IsLoading = false
		next.Error = ""
		next.Stage = StageTopicSelection

	case TopicsRegenerated:
		if s.Stage != StageTopicSelection {
			return s, false
		}
		// Only the topic list changes; the structure summary is reused.
		next.Topics = cloneSlice(e.Topics)
		next.IsLoading = false
		next.Error = ""

	case TopicSelected:
		if s.Stage != StageTopicSelection || s.IsLoading || !containsTopic(s, e) {
			return s, false
		}
		t := e.Topic
		next.SelectedTopic = &t
		next.Error = ""
		next.Stage = StageStructureSelection

	case ScriptGenerated:
		if s.Stage != StageStructureSelection || !e.Structure.Valid() {
			return s, false
		}
		next.SelectedStructure = e.Structure
		next.GeneratedScript = e.Script
		next.IsLoading = false
		next.Error = ""
		next.Stage = StageScriptView

	case StoryboardOpened:
		if s.Stage != StageScriptView || s.IsLoading || s.GeneratedScript == "" {
			return s, false
		}
		settings := storyboard.DefaultSettings()
		next.StoryboardSettings = &settings
		next.StoryboardScenes = nil
		next.Error = ""
		next.Stage = StageStoryboardSettings

	case SettingsChanged:
		if s.Stage != StageStoryboardSettings || s.IsLoading || s.StoryboardSettings == nil {
			return s, false
		}
		merged, err := e.Patch.Apply(*s.StoryboardSettings)
		if err != nil {
			return s, false
		}
		next.StoryboardSettings = &merged

	case ScenesReady:
		if s.Stage != StageStoryboardSettings || s.StoryboardSettings == nil || e.Batch == 0 {
			return s, false
		}
		next.StoryboardScenes = append([]storyboard.Scene(nil), e.Scenes...)
		for i := range next.StoryboardScenes {
			next.StoryboardScenes[i].IsGenerating = false
			next.StoryboardScenes[i].ImageURL = ""
			next.StoryboardScenes[i].ImageFailed = false
		}
		next.Batch = e.Batch
		next.IsLoading = false
		next.Error = ""
		next.Stage = StageStoryboardView

	case SceneStarted:
		i := activeScene(s, e.Batch, e.SceneNumber)
		if i < 0 {
			return s, false
		}
		next.StoryboardScenes[i].IsGenerating = true

	case SceneResolved:
		i := activeScene(s, e.Batch, e.SceneNumber)
		if i < 0 {
			return s, false
		}
		sc := &next.StoryboardScenes[i]
		sc.IsGenerating = false
		sc.ImageURL = e.ImageURL
		sc.ImageFailed = e.Failed

	case Back:
		if s.IsLoading {
			return s, false
		}
		next.Error = ""
		switch s.Stage {
		case StageTopicSelection:
			next.Topics = nil
			next.StructureSummary = ""
			next.SelectedTopic = nil
			next.Stage = StageInput
		case StageStructureSelection:
			next.SelectedStructure = ""
			next.Stage = StageTopicSelection
		case StageScriptView:
			next.GeneratedScript = ""
			next.SelectedStructure = ""
			next.Stage = StageStructureSelection
		case StageStoryboardSettings:
			next.StoryboardSettings = nil
			next.Stage = StageScriptView
		case StageStoryboardView:
			next.StoryboardSettings = nil
			next.StoryboardScenes = nil
			next.Batch = 0
			next.Stage = StageScriptView
		default:
			return s, false
		}

	case Reset:
		if s.IsLoading {
			return s, false
		}
		next = NewState()

	default:
		return s, false
	}
	return next, true
}

// activeScene returns the index of scene n when batch is the storyboard
// currently shown, or -1.
func activeScene(s State, batch, n int) int {
	if s.Stage != StageStoryboardView || batch == 0 || s.Batch != batch {
		return -1
	}
	return s.sceneIndex(n)
}

func containsTopic(s State, e TopicSelected) bool {
	for _, t := range s.Topics {
		if t == e.Topic {
			return true
		}
	}
	return false
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
