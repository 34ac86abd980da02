// Package workflow sequences a script from reference input through topic
// selection, structure selection and script synthesis, and optionally into a
// storyboard whose scene images are filled in the background.
//
// All state changes go through Reduce. Machine adds the side effects: the
// generation calls, the re-entrancy guard and the image filler.
package workflow

import (
	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

// Stage is the active step of the workflow.
type Stage string

const (
	StageInput              Stage = "INPUT"
	StageTopicSelection     Stage = "TOPIC_SELECTION"
	StageStructureSelection Stage = "STRUCTURE_SELECTION"
	StageScriptView         Stage = "SCRIPT_VIEW"
	StageStoryboardSettings Stage = "STORYBOARD_SETTINGS"
	StageStoryboardView     Stage = "STORYBOARD_VIEW"
)

// Stages lists every stage in forward order.
func Stages() []Stage {
	return []Stage{
		StageInput,
		StageTopicSelection,
		StageStructureSelection,
		StageScriptView,
		StageStoryboardSettings,
		StageStoryboardView,
	}
}

// State is the single source of truth for one session. Which fields are
// populated is a function of Stage.
type State struct {
	Stage              Stage                 `json:"stage" dynamodbav:"stage"`
	RawInput           string                `json:"rawInput" dynamodbav:"rawInput"`
	RequiredKeywords   string                `json:"requiredKeywords,omitempty" dynamodbav:"requiredKeywords,omitempty"`
	StructureSummary   string                `json:"structureSummary,omitempty" dynamodbav:"structureSummary,omitempty"`
	Topics             []chat.SuggestedTopic `json:"topics,omitempty" dynamodbav:"topics,omitempty"`
	SelectedTopic      *chat.SuggestedTopic  `json:"selectedTopic,omitempty" dynamodbav:"selectedTopic,omitempty"`
	SelectedStructure  structure.ID          `json:"selectedStructure,omitempty" dynamodbav:"selectedStructure,omitempty"`
	GeneratedScript    string                `json:"generatedScript,omitempty" dynamodbav:"generatedScript,omitempty"`
	StoryboardSettings *storyboard.Settings  `json:"storyboardSettings,omitempty" dynamodbav:"storyboardSettings,omitempty"`
	StoryboardScenes   []storyboard.Scene    `json:"storyboardScenes,omitempty" dynamodbav:"storyboardScenes,omitempty"`
	IsLoading          bool                  `json:"isLoading" dynamodbav:"isLoading"`
	Error              string                `json:"error,omitempty" dynamodbav:"error,omitempty"`

	// Batch identifies the storyboard the filler is allowed to write to.
	// Zero when no storyboard is shown.
	Batch int `json:"batch,omitempty" dynamodbav:"batch,omitempty"`
}

// NewState returns the initial INPUT state.
func NewState() State {
	return State{Stage: StageInput}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	if s.Topics != nil {
		c.Topics = append([]chat.SuggestedTopic(nil), s.Topics...)
	}
	if s.SelectedTopic != nil {
		t := *s.SelectedTopic
		c.SelectedTopic = &t
	}
	if s.StoryboardSettings != nil {
		st := *s.StoryboardSettings
		c.StoryboardSettings = &st
	}
	if s.StoryboardScenes != nil {
		c.StoryboardScenes = append([]storyboard.Scene(nil), s.StoryboardScenes...)
	}
	return c
}

// sceneIndex returns the index of the scene with number n, or -1.
func (s State) sceneIndex(n int) int {
	for i, sc := range s.StoryboardScenes {
		if sc.SceneNumber == n {
			return i
		}
	}
	return -1
}

// Normalize clears flags that cannot survive a restart: no call is in
// flight and no scene is being generated.
func (s State) Normalize() State {
	c := s.Clone()
	c.IsLoading = false
	for i := range c.StoryboardScenes {
		c.StoryboardScenes[i].IsGenerating = false
	}
	return c
}
