package workflow

import (
	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

// Event is an input to Reduce.
type Event interface {
	eventName() string
}

// Begin marks the start of a foreground generation call.
type Begin struct{}

// Failed ends a foreground call with a user-facing message.
type Failed struct{ Message string }

// Analyzed carries a successful analysis.
type Analyzed struct {
	RawInput string
	Keywords string
	Result   chat.AnalysisResult
}

// TopicsRegenerated replaces the topic list.
type TopicsRegenerated struct{ Topics []chat.SuggestedTopic }

// TopicSelected picks one of the current topics.
type TopicSelected struct{ Topic chat.SuggestedTopic }

// ScriptGenerated carries a finished script and the structure it used.
type ScriptGenerated struct {
	Structure structure.ID
	Script    string
}

// StoryboardOpened enters the storyboard flow with default settings.
type StoryboardOpened struct{}

// SettingsChanged merges a partial settings update.
type SettingsChanged struct{ Patch storyboard.SettingsPatch }

// ScenesReady carries a scene breakdown for a new batch.
type ScenesReady struct {
	Batch  int
	Scenes []storyboard.Scene
}

// SceneStarted marks one scene as generating.
type SceneStarted struct {
	Batch       int
	SceneNumber int
}

// SceneResolved records the outcome of one scene image request.
type SceneResolved struct {
	Batch       int
	SceneNumber int
	ImageURL    string
	Failed      bool
}

// Back discards the current step's output and returns one stage.
type Back struct{}

// Reset returns to a fresh INPUT state.
type Reset struct{}

func (Begin) eventName() string             { return "begin" }
func (Failed) eventName() string            { return "failed" }
func (Analyzed) eventName() string          { return "analyzed" }
func (TopicsRegenerated) eventName() string { return "topics_regenerated" }
func (TopicSelected) eventName() string     { return "topic_selected" }
func (ScriptGenerated) eventName() string   { return "script_generated" }
func (StoryboardOpened) eventName() string  { return "storyboard_opened" }
func (SettingsChanged) eventName() string   { return "settings_changed" }
func (ScenesReady) eventName() string       { return "scenes_ready" }
func (SceneStarted) eventName() string      { return "scene_started" }
func (SceneResolved) eventName() string     { return "scene_resolved" }
func (Back) eventName() string              { return "back" }
func (Reset) eventName() string             { return "reset" }
