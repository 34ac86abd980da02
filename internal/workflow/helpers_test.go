package workflow

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/metrics"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

func init() {
	metrics.SetOutput(io.Discard)
}

func fiveTopics(prefix string) []chat.SuggestedTopic {
	topics := make([]chat.SuggestedTopic, 5)
	for i := range topics {
		topics[i] = chat.SuggestedTopic{Title: fmt.Sprintf("%s %d", prefix, i+1), Rationale: "because"}
	}
	return topics
}

func makeScenes(n int) []storyboard.Scene {
	scenes := make([]storyboard.Scene, n)
	for i := range scenes {
		scenes[i] = storyboard.Scene{
			SceneNumber:  i + 1,
			Description:  fmt.Sprintf("scene %d", i+1),
			VisualPrompt: fmt.Sprintf("prompt %d", i+1),
		}
	}
	return scenes
}

// stateAt returns a fully populated, non-loading state for stage.
func stateAt(stage Stage) State {
	s := NewState()
	if stage == StageInput {
		return s
	}
	s.RawInput = "reference"
	s.StructureSummary = "summary"
	s.Topics = fiveTopics("Topic")
	s.Stage = StageTopicSelection
	if stage == StageTopicSelection {
		return s
	}
	t := s.Topics[1]
	s.SelectedTopic = &t
	s.Stage = StageStructureSelection
	if stage == StageStructureSelection {
		return s
	}
	s.SelectedStructure = structure.SaveTheCat
	s.GeneratedScript = "## Script"
	s.Stage = StageScriptView
	if stage == StageScriptView {
		return s
	}
	settings := storyboard.DefaultSettings()
	s.StoryboardSettings = &settings
	s.Stage = StageStoryboardSettings
	if stage == StageStoryboardSettings {
		return s
	}
	s.StoryboardScenes = makeScenes(3)
	s.Batch = 1
	s.Stage = StageStoryboardView
	return s
}

type fakeGen struct {
	mu    sync.Mutex
	calls map[string]int

	analysis   *chat.AnalysisResult
	analyzeErr error
	topics     []chat.SuggestedTopic
	topicsErr  error
	script     string
	scriptErr  error
	scenes     []storyboard.Scene
	scenesErr  error

	// panicOn makes the named call panic instead of returning.
	panicOn string

	// When set, Analyze signals started and waits on release.
	started chan struct{}
	release chan struct{}

	lastReference  string
	lastReferences []string
	lastSummary    string
	lastGuide      structure.Guide
	lastTopic      chat.SuggestedTopic
	lastSceneCount int
}

func newFakeGen() *fakeGen {
	return &fakeGen{
		calls:    map[string]int{},
		analysis: &chat.AnalysisResult{StructureSummary: "hook, list, twist", Topics: fiveTopics("Topic")},
		topics:   fiveTopics("Fresh"),
		script:   "## Hook\nnew script",
		scenes:   makeScenes(3),
	}
}

func (f *fakeGen) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGen) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeGen) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	if op == f.panicOn {
		panic("backend exploded in " + op)
	}
}

func (f *fakeGen) Analyze(ctx context.Context, ref, kw string) (*chat.AnalysisResult, error) {
	f.hit("analyze")
	f.lastReference = ref
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	r := *f.analysis
	return &r, nil
}

func (f *fakeGen) AnalyzeMultiple(ctx context.Context, refs []string, kw string) (*chat.AnalysisResult, error) {
	f.hit("analyze_multiple")
	f.lastReferences = refs
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	r := *f.analysis
	return &r, nil
}

func (f *fakeGen) RegenerateTopics(ctx context.Context, summary, ref, kw string) ([]chat.SuggestedTopic, error) {
	f.hit("regenerate")
	f.lastSummary = summary
	f.lastReference = ref
	if f.topicsErr != nil {
		return nil, f.topicsErr
	}
	return f.topics, nil
}

func (f *fakeGen) GenerateScript(ctx context.Context, topic chat.SuggestedTopic, ref string, guide structure.Guide) (string, error) {
	f.hit("script")
	f.lastTopic = topic
	f.lastReference = ref
	f.lastGuide = guide
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return f.script, nil
}

func (f *fakeGen) AnalyzeForStoryboard(ctx context.Context, script string, n int, style storyboard.VisualStyle) ([]storyboard.Scene, error) {
	f.hit("storyboard")
	f.lastSceneCount = n
	if f.scenesErr != nil {
		return nil, f.scenesErr
	}
	return append([]storyboard.Scene(nil), f.scenes...), nil
}

// fakeImages returns "img-<n>" for each prompt, or "" plus an error for
// scenes listed in fail.
type fakeImages struct {
	mu      sync.Mutex
	prompts []string
	fail    map[string]bool
	panicOn map[string]bool
	onCall  func(prompt string)
}

func (f *fakeImages) GenerateSceneImage(ctx context.Context, prompt string, engine storyboard.Engine, ratio storyboard.AspectRatio) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	onCall := f.onCall
	f.mu.Unlock()
	if onCall != nil {
		onCall(prompt)
	}
	if f.panicOn[prompt] {
		panic("backend exploded")
	}
	if f.fail[prompt] {
		return "", chat.NewError(chat.KindGenerationFailed, "GenerateSceneImage", fmt.Errorf("boom"))
	}
	return "img-" + prompt, nil
}

func (f *fakeImages) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// countingSleep records delays without waiting.
type countingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *countingSleep) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	return nil
}

func (c *countingSleep) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delays)
}
