package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/structure"
)

var (
	// ErrBusy is returned while a foreground call is in flight.
	ErrBusy = errors.New("another generation is in progress")
	// ErrInvalidTransition is returned for actions not allowed in the
	// current stage.
	ErrInvalidTransition = errors.New("action not allowed in the current stage")
	// ErrPrecondition is returned for invalid arguments to a legal action.
	ErrPrecondition = errors.New("precondition not met")
)

// TextGenerator is the generation client the machine drives.
type TextGenerator interface {
	Analyze(ctx context.Context, referenceText, requiredKeywords string) (*chat.AnalysisResult, error)
	AnalyzeMultiple(ctx context.Context, referenceTexts []string, requiredKeywords string) (*chat.AnalysisResult, error)
	RegenerateTopics(ctx context.Context, structureSummary, referenceText, newKeywords string) ([]chat.SuggestedTopic, error)
	GenerateScript(ctx context.Context, topic chat.SuggestedTopic, referenceText string, guide structure.Guide) (string, error)
	AnalyzeForStoryboard(ctx context.Context, script string, sceneCount int, style storyboard.VisualStyle) ([]storyboard.Scene, error)
}

// Machine owns one session's State and runs the side effects of each
// transition. It is safe for concurrent use.
type Machine struct {
	id     string
	gen    TextGenerator
	filler *Filler

	mu      sync.Mutex
	state   State
	files   []source.File
	batch   int
	subs    map[int]func(State)
	nextSub int

	fillers sync.WaitGroup
	running atomic.Int32
}

// NewMachine returns a Machine in the INPUT stage. filler may be nil, in
// which case storyboards are shown without images.
func NewMachine(id string, gen TextGenerator, filler *Filler) *Machine {
	return &Machine{
		id:     id,
		gen:    gen,
		filler: filler,
		state:  NewState(),
		subs:   make(map[int]func(State)),
	}
}

// ID returns the session ID.
func (m *Machine) ID() string { return m.id }

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Files returns the uploaded reference files.
func (m *Machine) Files() []source.File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]source.File(nil), m.files...)
}

// Subscribe registers fn to receive every new state. The returned func
// removes it.
func (m *Machine) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Restore replaces the state and files, e.g. from a stored snapshot.
func (m *Machine) Restore(s State, files []source.File) {
	s = s.Normalize()
	m.update(func(State) (State, error) {
		m.files = append([]source.File(nil), files...)
		if s.Batch > m.batch {
			m.batch = s.Batch
		}
		return s, nil
	})
}

// Wait blocks until every running image filler has exited.
func (m *Machine) Wait() {
	m.fillers.Wait()
}

// Busy reports whether a foreground call or an image filler is running.
func (m *Machine) Busy() bool {
	if m.running.Load() > 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsLoading
}

// Watchers returns the number of registered subscribers.
func (m *Machine) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Script returns the generated script for copying.
func (m *Machine) Script() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.GeneratedScript == "" {
		return "", fmt.Errorf("%w: no script has been generated", ErrPrecondition)
	}
	return m.state.GeneratedScript, nil
}

// Submit analyzes a single free-text reference.
func (m *Machine) Submit(ctx context.Context, rawInput, keywords string) (State, error) {
	_, err := m.begin(func(s State) error {
		if s.Stage != StageInput {
			return ErrInvalidTransition
		}
		if strings.TrimSpace(rawInput) == "" {
			return fmt.Errorf("%w: input is empty", ErrPrecondition)
		}
		return nil
	})
	if err != nil {
		return m.State(), err
	}

	var result *chat.AnalysisResult
	err = guard("analyze", func() (err error) {
		result, err = m.gen.Analyze(ctx, rawInput, keywords)
		return err
	})
	if err != nil {
		return m.fail("analyze", err)
	}
	return m.update(func(s State) (State, error) {
		next, ok := Reduce(s, Analyzed{RawInput: rawInput, Keywords: keywords, Result: *result})
		if !ok {
			return s, ErrInvalidTransition
		}
		m.files = nil
		log.Info().Str("session", m.id).Int("topics", len(next.Topics)).Msg("Reference analyzed")
		return next, nil
	})
}

// SubmitFiles analyzes up to source.MaxFiles uploaded references. The count
// is checked before any backend call.
func (m *Machine) SubmitFiles(ctx context.Context, files []source.File, keywords string) (State, error) {
	if len(files) > source.MaxFiles {
		return m.State(), source.ErrTooManyFiles
	}
	_, err := m.begin(func(s State) error {
		if s.Stage != StageInput {
			return ErrInvalidTransition
		}
		if len(files) == 0 {
			return fmt.Errorf("%w: no files", ErrPrecondition)
		}
		return nil
	})
	if err != nil {
		return m.State(), err
	}

	var result *chat.AnalysisResult
	err = guard("analyze_multiple", func() (err error) {
		result, err = m.gen.AnalyzeMultiple(ctx, source.Texts(files), keywords)
		return err
	})
	if err != nil {
		return m.fail("analyze_multiple", err)
	}
	return m.update(func(s State) (State, error) {
		next, ok := Reduce(s, Analyzed{RawInput: source.Placeholder(len(files)), Keywords: keywords, Result: *result})
		if !ok {
			return s, ErrInvalidTransition
		}
		m.files = append([]source.File(nil), files...)
		log.Info().Str("session", m.id).Int("files", len(files)).Int("topics", len(next.Topics)).Msg("References analyzed")
		return next, nil
	})
}

// SelectTopic picks topic index from the current list.
func (m *Machine) SelectTopic(index int) (State, error) {
	return m.update(func(s State) (State, error) {
		if s.IsLoading {
			return s, ErrBusy
		}
		if s.Stage != StageTopicSelection {
			return s, ErrInvalidTransition
		}
		if index < 0 || index >= len(s.Topics) {
			return s, fmt.Errorf("%w: topic %d out of range", ErrPrecondition, index)
		}
		next, ok := Reduce(s, TopicSelected{Topic: s.Topics[index]})
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
}

// RegenerateTopics replaces the topics using the existing structure summary.
func (m *Machine) RegenerateTopics(ctx context.Context, keywords string) (State, error) {
	var summary, reference string
	_, err := m.begin(func(s State) error {
		if s.Stage != StageTopicSelection {
			return ErrInvalidTransition
		}
		if strings.TrimSpace(keywords) == "" {
			return fmt.Errorf("%w: keywords are required", ErrPrecondition)
		}
		summary, reference = s.StructureSummary, m.referenceLocked(s)
		return nil
	})
	if err != nil {
		return m.State(), err
	}

	var topics []chat.SuggestedTopic
	err = guard("regenerate_topics", func() (err error) {
		topics, err = m.gen.RegenerateTopics(ctx, summary, reference, keywords)
		return err
	})
	if err != nil {
		return m.fail("regenerate_topics", err)
	}
	return m.update(func(s State) (State, error) {
		next, ok := Reduce(s, TopicsRegenerated{Topics: topics})
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
}

// SelectStructure generates the script with the chosen structure.
// structure.Original uses the analysed summary as the guide.
func (m *Machine) SelectStructure(ctx context.Context, id structure.ID) (State, error) {
	var topic chat.SuggestedTopic
	var reference, summary string
	_, err := m.begin(func(s State) error {
		if s.Stage != StageStructureSelection {
			return ErrInvalidTransition
		}
		if !id.Valid() {
			return fmt.Errorf("%w: unknown structure %q", ErrPrecondition, id)
		}
		if s.SelectedTopic == nil {
			return fmt.Errorf("%w: no topic selected", ErrPrecondition)
		}
		topic, reference, summary = *s.SelectedTopic, m.referenceLocked(s), s.StructureSummary
		return nil
	})
	if err != nil {
		return m.State(), err
	}

	guide, err := structure.Resolve(id, summary)
	if err != nil {
		return m.fail("generate_script", err)
	}
	var script string
	err = guard("generate_script", func() (err error) {
		script, err = m.gen.GenerateScript(ctx, topic, reference, guide)
		return err
	})
	if err != nil {
		return m.fail("generate_script", err)
	}
	return m.update(func(s State) (State, error) {
		next, ok := Reduce(s, ScriptGenerated{Structure: id, Script: script})
		if !ok {
			return s, ErrInvalidTransition
		}
		log.Info().Str("session", m.id).Str("structure", string(id)).Int("script_length", len(script)).Msg("Script generated")
		return next, nil
	})
}

// OpenStoryboard enters the storyboard settings step with defaults.
func (m *Machine) OpenStoryboard() (State, error) {
	return m.apply(StoryboardOpened{}, func(s State) error {
		if s.Stage != StageScriptView {
			return ErrInvalidTransition
		}
		if s.GeneratedScript == "" {
			return fmt.Errorf("%w: no script", ErrPrecondition)
		}
		return nil
	})
}

// ChangeSettings merges patch into the storyboard settings. An invalid
// value rejects the whole patch.
func (m *Machine) ChangeSettings(patch storyboard.SettingsPatch) (State, error) {
	return m.apply(SettingsChanged{Patch: patch}, func(s State) error {
		if s.Stage != StageStoryboardSettings || s.StoryboardSettings == nil {
			return ErrInvalidTransition
		}
		if _, err := patch.Apply(*s.StoryboardSettings); err != nil {
			return fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
		return nil
	})
}

// GenerateStoryboard breaks the script into scenes, shows them, and then
// starts the image filler in the background. The filler outlives ctx.
func (m *Machine) GenerateStoryboard(ctx context.Context) (State, error) {
	var script string
	var settings storyboard.Settings
	_, err := m.begin(func(s State) error {
		if s.Stage != StageStoryboardSettings {
			return ErrInvalidTransition
		}
		if s.GeneratedScript == "" || s.StoryboardSettings == nil {
			return fmt.Errorf("%w: script and settings are required", ErrPrecondition)
		}
		script, settings = s.GeneratedScript, *s.StoryboardSettings
		return nil
	})
	if err != nil {
		return m.State(), err
	}

	var scenes []storyboard.Scene
	err = guard("analyze_for_storyboard", func() (err error) {
		scenes, err = m.gen.AnalyzeForStoryboard(ctx, script, settings.SceneCount, settings.VisualStyle)
		return err
	})
	if err != nil {
		return m.fail("analyze_for_storyboard", err)
	}

	var batch int
	state, err := m.update(func(s State) (State, error) {
		m.batch++
		batch = m.batch
		next, ok := Reduce(s, ScenesReady{Batch: batch, Scenes: scenes})
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
	if err != nil {
		return state, err
	}

	log.Info().
		Str("session", m.id).
		Int("batch", batch).
		Int("scenes", len(scenes)).
		Str("style", string(settings.VisualStyle)).
		Msg("Storyboard ready, starting image fill")

	if m.filler != nil {
		job := FillJob{
			Session: m.id,
			Batch:   batch,
			Scenes:  state.StoryboardScenes,
			Engine:  settings.Engine,
			Ratio:   settings.AspectRatio,
		}
		m.fillers.Add(1)
		m.running.Add(1)
		go func() {
			defer m.fillers.Done()
			defer m.running.Add(-1)
			m.filler.Run(context.WithoutCancel(ctx), m, job)
		}()
	}
	return state, nil
}

// Back returns one stage, discarding that step's output.
func (m *Machine) Back() (State, error) {
	return m.apply(Back{}, func(s State) error {
		if s.Stage == StageInput {
			return ErrInvalidTransition
		}
		return nil
	})
}

// Reset clears everything, including uploaded files.
func (m *Machine) Reset() (State, error) {
	return m.update(func(s State) (State, error) {
		if s.IsLoading {
			return s, ErrBusy
		}
		next, _ := Reduce(s, Reset{})
		m.files = nil
		log.Info().Str("session", m.id).Msg("Workflow reset")
		return next, nil
	})
}

// Active reports whether batch is the storyboard currently shown.
func (m *Machine) Active(batch int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return batch != 0 && m.state.Stage == StageStoryboardView && m.state.Batch == batch
}

// Apply feeds a filler event through Reduce. It reports false when the
// event no longer applies.
func (m *Machine) Apply(e Event) bool {
	_, err := m.update(func(s State) (State, error) {
		next, ok := Reduce(s, e)
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
	return err == nil
}

// referenceLocked is the first uploaded file when files were submitted,
// else the raw input. Caller holds m.mu.
func (m *Machine) referenceLocked(s State) string {
	if len(m.files) > 0 {
		return m.files[0].Text
	}
	return s.RawInput
}

// begin runs check and then applies Begin, atomically.
func (m *Machine) begin(check func(State) error) (State, error) {
	return m.update(func(s State) (State, error) {
		if s.IsLoading {
			return s, ErrBusy
		}
		if err := check(s); err != nil {
			return s, err
		}
		next, _ := Reduce(s, Begin{})
		return next, nil
	})
}

// apply runs a synchronous transition guarded by check.
func (m *Machine) apply(e Event, check func(State) error) (State, error) {
	return m.update(func(s State) (State, error) {
		if s.IsLoading {
			return s, ErrBusy
		}
		if err := check(s); err != nil {
			return s, err
		}
		next, ok := Reduce(s, e)
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
}

// guard runs a generator call, turning a panic into a generation failure
// so the loading flag is always cleared by fail.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("op", op).Msg("Generator panicked")
			err = chat.NewError(chat.KindGenerationFailed, op, fmt.Errorf("generator panic: %v", r))
		}
	}()
	return fn()
}

// fail ends the in-flight call, recording a message for the error's kind.
func (m *Machine) fail(op string, err error) (State, error) {
	log.Error().Err(err).Str("session", m.id).Str("op", op).Str("kind", chat.KindOf(err).String()).Msg("Generation failed")
	state, _ := m.update(func(s State) (State, error) {
		next, ok := Reduce(s, Failed{Message: chat.Message(err)})
		if !ok {
			return s, ErrInvalidTransition
		}
		return next, nil
	})
	return state, err
}

// update runs fn under the lock. On success the new state is stored and
// every subscriber is notified outside the lock.
func (m *Machine) update(fn func(State) (State, error)) (State, error) {
	m.mu.Lock()
	next, err := fn(m.state)
	if err != nil {
		cur := m.state.Clone()
		m.mu.Unlock()
		return cur, err
	}
	m.state = next
	snapshot := next.Clone()
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	return snapshot, nil
}
