package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/tubescript-ai/internal/app"
	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/cli"
	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/storyboard"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

var (
	runInput    string
	runFiles    []string
	runPick     bool
	runKeywords string
	runModel    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive walkthrough from reference script to storyboard",
	Long: `Run walks through the full workflow in the terminal:
reference -> topic -> narrative structure -> script -> storyboard.

The reference can be pasted, passed with --input, or read from up to three
.txt/.md files with --file or a native file dialog (--pick).`,
	Args: cobra.NoArgs,
	Run:  runWalkthrough,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Reference script text")
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "Reference script file (.txt or .md, repeatable, max 3)")
	runCmd.Flags().BoolVar(&runPick, "pick", false, "Choose reference files with a native file dialog")
	runCmd.Flags().StringVarP(&runKeywords, "keywords", "k", "", "Keywords the suggested topics must include")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Gemini model to use (default "+chat.DefaultModelName+")")
}

func runWalkthrough(cmd *cobra.Command, args []string) {
	if runModel != "" {
		cfg.GeminiModel = runModel
	}

	paths := runFiles
	if runPick {
		picked, err := cli.PickReferenceFiles()
		if err != nil {
			log.Fatal().Err(err).Msg("File picker failed")
		}
		paths = append(paths, picked...)
	}
	files, err := source.ReadPaths(paths)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read reference files")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := app.New(cfg, app.Options{CredentialStore: app.LocalCredentialStore(cfg)})
	out := &lockedWriter{w: os.Stdout}
	w := &walkthrough{
		m:        services.NewMachine("cli"),
		p:        cli.NewPrompter(os.Stdin, out),
		out:      out,
		files:    files,
		input:    runInput,
		keywords: runKeywords,
	}
	if err := w.run(ctx); err != nil && !errors.Is(err, cli.ErrInputClosed) && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Walkthrough failed")
	}
}

var errQuit = errors.New("quit")

// lockedWriter serializes prompt output with scene progress printed from
// the image filler's goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// walkthrough drives one Machine from the terminal.
type walkthrough struct {
	m   *workflow.Machine
	p   *cli.Prompter
	out io.Writer

	// Flag-provided input, consumed on the first pass through INPUT.
	files    []source.File
	input    string
	keywords string

	mu      sync.Mutex
	printed map[int]bool
	batch   int
}

func (w *walkthrough) run(ctx context.Context) error {
	unsubscribe := w.m.Subscribe(w.printSceneProgress)
	defer unsubscribe()

	for ctx.Err() == nil {
		var err error
		switch w.m.State().Stage {
		case workflow.StageInput:
			err = w.inputStep(ctx)
		case workflow.StageTopicSelection:
			err = w.topicStep(ctx)
		case workflow.StageStructureSelection:
			err = w.structureStep(ctx)
		case workflow.StageScriptView:
			err = w.scriptStep()
		case workflow.StageStoryboardSettings:
			err = w.settingsStep(ctx)
		case workflow.StageStoryboardView:
			err = w.storyboardStep(ctx)
		}
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

// report prints a failed action. Only prompt errors end the walkthrough.
func (w *walkthrough) report(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	var chatErr *chat.Error
	if errors.As(err, &chatErr) {
		msg = chat.Message(err)
	}
	fmt.Fprintf(w.out, "\n! %s\n", msg)
	if errors.Is(err, chat.ErrMissingCredential) || errors.Is(err, chat.ErrInvalidCredential) {
		fmt.Fprintln(w.out, "  Run `tubescript key set gemini` to save a key.")
	}
}

func (w *walkthrough) timed(label string, fn func() error) error {
	fmt.Fprintf(w.out, "%s...\n", label)
	start := time.Now()
	err := fn()
	if err == nil {
		fmt.Fprintf(w.out, "Done in %s\n", cli.FormatDurationShort(time.Since(start)))
	}
	return err
}

func (w *walkthrough) inputStep(ctx context.Context) error {
	files, input, keywords := w.files, w.input, w.keywords
	w.files, w.input, w.keywords = nil, "", ""

	if len(files) == 0 && input == "" {
		var err error
		if input, err = w.p.Block("\nPaste your reference script"); err != nil {
			return err
		}
		if input == "" {
			return cli.ErrInputClosed
		}
		if keywords, err = w.p.Line("Required keywords (optional)", ""); err != nil {
			return err
		}
	}

	w.report(w.timed("Analyzing reference", func() error {
		if len(files) > 0 {
			_, err := w.m.SubmitFiles(ctx, files, keywords)
			return err
		}
		_, err := w.m.Submit(ctx, input, keywords)
		return err
	}))
	return nil
}

func (w *walkthrough) topicStep(ctx context.Context) error {
	s := w.m.State()
	cli.PrintTopics(w.out, s.StructureSummary, s.Topics)
	i, cmd, err := w.p.Choice("\nTopic number, [g]enerate new topics, [b]ack, [r]eset", len(s.Topics), "g", "b", "r")
	if err != nil {
		return err
	}
	switch cmd {
	case "g":
		kw, err := w.p.Line("New keywords", "")
		if err != nil {
			return err
		}
		w.report(w.timed("Generating topics", func() error {
			_, err := w.m.RegenerateTopics(ctx, kw)
			return err
		}))
	case "b", "r":
		w.navigate(cmd)
	default:
		_, err := w.m.SelectTopic(i)
		w.report(err)
	}
	return nil
}

func (w *walkthrough) structureStep(ctx context.Context) error {
	menu := cli.StructureMenu()
	cli.PrintStructures(w.out, menu)
	i, cmd, err := w.p.Choice("\nStructure number, [b]ack, [r]eset", len(menu), "b", "r")
	if err != nil {
		return err
	}
	if cmd != "" {
		w.navigate(cmd)
		return nil
	}
	w.report(w.timed("Writing script", func() error {
		_, err := w.m.SelectStructure(ctx, menu[i].ID)
		return err
	}))
	return nil
}

func (w *walkthrough) scriptStep() error {
	script, err := w.m.Script()
	if err != nil {
		w.report(err)
		return nil
	}
	cli.PrintScript(w.out, script)
	cmd, err := w.p.Command("[c]opy, [s]toryboard, [b]ack, [r]eset, [q]uit", "c", "s", "b", "r", "q")
	if err != nil {
		return err
	}
	switch cmd {
	case "c":
		if err := cli.CopyToClipboard(script); err != nil {
			w.report(fmt.Errorf("copy to clipboard: %w", err))
		} else {
			fmt.Fprintln(w.out, "Script copied to clipboard.")
		}
	case "s":
		_, err := w.m.OpenStoryboard()
		w.report(err)
	case "q":
		return errQuit
	default:
		w.navigate(cmd)
	}
	return nil
}

func (w *walkthrough) settingsStep(ctx context.Context) error {
	s := w.m.State().StoryboardSettings
	fmt.Fprintf(w.out, "\nStoryboard: style=%s engine=%s ratio=%s scenes=%d\n", s.VisualStyle, s.Engine, s.AspectRatio, s.SceneCount)
	cmd, err := w.p.Command("[g]enerate, [e]dit settings, [b]ack, [r]eset", "g", "e", "b", "r")
	if err != nil {
		return err
	}
	switch cmd {
	case "g":
		w.report(w.timed("Breaking script into scenes", func() error {
			_, err := w.m.GenerateStoryboard(ctx)
			return err
		}))
	case "e":
		patch, err := w.promptSettings(*s)
		if err != nil {
			return err
		}
		_, err = w.m.ChangeSettings(patch)
		w.report(err)
	default:
		w.navigate(cmd)
	}
	return nil
}

func (w *walkthrough) promptSettings(cur storyboard.Settings) (storyboard.SettingsPatch, error) {
	var patch storyboard.SettingsPatch

	styles := storyboard.Styles()
	for i, st := range styles {
		fmt.Fprintf(w.out, "  %d. %s\n", i+1, st.Name)
	}
	if answer, err := w.p.Line("Visual style number", ""); err != nil {
		return patch, err
	} else if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(styles) {
		patch.VisualStyle = &styles[n-1].ID
	}

	engine, err := w.p.Line(fmt.Sprintf("Engine %v", storyboard.Engines()), string(cur.Engine))
	if err != nil {
		return patch, err
	}
	e := storyboard.Engine(engine)
	patch.Engine = &e

	ratio, err := w.p.Line(fmt.Sprintf("Aspect ratio %v", storyboard.AspectRatios()), string(cur.AspectRatio))
	if err != nil {
		return patch, err
	}
	r := storyboard.AspectRatio(ratio)
	patch.AspectRatio = &r

	count, err := w.p.Line(fmt.Sprintf("Scene count (%d-%d)", storyboard.MinScenes, storyboard.MaxScenes), strconv.Itoa(cur.SceneCount))
	if err != nil {
		return patch, err
	}
	if n, err := strconv.Atoi(count); err == nil {
		patch.SceneCount = &n
	}
	return patch, nil
}

func (w *walkthrough) storyboardStep(ctx context.Context) error {
	filled := make(chan struct{})
	go func() {
		w.m.Wait()
		close(filled)
	}()
	select {
	case <-filled:
	case <-ctx.Done():
		return ctx.Err()
	}

	s := w.m.State()
	var failed int
	for _, sc := range s.StoryboardScenes {
		if sc.ImageFailed {
			failed++
		}
	}
	fmt.Fprintf(w.out, "\nStoryboard complete: %d scenes, %d without images.\n", len(s.StoryboardScenes), failed)
	cmd, err := w.p.Command("[b]ack, [r]eset, [q]uit", "b", "r", "q")
	if err != nil {
		return err
	}
	if cmd == "q" {
		return errQuit
	}
	w.navigate(cmd)
	return nil
}

func (w *walkthrough) navigate(cmd string) {
	var err error
	if cmd == "r" {
		_, err = w.m.Reset()
	} else {
		_, err = w.m.Back()
	}
	w.report(err)
}

// printSceneProgress prints each scene once, as soon as it resolves.
func (w *walkthrough) printSceneProgress(s workflow.State) {
	if s.Stage != workflow.StageStoryboardView {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if s.Batch != w.batch {
		w.batch = s.Batch
		w.printed = make(map[int]bool)
		fmt.Fprintln(w.out)
	}
	for _, sc := range s.StoryboardScenes {
		if w.printed[sc.SceneNumber] || sc.IsGenerating || (sc.ImageURL == "" && !sc.ImageFailed) {
			continue
		}
		w.printed[sc.SceneNumber] = true
		fmt.Fprintln(w.out, cli.SceneLine(sc))
	}
}
