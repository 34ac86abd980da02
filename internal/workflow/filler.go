package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/metrics"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// DefaultSceneDelay paces image requests to stay under backend rate limits.
const DefaultSceneDelay = 2 * time.Second

// ImageSource produces one scene image reference. It may return a usable
// fallback URL together with an error.
type ImageSource interface {
	GenerateSceneImage(ctx context.Context, prompt string, engine storyboard.Engine, ratio storyboard.AspectRatio) (string, error)
}

// FillTarget receives filler events. *Machine implements it.
type FillTarget interface {
	Active(batch int) bool
	Apply(e Event) bool
}

// FillJob is one storyboard batch to fill.
type FillJob struct {
	Session string
	Batch   int
	Scenes  []storyboard.Scene
	Engine  storyboard.Engine
	Ratio   storyboard.AspectRatio
}

// Filler requests scene images strictly one at a time, with Delay between
// requests.
type Filler struct {
	Images           ImageSource
	Delay            time.Duration
	Sleep            func(ctx context.Context, d time.Duration) error
	MetricsNamespace string
}

// NewFiller returns a Filler with the default delay.
func NewFiller(images ImageSource) *Filler {
	return &Filler{Images: images, Delay: DefaultSceneDelay}
}

// Run fills job's scenes in ascending scene number. It returns when every
// scene is resolved, when the batch is no longer shown, or when ctx ends.
// A failed scene never stops the run.
func (f *Filler) Run(ctx context.Context, target FillTarget, job FillJob) {
	scenes := append([]storyboard.Scene(nil), job.Scenes...)
	sort.SliceStable(scenes, func(i, j int) bool { return scenes[i].SceneNumber < scenes[j].SceneNumber })

	logger := log.With().Str("session", job.Session).Int("batch", job.Batch).Logger()
	logger.Info().Int("scenes", len(scenes)).Dur("delay", f.delay()).Msg("Scene image fill started")

	var ok, failed int
	for i, sc := range scenes {
		if i > 0 {
			if err := f.sleep(ctx, f.delay()); err != nil {
				logger.Warn().Err(err).Msg("Scene image fill interrupted")
				return
			}
		}
		if !target.Active(job.Batch) {
			logger.Info().Int("scene", sc.SceneNumber).Msg("Storyboard no longer shown, stopping image fill")
			return
		}
		if !target.Apply(SceneStarted{Batch: job.Batch, SceneNumber: sc.SceneNumber}) {
			return
		}

		ref := storyboard.Ref{Session: job.Session, Batch: job.Batch, Scene: sc.SceneNumber}
		start := time.Now()
		url, err := f.generate(storyboard.WithRef(ctx, ref), sc.VisualPrompt, job.Engine, job.Ratio)
		sceneFailed := err != nil || url == ""
		f.record(sceneFailed, err, time.Since(start))

		if sceneFailed {
			failed++
			logger.Warn().Err(err).Int("scene", sc.SceneNumber).Bool("fallback", url != "").Msg("Scene image failed")
		} else {
			ok++
		}

		if !target.Apply(SceneResolved{Batch: job.Batch, SceneNumber: sc.SceneNumber, ImageURL: url, Failed: sceneFailed}) {
			logger.Debug().Int("scene", sc.SceneNumber).Msg("Dropping image for a storyboard that was discarded")
			return
		}
	}
	logger.Info().Int("succeeded", ok).Int("failed", failed).Msg("Scene image fill complete")
}

// generate calls the image source, turning a panic into a failed scene.
func (f *Filler) generate(ctx context.Context, prompt string, engine storyboard.Engine, ratio storyboard.AspectRatio) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Image source panicked")
			url, err = "", fmt.Errorf("image source panic: %v", r)
		}
	}()
	return f.Images.GenerateSceneImage(ctx, prompt, engine, ratio)
}

func (f *Filler) delay() time.Duration {
	if f.Delay < 0 {
		return 0
	}
	return f.Delay
}

func (f *Filler) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *Filler) record(failed bool, err error, elapsed time.Duration) {
	result := "success"
	if failed {
		result = "failed"
		if err != nil {
			result = chat.KindOf(err).String()
		}
	}
	metrics.New(f.MetricsNamespace).
		Dimension("Result", result).
		Duration("SceneImageMs", elapsed).
		Count("SceneImageResult").
		Flush()
}
