package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/tubescript-ai/internal/assets"
	"github.com/fpang/tubescript-ai/internal/jsonutil"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

var sceneListSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"sceneNumber": {
				Type:        genai.TypeInteger,
				Description: "1-based position of the scene",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "What happens or is narrated in this scene",
			},
			"visualPrompt": {
				Type:        genai.TypeString,
				Description: "Image generation prompt for one frame of the scene",
			},
		},
		Required: []string{"sceneNumber", "description", "visualPrompt"},
	},
}

// AnalyzeForStoryboard splits a finished script into exactly sceneCount
// scenes. Scenes are numbered 1..sceneCount in response order and start
// without images.
func (c *Client) AnalyzeForStoryboard(ctx context.Context, script string, sceneCount int, style storyboard.VisualStyle) ([]storyboard.Scene, error) {
	const op = "AnalyzeForStoryboard"
	start := time.Now()
	prompt := assets.RenderStoryboardPrompt(script, sceneCount, style.Descriptor())

	text, err := c.generate(ctx, op, prompt, sceneListSchema)
	if err != nil {
		return nil, err
	}
	scenes, err := jsonutil.ParseJSON[[]storyboard.Scene](text)
	if err != nil {
		log.Debug().Err(err).Str("response", jsonutil.Preview(text, 200)).Msg("Failed to parse storyboard response")
		return nil, c.fail(op, KindResultMissing, err, start)
	}
	if len(scenes) != sceneCount {
		return nil, c.fail(op, KindResultMissing, fmt.Errorf("expected %d scenes, got %d", sceneCount, len(scenes)), start)
	}
	for i := range scenes {
		scenes[i].Description = strings.TrimSpace(scenes[i].Description)
		scenes[i].VisualPrompt = strings.TrimSpace(scenes[i].VisualPrompt)
		if scenes[i].Description == "" || scenes[i].VisualPrompt == "" {
			return nil, c.fail(op, KindResultMissing, fmt.Errorf("scene %d is incomplete", i+1), start)
		}
	}
	storyboard.Renumber(scenes)

	c.succeed(op, start)
	log.Info().
		Int("scene_count", len(scenes)).
		Str("style", string(style)).
		Dur("duration", time.Since(start)).
		Msg("Storyboard breakdown complete")
	return scenes, nil
}
