package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/assets"
	"github.com/fpang/tubescript-ai/internal/structure"
)

// GenerateScript writes a full markdown script for topic, ordered by the
// guide's stages, using reference only for tone.
func (c *Client) GenerateScript(ctx context.Context, topic SuggestedTopic, referenceText string, guide structure.Guide) (string, error) {
	const op = "GenerateScript"
	start := time.Now()
	prompt := assets.RenderScriptPrompt(assets.ScriptData{
		Title:     topic.Title,
		Rationale: topic.Rationale,
		Guide:     guide.Text,
		Reference: referenceText,
	})

	script, err := c.generate(ctx, op, prompt, nil)
	if err != nil {
		return "", err
	}

	c.succeed(op, start)
	log.Info().
		Str("structure", string(guide.ID)).
		Int("script_length", len(script)).
		Dur("duration", time.Since(start)).
		Msg("Script generation complete")
	return script, nil
}
