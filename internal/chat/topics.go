package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/tubescript-ai/internal/assets"
	"github.com/fpang/tubescript-ai/internal/jsonutil"
)

// TopicCount is the number of topics every analysis must return.
const TopicCount = 5

// MaxReferences bounds AnalyzeMultiple.
const MaxReferences = 3

// ErrReferenceCount is wrapped when AnalyzeMultiple gets 0 or too many texts.
var ErrReferenceCount = fmt.Errorf("between 1 and %d reference texts are required", MaxReferences)

// SuggestedTopic is one proposed video topic.
type SuggestedTopic struct {
	Title     string `json:"title" dynamodbav:"title"`
	Rationale string `json:"rationale" dynamodbav:"rationale"`
}

// AnalysisResult is the output of reference analysis.
type AnalysisResult struct {
	StructureSummary string           `json:"structureSummary"`
	Topics           []SuggestedTopic `json:"topics"`
}

var topicSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title": {
			Type:        genai.TypeString,
			Description: "Proposed video title",
		},
		"rationale": {
			Type:        genai.TypeString,
			Description: "Why this topic would perform and how it connects to the reference",
		},
	},
	Required: []string{"title", "rationale"},
}

var topicListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: topicSchema,
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"structureSummary": {
			Type:        genai.TypeString,
			Description: "Analysis of structure, tone, pacing, title pattern and audience",
		},
		"topics": topicListSchema,
	},
	Required: []string{"structureSummary", "topics"},
}

// Analyze derives a structure summary and five topics from one reference.
func (c *Client) Analyze(ctx context.Context, referenceText, requiredKeywords string) (*AnalysisResult, error) {
	const op = "Analyze"
	start := time.Now()
	prompt := assets.RenderAnalyzePrompt(referenceText, strings.TrimSpace(requiredKeywords))
	return c.analyze(ctx, op, prompt, start)
}

// AnalyzeMultiple extracts the patterns common to up to three references.
func (c *Client) AnalyzeMultiple(ctx context.Context, referenceTexts []string, requiredKeywords string) (*AnalysisResult, error) {
	const op = "AnalyzeMultiple"
	start := time.Now()
	if len(referenceTexts) == 0 || len(referenceTexts) > MaxReferences {
		return nil, newError(KindGenerationFailed, op, ErrReferenceCount)
	}
	prompt := assets.RenderAnalyzeMultiplePrompt(referenceTexts, strings.TrimSpace(requiredKeywords))
	return c.analyze(ctx, op, prompt, start)
}

func (c *Client) analyze(ctx context.Context, op, prompt string, start time.Time) (*AnalysisResult, error) {
	text, err := c.generate(ctx, op, prompt, analysisSchema)
	if err != nil {
		return nil, err
	}

	result, err := jsonutil.ParseJSON[AnalysisResult](text)
	if err != nil {
		log.Debug().Err(err).Str("response", jsonutil.Preview(text, 200)).Msg("Failed to parse analysis response")
		return nil, c.fail(op, KindResultMissing, err, start)
	}
	if strings.TrimSpace(result.StructureSummary) == "" {
		return nil, c.fail(op, KindResultMissing, errors.New("structure summary is empty"), start)
	}
	topics, err := checkTopics(result.Topics)
	if err != nil {
		return nil, c.fail(op, KindResultMissing, err, start)
	}
	result.Topics = topics

	c.succeed(op, start)
	log.Info().
		Str("op", op).
		Int("summary_length", len(result.StructureSummary)).
		Int("topic_count", len(result.Topics)).
		Msg("Reference analysis complete")
	return &result, nil
}

// RegenerateTopics proposes five fresh topics for an existing structure
// summary. The summary is sent verbatim and never re-derived.
func (c *Client) RegenerateTopics(ctx context.Context, structureSummary, referenceText, newKeywords string) ([]SuggestedTopic, error) {
	const op = "RegenerateTopics"
	start := time.Now()
	prompt := assets.RenderRegenerateTopicsPrompt(structureSummary, referenceText, strings.TrimSpace(newKeywords))

	text, err := c.generate(ctx, op, prompt, topicListSchema)
	if err != nil {
		return nil, err
	}
	raw, err := jsonutil.ParseJSON[[]SuggestedTopic](text)
	if err != nil {
		log.Debug().Err(err).Str("response", jsonutil.Preview(text, 200)).Msg("Failed to parse topic response")
		return nil, c.fail(op, KindResultMissing, err, start)
	}
	topics, err := checkTopics(raw)
	if err != nil {
		return nil, c.fail(op, KindResultMissing, err, start)
	}

	c.succeed(op, start)
	log.Info().Str("op", op).Int("topic_count", len(topics)).Msg("Topics regenerated")
	return topics, nil
}

// checkTopics enforces exactly TopicCount complete topics.
func checkTopics(topics []SuggestedTopic) ([]SuggestedTopic, error) {
	if len(topics) != TopicCount {
		return nil, fmt.Errorf("expected %d topics, got %d", TopicCount, len(topics))
	}
	out := make([]SuggestedTopic, len(topics))
	for i, t := range topics {
		t.Title = strings.TrimSpace(t.Title)
		t.Rationale = strings.TrimSpace(t.Rationale)
		if t.Title == "" || t.Rationale == "" {
			return nil, fmt.Errorf("topic %d is incomplete", i+1)
		}
		out[i] = t
	}
	return out, nil
}
