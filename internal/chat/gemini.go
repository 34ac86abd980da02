package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// ClientCache holds one genai client per API key. Saving a new key in the
// credential store therefore takes effect on the next call.
type ClientCache struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewClientCache returns an empty cache.
func NewClientCache() *ClientCache {
	return &ClientCache{clients: make(map[string]*genai.Client)}
}

// Get returns the cached client for apiKey, creating it on first use.
func (c *ClientCache) Get(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}
	client, err := NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	c.clients[apiKey] = client
	log.Debug().Int("cached_clients", len(c.clients)).Msg("Gemini client initialized")
	return client, nil
}

// GeminiTextModel sends text requests to the Gemini API.
type GeminiTextModel struct {
	cache *ClientCache
}

// NewGeminiTextModel returns a TextModel backed by cache.
func NewGeminiTextModel(cache *ClientCache) *GeminiTextModel {
	if cache == nil {
		cache = NewClientCache()
	}
	return &GeminiTextModel{cache: cache}
}

// GenerateText performs one GenerateContent round trip.
func (g *GeminiTextModel) GenerateText(ctx context.Context, apiKey string, req TextRequest) (string, error) {
	client, err := g.cache.Get(ctx, apiKey)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.Schema
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
