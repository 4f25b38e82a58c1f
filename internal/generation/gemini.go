package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiOption configures a GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithLogger sets a logger for request-level debug output.
func WithLogger(l *zap.Logger) GeminiOption {
	return func(g *GeminiGenerator) { g.logger = l }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GeminiOption {
	return func(g *GeminiGenerator) { g.model.SetTemperature(t) }
}

// WithMaxOutputTokens caps the length of the answer. Non-positive values keep the model default.
func WithMaxOutputTokens(n int32) GeminiOption {
	return func(g *GeminiGenerator) {
		if n > 0 {
			g.model.SetMaxOutputTokens(n)
		}
	}
}

// GeminiGenerator generates answers with a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *zap.Logger
}

// NewGeminiGenerator creates a generator for model (e.g. "models/gemini-2.5-flash").
func NewGeminiGenerator(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini generator: empty API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	g := &GeminiGenerator{
		client: client,
		model:  client.GenerativeModel(model),
		name:   model,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate sends prompt as a single user turn and returns the concatenated text parts
// of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := responseText(resp)
	if g.logger != nil {
		g.logger.Debug("gemini answer generated",
			zap.String("model", g.name),
			zap.Int("prompt_len", len(prompt)),
			zap.Int("answer_len", len(text)),
		)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Close releases the API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
