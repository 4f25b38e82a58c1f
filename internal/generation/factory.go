package generation

import (
	"context"
	"fmt"

	"github.com/hyperjump/arka/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// New creates the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.GenerationConfig, apiKey string, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		g, err := NewGeminiGenerator(ctx, apiKey, cfg.Model,
			WithTemperature(cfg.SamplingTemperature()),
			WithMaxOutputTokens(cfg.MaxOutputTokens),
			WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}
		return g, nil
	case ProviderMock:
		return NewMockGenerator(""), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s (supported: gemini, mock)", cfg.Provider)
	}
}
