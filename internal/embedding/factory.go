package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/arka/internal/config"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderONNX   = "onnx"
	ProviderMock   = "mock"
)

// New creates the embedder selected by cfg.Provider. When cfg.CacheSize is
// positive the result is wrapped in a CachedEmbedder.
func New(ctx context.Context, cfg config.EmbeddingConfig, apiKey string, logger *zap.Logger) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		e, err = NewGeminiEmbedder(ctx, apiKey, cfg.Model, cfg.Dimensions,
			WithRateLimit(cfg.RequestsPerSecond, 1),
			WithGeminiLogger(logger),
		)
	case ProviderONNX:
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: gemini, onnx, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.Provider, err)
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
