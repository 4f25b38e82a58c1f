package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// MaxGeminiBatch is the largest number of texts the API accepts in one batch request.
const MaxGeminiBatch = 100

// GeminiOption configures a GeminiEmbedder.
type GeminiOption func(*GeminiEmbedder)

// WithRateLimit paces API requests to rps requests per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) GeminiOption {
	return func(e *GeminiEmbedder) {
		if rps <= 0 {
			e.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithGeminiLogger sets a logger for request-level debug output.
func WithGeminiLogger(l *zap.Logger) GeminiOption {
	return func(e *GeminiEmbedder) { e.logger = l }
}

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client     *genai.Client
	document   *genai.EmbeddingModel
	query      *genai.EmbeddingModel
	model      string
	dimensions int
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewGeminiEmbedder creates an embedder for model (e.g. "models/embedding-001").
// dimensions is informational; the API decides the vector size.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int, opts ...GeminiOption) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini embedder: empty API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	doc := client.EmbeddingModel(model)
	doc.TaskType = genai.TaskTypeRetrievalDocument
	query := client.EmbeddingModel(model)
	query.TaskType = genai.TaskTypeRetrievalQuery

	e := &GeminiEmbedder{
		client:     client,
		document:   doc,
		query:      query,
		model:      model,
		dimensions: dimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *GeminiEmbedder) modelFor(task TaskType) *genai.EmbeddingModel {
	if task == TaskQuery {
		return e.query
	}
	return e.document
}

func (e *GeminiEmbedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// Embed returns the embedding of a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := e.modelFor(task).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("embed content: empty embedding in response")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds texts in API batches of at most MaxGeminiBatch, preserving order.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	em := e.modelFor(task)
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxGeminiBatch {
		end := start + MaxGeminiBatch
		if end > len(texts) {
			end = len(texts)
		}
		if err := e.wait(ctx); err != nil {
			return nil, err
		}
		b := em.NewBatch()
		for _, t := range texts[start:end] {
			b.AddContent(genai.Text(t))
		}
		resp, err := em.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("batch embed contents: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("batch embed contents: got %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("batch embed contents: empty embedding at %d", start+i)
			}
			out = append(out, emb.Values)
		}
		if e.logger != nil {
			e.logger.Debug("gemini batch embedded",
				zap.String("model", e.model),
				zap.Stringer("task", task),
				zap.Int("size", end-start),
			)
		}
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases the API client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
