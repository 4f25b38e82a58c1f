// Package rag retrieves grounding context and turns it into answers.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/arka/internal/embedding"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/vector"
	"go.uber.org/zap"
)

// DefaultTopK is the number of chunks retrieved when no positive k is given.
const DefaultTopK = 5

var (
	// ErrEmbedQuery is returned when the query could not be embedded.
	ErrEmbedQuery = errors.New("embed query")
	// ErrStoreQuery is returned when the vector store query failed.
	ErrStoreQuery = errors.New("query vector store")
)

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for retrieval failures.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// WithDefaultTopK sets the k used when callers pass a non-positive value.
func WithDefaultTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// Retriever finds the stored chunks most similar to a query.
type Retriever struct {
	embedder embedding.Embedder
	store    vector.Store
	topK     int
	logger   *zap.Logger
}

// NewRetriever creates a retriever over store using embedder in query mode.
func NewRetriever(embedder embedding.Embedder, store vector.Store, opts ...RetrieverOption) *Retriever {
	r := &Retriever{embedder: embedder, store: store, topK: DefaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns at most topK matches in descending similarity.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.Match, error) {
	if topK <= 0 {
		topK = r.topK
	}
	q, err := r.embedder.Embed(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedQuery, err)
	}
	matches, err := r.store.Query(ctx, q, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreQuery, err)
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Retrieve returns the text of at most topK matching chunks. Failures are
// logged and yield an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) []string {
	matches, err := r.Search(ctx, query, topK)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("context retrieval failed", zap.Error(err))
		}
		return nil
	}
	docs := make([]string, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, m.Document)
	}
	if r.logger != nil {
		r.logger.Debug("context retrieved", zap.Int("top_k", topK), zap.Int("documents", len(docs)))
	}
	return docs
}
