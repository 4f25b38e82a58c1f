// Package app wires configuration into the shared service handles.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/arka/internal/config"
	"github.com/hyperjump/arka/internal/embedding"
	"github.com/hyperjump/arka/internal/generation"
	"github.com/hyperjump/arka/internal/indexer"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/rag"
	"github.com/hyperjump/arka/internal/storage"
	"github.com/hyperjump/arka/internal/vector"
	"go.uber.org/zap"
)

// Options selects which parts of the graph Init builds.
type Options struct {
	// CreateCollection allows a missing collection to be created. Serving
	// requires an existing one.
	CreateCollection bool
	// SkipGeneration leaves Generator, Retriever and Chat nil.
	SkipGeneration bool
	// Rebuild makes the pipeline reset the collection before storing.
	Rebuild bool
}

// Components holds initialized services. Fields not requested by Options are nil.
type Components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Ledger    storage.Ledger
	Store     vector.Store
	Embedder  embedding.Embedder
	Generator generation.Generator
	Pipeline  *indexer.Pipeline
	Retriever *rag.Retriever
	Chat      *rag.ChatService
}

// Init validates cfg and builds the components. On failure everything created
// so far is closed.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Components{Config: cfg, Logger: logger}
	if err := c.init(ctx, opts); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Components) init(ctx context.Context, opts Options) error {
	cfg := c.Config
	if cfg.Storage.LedgerPath != "" {
		ledger, err := storage.NewSQLiteLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}
		c.Ledger = ledger
	}

	store, err := vector.Open(cfg.Storage, opts.CreateCollection)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	c.Store = store
	c.Logger.Info("vector store opened",
		zap.String("backend", cfg.Storage.VectorBackend),
		zap.String("collection", store.Name()),
		zap.Int("count", store.Count()),
	)

	embedder, err := embedding.New(ctx, cfg.Embedding, cfg.APIKey, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	pipeOpts := []indexer.PipelineOption{
		indexer.WithLogger(c.Logger),
		indexer.WithBatchSize(cfg.Embedding.BatchSize),
		indexer.WithExtensions(cfg.Source.Extensions),
		indexer.WithRebuild(opts.Rebuild),
	}
	if c.Ledger != nil {
		pipeOpts = append(pipeOpts, indexer.WithLedger(c.Ledger))
	}
	c.Pipeline = indexer.NewPipeline(
		indexer.NewChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.Overlap()),
		embedder, store, pipeOpts...,
	)

	if opts.SkipGeneration {
		return nil
	}
	generator, err := generation.New(ctx, cfg.Generation, cfg.APIKey, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}
	c.Generator = generator
	c.Retriever = rag.NewRetriever(embedder, store,
		rag.WithLogger(c.Logger),
		rag.WithDefaultTopK(cfg.Retrieval.TopK),
	)
	c.Chat = rag.NewChatService(c.Retriever, generator,
		rag.WithServiceLogger(c.Logger),
		rag.WithTopK(cfg.Retrieval.TopK),
	)
	return nil
}

// Status reports the collection, the last ingestion run and disk usage.
func (c *Components) Status(ctx context.Context) (*models.Status, error) {
	return BuildStatus(ctx, c.Config, c.Store, c.Ledger)
}

// BuildStatus assembles a status report. store and ledger may be nil.
func BuildStatus(ctx context.Context, cfg *config.Config, store vector.Store, ledger storage.Ledger) (*models.Status, error) {
	st := &models.Status{
		Collection: cfg.Storage.Collection,
		Config: &models.StatusConfig{
			VectorBackend:       cfg.Storage.VectorBackend,
			VectorPath:          cfg.Storage.VectorPath,
			LedgerPath:          cfg.Storage.LedgerPath,
			SourceDir:           cfg.Source.Directory,
			EmbeddingProvider:   cfg.Embedding.Provider,
			EmbeddingModel:      cfg.Embedding.Model,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			GenerationProvider:  cfg.Generation.Provider,
			GenerationModel:     cfg.Generation.Model,
			ChunkSize:           cfg.Retrieval.ChunkSize,
			ChunkOverlap:        cfg.Retrieval.Overlap(),
			TopK:                cfg.Retrieval.TopK,
		},
	}
	if store != nil {
		st.Ready = true
		st.Collection = store.Name()
		st.Chunks = store.Count()
	}
	if ledger != nil {
		last, err := ledger.LastRun(ctx)
		switch {
		case err == nil:
			st.LastRun = last
		case !errors.Is(err, storage.ErrNoRuns):
			return nil, fmt.Errorf("read last ingestion run: %w", err)
		}
	}
	paths := append([]string{cfg.Storage.VectorPath}, storage.LedgerFiles(cfg.Storage.LedgerPath)...)
	if n, err := storage.DiskUsageBytes(paths...); err == nil {
		st.DiskUsageBytes = &n
	}
	return st, nil
}

// OpenStatus opens only the collection and ledger, without embedder or
// generator, and reports their status. A missing collection is not an error.
func OpenStatus(ctx context.Context, cfg *config.Config) (*models.Status, error) {
	var store vector.Store
	s, err := vector.Open(cfg.Storage, false)
	switch {
	case err == nil:
		store = s
		defer s.Close()
	case !errors.Is(err, vector.ErrCollectionNotFound):
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	var ledger storage.Ledger
	if cfg.Storage.LedgerPath != "" {
		l, err := storage.NewSQLiteLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		defer l.Close()
		ledger = l
	}
	return BuildStatus(ctx, cfg, store, ledger)
}

// Close releases every initialized component.
func (c *Components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.Warn("failed to close vector store", zap.Error(err))
		}
	}
	if c.Ledger != nil {
		_ = c.Ledger.Close()
	}
}
