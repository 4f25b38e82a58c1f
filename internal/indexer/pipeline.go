package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/arka/internal/embedding"
	"github.com/hyperjump/arka/internal/extract"
	"github.com/hyperjump/arka/internal/fileid"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/storage"
	"github.com/hyperjump/arka/internal/vector"
	"go.uber.org/zap"
)

// ErrNoDocuments is returned when the source yields no text to ingest.
var ErrNoDocuments = errors.New("no documents to ingest")

// DefaultBatchSize is the number of chunks embedded and stored per call.
const DefaultBatchSize = 100

// Batch failure stages.
const (
	StageEmbed = "embed"
	StageStore = "store"
)

// Pipeline runs extraction, normalization, chunking, embedding and storage.
type Pipeline struct {
	extractor  *extract.Extractor
	chunker    *Chunker
	embedder   embedding.Embedder
	store      vector.Store
	ledger     storage.Ledger // optional
	batchSize  int
	extensions []string
	rebuild    bool
	logger     *zap.Logger // optional
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a logger for per-batch and summary events.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithLedger records every run and its per-document counts in l.
func WithLedger(l storage.Ledger) PipelineOption {
	return func(p *Pipeline) { p.ledger = l }
}

// WithBatchSize sets the number of chunks per embedding call. Non-positive values are ignored.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithExtensions restricts which files in the source directory are read.
func WithExtensions(exts []string) PipelineOption {
	return func(p *Pipeline) { p.extensions = exts }
}

// WithRebuild resets the collection before new chunks are stored.
func WithRebuild(rebuild bool) PipelineOption {
	return func(p *Pipeline) { p.rebuild = rebuild }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) PipelineOption {
	return func(p *Pipeline) { p.extractor = e }
}

// NewPipeline creates an ingestion pipeline writing into store.
func NewPipeline(chunker *Chunker, embedder embedding.Embedder, store vector.Store, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = extract.NewExtractor(extract.WithLogger(p.logger))
	}
	return p
}

// Run ingests every supported document in dir. A missing or empty directory
// returns ErrNoDocuments together with an empty report.
func (p *Pipeline) Run(ctx context.Context, dir string) (*models.IngestReport, error) {
	started := time.Now()
	pages, err := p.extractor.ExtractDirectory(dir, p.extensions)
	if err != nil {
		if !errors.Is(err, extract.ErrSourceNotFound) {
			return nil, fmt.Errorf("extract documents: %w", err)
		}
		if p.logger != nil {
			p.logger.Warn("source directory not found", zap.String("dir", dir))
		}
		report := p.newReport(dir, started)
		report.FinishedAt = time.Now()
		return report, fmt.Errorf("%w: %w", ErrNoDocuments, err)
	}
	names := make([]string, 0, len(pages))
	for _, page := range pages {
		if len(names) == 0 || names[len(names)-1] != page.SourceDocument {
			names = append(names, page.SourceDocument)
		}
	}
	return p.ingest(ctx, pages, p.newReport(dir, started), fileid.Snapshot(dir, names))
}

// Ingest stores pre-extracted pages. It applies the same batching, failure
// isolation and ledger recording as Run.
func (p *Pipeline) Ingest(ctx context.Context, pages []models.Page) (*models.IngestReport, error) {
	return p.ingest(ctx, pages, p.newReport("", time.Now()), nil)
}

func (p *Pipeline) newReport(dir string, started time.Time) *models.IngestReport {
	return &models.IngestReport{
		RunID:      uuid.New().String(),
		SourceDir:  dir,
		Collection: p.store.Name(),
		StartedAt:  started,
	}
}

func (p *Pipeline) ingest(ctx context.Context, pages []models.Page, report *models.IngestReport, checksums map[string]string) (*models.IngestReport, error) {
	chunks, sources := p.chunkPages(pages)
	for i := range sources {
		sources[i].Checksum = checksums[sources[i].Filename]
	}
	report.Documents = len(sources)
	report.Pages = len(pages)
	report.Chunks = len(chunks)
	report.Sources = sources
	if len(chunks) == 0 {
		report.FinishedAt = time.Now()
		if p.logger != nil {
			p.logger.Warn("no text extracted", zap.Int("pages", len(pages)))
		}
		return report, ErrNoDocuments
	}

	if p.rebuild {
		if err := p.store.Reset(ctx); err != nil {
			return report, fmt.Errorf("reset collection: %w", err)
		}
		if p.logger != nil {
			p.logger.Info("collection reset", zap.String("collection", p.store.Name()))
		}
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		report.Batches++
		stored, failure := p.storeBatch(ctx, report.Batches, start, chunks[start:end])
		if failure != nil {
			report.FailedBatches++
			report.Failures = append(report.Failures, *failure)
			continue
		}
		report.StoredChunks += stored
	}

	report.CollectionCount = p.store.Count()
	report.FinishedAt = time.Now()

	if p.ledger != nil {
		if err := p.ledger.RecordRun(ctx, report); err != nil && p.logger != nil {
			p.logger.Warn("failed to record ingestion run", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}
	if p.logger != nil {
		p.logger.Info("ingestion finished",
			zap.String("run_id", report.RunID),
			zap.Int("documents", report.Documents),
			zap.Int("chunks", report.Chunks),
			zap.Int("batches", report.Batches),
			zap.Int("failed_batches", report.FailedBatches),
			zap.Int("collection_count", report.CollectionCount),
			zap.Duration("duration", report.Duration()),
		)
	}
	return report, nil
}

// chunkPages normalizes and chunks every page, returning per-document counts in
// first-seen order.
func (p *Pipeline) chunkPages(pages []models.Page) ([]models.Chunk, []models.SourceSummary) {
	var chunks []models.Chunk
	var sources []models.SourceSummary
	index := make(map[string]int)
	for _, page := range pages {
		i, ok := index[page.SourceDocument]
		if !ok {
			i = len(sources)
			index[page.SourceDocument] = i
			sources = append(sources, models.SourceSummary{Filename: page.SourceDocument})
		}
		page.Text = Normalize(page.Text)
		pageChunks := p.chunker.ChunkPage(page)
		sources[i].Pages++
		sources[i].Chunks += len(pageChunks)
		chunks = append(chunks, pageChunks...)
	}
	return chunks, sources
}

// storeBatch embeds and stores one batch. offset is the global index of the
// batch's first chunk and determines its record IDs.
func (p *Pipeline) storeBatch(ctx context.Context, batch, offset int, chunks []models.Chunk) (int, *models.BatchFailure) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	fail := func(stage string, err error) *models.BatchFailure {
		if p.logger != nil {
			p.logger.Error("batch failed",
				zap.Int("batch", batch),
				zap.String("stage", stage),
				zap.Int("size", len(chunks)),
				zap.Error(err),
			)
		}
		return &models.BatchFailure{Batch: batch, Size: len(chunks), Stage: stage, Error: err.Error()}
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts, embedding.TaskDocument)
	if err != nil {
		return 0, fail(StageEmbed, err)
	}
	if len(vectors) != len(texts) {
		return 0, fail(StageEmbed, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts)))
	}

	records := make([]models.StoredRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = models.StoredRecord{
			ID:        ChunkID(offset + i),
			Embedding: vectors[i],
			Document:  ch.Text,
			Metadata:  ch.Metadata.Map(),
		}
	}
	if err := p.store.Add(ctx, records); err != nil {
		return 0, fail(StageStore, err)
	}
	if p.logger != nil {
		p.logger.Debug("batch stored", zap.Int("batch", batch), zap.Int("size", len(records)))
	}
	return len(records), nil
}

// ChunkID returns the record ID of the n-th chunk of a run.
func ChunkID(n int) string {
	return fmt.Sprintf("chunk_%d", n)
}
