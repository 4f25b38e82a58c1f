package models

import "time"

// BatchFailure records a batch that was skipped during ingestion.
type BatchFailure struct {
	Batch int    `json:"batch"` // 1-based
	Size  int    `json:"size"`
	Stage string `json:"stage"` // "embed" or "store"
	Error string `json:"error"`
}

// SourceSummary is the provenance of one ingested source document.
type SourceSummary struct {
	Filename string `json:"filename"`
	Checksum string `json:"checksum,omitempty"` // sha256 of the file contents
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
}

// IngestReport summarizes a single ingestion run.
type IngestReport struct {
	RunID           string          `json:"run_id"`
	SourceDir       string          `json:"source_dir"`
	Collection      string          `json:"collection"`
	Documents       int             `json:"documents"`
	Pages           int             `json:"pages"`
	Chunks          int             `json:"chunks"`
	Batches         int             `json:"batches"`
	FailedBatches   int             `json:"failed_batches"`
	StoredChunks    int             `json:"stored_chunks"`
	CollectionCount int             `json:"collection_count"`
	Failures        []BatchFailure  `json:"failures,omitempty"`
	Sources         []SourceSummary `json:"sources,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
}

// Duration returns how long the run took.
func (r *IngestReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
