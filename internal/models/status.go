package models

// StatusConfig summarizes the settings a running instance was started with.
type StatusConfig struct {
	VectorBackend       string `json:"vector_backend"`
	VectorPath          string `json:"vector_path,omitempty"`
	LedgerPath          string `json:"ledger_path,omitempty"`
	SourceDir           string `json:"source_dir,omitempty"`
	EmbeddingProvider   string `json:"embedding_provider"`
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	GenerationProvider  string `json:"generation_provider"`
	GenerationModel     string `json:"generation_model,omitempty"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	TopK                int    `json:"top_k"`
}

// Status is the shape of GET /api/v1/status and the status command.
type Status struct {
	Collection     string        `json:"collection"`
	Ready          bool          `json:"ready"` // collection exists
	Chunks         int           `json:"chunks"`
	LastRun        *IngestReport `json:"last_run,omitempty"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *StatusConfig `json:"config,omitempty"`
}
