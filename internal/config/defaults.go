package config

// Defaults for the Pelindo document corpus.
const (
	DefaultCollection      = "pelindo_docs"
	DefaultEmbeddingModel  = "models/embedding-001"
	DefaultGenerationModel = "models/gemini-2.5-flash"
	DefaultChunkSize       = 1500
	DefaultChunkOverlap    = 250
	DefaultTemperature     = 0.3
	DefaultTopK            = 5
	DefaultBatchSize       = 100
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Storage.VectorBackend == "" {
		cfg.Storage.VectorBackend = "chromem"
	}
	if cfg.Storage.VectorPath == "" {
		cfg.Storage.VectorPath = "db_chroma"
	}
	if cfg.Storage.Collection == "" {
		cfg.Storage.Collection = DefaultCollection
	}
	if cfg.Storage.LedgerPath == "" {
		cfg.Storage.LedgerPath = "data/ledger.db"
	}
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = "dokumen_sumber"
	}
	if cfg.Source.Extensions == nil {
		cfg.Source.Extensions = []string{".pdf"}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = DefaultBatchSize
	}
	if cfg.Embedding.RequestsPerSecond == 0 {
		cfg.Embedding.RequestsPerSecond = 2
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "gemini"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultGenerationModel
	}
	if cfg.Generation.Temperature == nil {
		t := float32(DefaultTemperature)
		cfg.Generation.Temperature = &t
	}
	if cfg.Generation.MaxOutputTokens == 0 {
		cfg.Generation.MaxOutputTokens = 8192
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = DefaultChunkSize
	}
	if cfg.Retrieval.ChunkOverlap == nil {
		overlap := DefaultChunkOverlap
		cfg.Retrieval.ChunkOverlap = &overlap
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
}
