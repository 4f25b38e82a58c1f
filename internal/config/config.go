// Package config provides configuration loading and structs for the Arka server and ingester.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvAPIKey     = "GEMINI_API_KEY"
	EnvSourceDir  = "ARKA_SOURCE_DIR"
	EnvVectorPath = "ARKA_VECTOR_PATH"
)

// ErrMissingAPIKey is returned by Validate when a Gemini backend is selected without a key.
var ErrMissingAPIKey = errors.New("missing API key: set " + EnvAPIKey)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	APIKey     string           `yaml:"api_key,omitempty"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Source     SourceConfig     `yaml:"source"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// StorageConfig holds the vector store and ledger locations.
type StorageConfig struct {
	VectorBackend string `yaml:"vector_backend"` // chromem or memory
	VectorPath    string `yaml:"vector_path"`
	Collection    string `yaml:"collection"`
	Compress      bool   `yaml:"compress"`
	LedgerPath    string `yaml:"ledger_path"`
}

// SourceConfig holds the source document directory settings.
type SourceConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // gemini, onnx or mock
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	CacheSize         int     `yaml:"cache_size"`
	ModelPath         string  `yaml:"model_path"`
	MaxTokens         int     `yaml:"max_tokens"`
}

// GenerationConfig holds answer generation settings.
type GenerationConfig struct {
	Provider        string  `yaml:"provider"` // gemini or mock
	Model           string  `yaml:"model"`
	Temperature     *float32 `yaml:"temperature"` // nil means DefaultTemperature; 0 is kept
	MaxOutputTokens int32    `yaml:"max_output_tokens"`
}

// SamplingTemperature returns the configured temperature, or DefaultTemperature when unset.
func (g GenerationConfig) SamplingTemperature() float32 {
	if g.Temperature == nil {
		return DefaultTemperature
	}
	return *g.Temperature
}

// RetrievalConfig holds chunking and retrieval settings.
type RetrievalConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap *int `yaml:"chunk_overlap"` // nil means DefaultChunkOverlap; 0 is kept
	TopK         int  `yaml:"top_k"`
}

// Overlap returns the configured chunk overlap, or DefaultChunkOverlap when unset.
func (r RetrievalConfig) Overlap() int {
	if r.ChunkOverlap == nil {
		return DefaultChunkOverlap
	}
	return *r.ChunkOverlap
}

// Load reads and parses the config file at path, applies environment overrides and
// defaults, and expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	expandPaths(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns the configuration used when no config file exists. Relative
// paths are resolved against the working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if wd, err := os.Getwd(); err == nil {
		expandPaths(cfg, wd)
	}
	return cfg
}

// ApplyEnv copies environment overrides into cfg. Empty variables are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvSourceDir); v != "" {
		cfg.Source.Directory = v
	}
	if v := os.Getenv(EnvVectorPath); v != "" {
		cfg.Storage.VectorPath = v
	}
}

// Validate checks settings that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("retrieval.chunk_size must be positive, got %d", c.Retrieval.ChunkSize)
	}
	if overlap := c.Retrieval.Overlap(); overlap < 0 || overlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap must be in [0, %d), got %d", c.Retrieval.ChunkSize, overlap)
	}
	switch c.Storage.VectorBackend {
	case "chromem", "memory":
	default:
		return fmt.Errorf("unknown storage.vector_backend %q (supported: chromem, memory)", c.Storage.VectorBackend)
	}
	switch c.Embedding.Provider {
	case "gemini", "onnx", "mock":
	default:
		return fmt.Errorf("unknown embedding.provider %q (supported: gemini, onnx, mock)", c.Embedding.Provider)
	}
	switch c.Generation.Provider {
	case "gemini", "mock":
	default:
		return fmt.Errorf("unknown generation.provider %q (supported: gemini, mock)", c.Generation.Provider)
	}
	if c.NeedsAPIKey() && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// NeedsAPIKey reports whether any configured backend calls the Gemini API.
func (c *Config) NeedsAPIKey() bool {
	return c.Embedding.Provider == "gemini" || c.Generation.Provider == "gemini"
}

func expandPaths(cfg *Config, baseDir string) {
	cfg.Storage.VectorPath = expandPath(cfg.Storage.VectorPath, baseDir)
	cfg.Storage.LedgerPath = expandPath(cfg.Storage.LedgerPath, baseDir)
	cfg.Source.Directory = expandPath(cfg.Source.Directory, baseDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, baseDir)
	}
	if cfg.Server.StaticDir != "" {
		cfg.Server.StaticDir = expandPath(cfg.Server.StaticDir, baseDir)
	}
}

// expandPath converts a path to absolute. Relative paths are resolved against baseDir;
// a leading "~/" is resolved against the home directory.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(baseDir, path)
}
