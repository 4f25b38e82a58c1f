package vector

import (
	"fmt"
	"path/filepath"

	"github.com/hyperjump/arka/internal/config"
)

// Backend represents the type of vector store to use.
type Backend string

const (
	// BackendChromem uses a chromem-go persistent collection.
	BackendChromem Backend = "chromem"
	// BackendMemory uses brute-force search with a snapshot file. Good for small corpora and tests.
	BackendMemory Backend = "memory"
)

// Open opens the collection configured in cfg. When create is false a missing
// collection returns ErrCollectionNotFound, which the server uses to refuse to
// start before anything has been ingested.
func Open(cfg config.StorageConfig, create bool) (Store, error) {
	switch Backend(cfg.VectorBackend) {
	case BackendChromem, "":
		s, err := OpenChromem(cfg.VectorPath, cfg.Collection, cfg.Compress, create)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		path := SnapshotPath(cfg)
		if !create && (path == "" || !SnapshotExists(path)) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, cfg.Collection)
		}
		s, err := NewMemoryStore(cfg.Collection, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s (supported: chromem, memory)", cfg.VectorBackend)
	}
}

// SnapshotPath returns the snapshot file used by the memory backend, or "" when
// no vector path is configured.
func SnapshotPath(cfg config.StorageConfig) string {
	if cfg.VectorPath == "" {
		return ""
	}
	return filepath.Join(cfg.VectorPath, cfg.Collection+".gob")
}
