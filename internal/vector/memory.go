package vector

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/pkg/utils"
)

// MemoryStore is an in-memory Store using brute-force cosine search, optionally
// persisted as a snapshot file after every write.
type MemoryStore struct {
	name       string
	path       string
	dimensions int
	records    []models.StoredRecord
	byID       map[string]int
	mu         sync.RWMutex
}

// snapshot is the on-disk form of a MemoryStore.
type snapshot struct {
	Name       string
	Dimensions int
	Records    []snapshotRecord
}

type snapshotRecord struct {
	ID        string
	Embedding []float32
	Document  string
	Metadata  map[string]string
}

// NewMemoryStore creates a store named name. When path is non-empty an existing
// snapshot is loaded and every write is saved back to it.
func NewMemoryStore(name, path string) (*MemoryStore, error) {
	m := &MemoryStore{name: name, path: path, byID: make(map[string]int)}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// SnapshotExists reports whether a snapshot file exists at path.
func SnapshotExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Name returns the collection name.
func (m *MemoryStore) Name() string { return m.name }

// Add upserts records. All embeddings must share one dimension.
func (m *MemoryStore) Add(ctx context.Context, records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dims := m.dimensions
	for _, r := range records {
		if dims == 0 {
			dims = len(r.Embedding)
		}
		if len(r.Embedding) != dims {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(r.Embedding), dims)
		}
	}
	next := make([]models.StoredRecord, len(m.records), len(m.records)+len(records))
	copy(next, m.records)
	nextByID := make(map[string]int, len(m.byID)+len(records))
	for id, i := range m.byID {
		nextByID[id] = i
	}
	for _, r := range records {
		rec := models.StoredRecord{
			ID:        r.ID,
			Embedding: append([]float32(nil), r.Embedding...),
			Document:  r.Document,
			Metadata:  copyMetadata(r.Metadata),
		}
		if i, ok := nextByID[r.ID]; ok {
			next[i] = rec
			continue
		}
		nextByID[r.ID] = len(next)
		next = append(next, rec)
	}
	// Commit only once the snapshot holds the batch, so a failed write leaves the store unchanged.
	if err := m.writeSnapshot(dims, next); err != nil {
		return err
	}
	m.dimensions = dims
	m.records = next
	m.byID = nextByID
	return nil
}

// Query returns the top-k records by cosine similarity. Ties keep insertion order.
func (m *MemoryStore) Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.records) == 0 {
		return nil, nil
	}
	if len(embedding) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(embedding), m.dimensions)
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(m.records))
	for i, r := range m.records {
		scores[i] = scored{idx: i, score: utils.Cosine(embedding, r.Embedding)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	matches := make([]models.Match, k)
	for i := 0; i < k; i++ {
		r := m.records[scores[i].idx]
		matches[i] = models.Match{
			ID:         r.ID,
			Document:   r.Document,
			Metadata:   copyMetadata(r.Metadata),
			Similarity: scores[i].score,
		}
	}
	return matches, nil
}

// Count returns the number of records.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Reset removes all records and the snapshot file.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.byID = make(map[string]int)
	m.dimensions = 0
	if m.path == "" {
		return nil
	}
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Save writes the snapshot file. It is a no-op without a path.
func (m *MemoryStore) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

func (m *MemoryStore) saveLocked() error {
	return m.writeSnapshot(m.dimensions, m.records)
}

func (m *MemoryStore) writeSnapshot(dims int, records []models.StoredRecord) error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	snap := snapshot{Name: m.name, Dimensions: dims, Records: make([]snapshotRecord, len(records))}
	for i, r := range records {
		snap.Records[i] = snapshotRecord(r)
	}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load replaces the in-memory contents with the snapshot file.
// If the file does not exist, no error is returned and the store is unchanged.
func (m *MemoryStore) Load() error {
	if m.path == "" {
		return nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = snap.Dimensions
	m.records = make([]models.StoredRecord, len(snap.Records))
	m.byID = make(map[string]int, len(snap.Records))
	for i, r := range snap.Records {
		m.records[i] = models.StoredRecord(r)
		m.byID[r.ID] = i
	}
	return nil
}

// Close saves the snapshot.
func (m *MemoryStore) Close() error {
	return m.Save()
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
