package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/arka/internal/models"
	"github.com/philippgille/chromem-go"
)

// cosineMetadata marks a collection as using cosine distance.
var cosineMetadata = map[string]string{"hnsw:space": "cosine"}

// errNoEmbeddingFunc is returned if chromem ever tries to embed text itself;
// every record and query arrives with a precomputed embedding.
var errNoEmbeddingFunc = errors.New("chromem embedding function disabled: embeddings are computed by the caller")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// ChromemStore is a Store backed by a chromem-go collection.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	mu         sync.RWMutex // guards collection across Reset
}

// OpenChromem opens collection name in the chromem database at path. An empty path
// opens a non-persistent database. When create is false a missing collection
// returns ErrCollectionNotFound.
func OpenChromem(path, name string, compress, create bool) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem database: %w", err)
		}
	}

	var col *chromem.Collection
	if create {
		col, err = db.GetOrCreateCollection(name, cosineMetadata, noEmbedding)
		if err != nil {
			return nil, fmt.Errorf("get or create collection %q: %w", name, err)
		}
	} else {
		col = db.GetCollection(name, noEmbedding)
		if col == nil {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
	}
	return &ChromemStore{db: db, collection: col, name: name}, nil
}

// Name returns the collection name.
func (s *ChromemStore) Name() string { return s.name }

func (s *ChromemStore) current() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

// Add inserts records with their precomputed embeddings.
func (s *ChromemStore) Add(ctx context.Context, records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}
	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Embedding
		metadatas[i] = r.Metadata
		contents[i] = r.Document
	}
	if err := s.current().Add(ctx, ids, embeddings, metadatas, contents); err != nil {
		return fmt.Errorf("add to collection %q: %w", s.name, err)
	}
	return nil
}

// Query returns up to k nearest records. k is clamped to the collection size.
func (s *ChromemStore) Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	col := s.current()
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", s.name, err)
	}
	matches := make([]models.Match, len(results))
	for i, r := range results {
		matches[i] = models.Match{
			ID:         r.ID,
			Document:   r.Content,
			Metadata:   r.Metadata,
			Similarity: float64(r.Similarity),
		}
	}
	return matches, nil
}

// Count returns the number of records in the collection.
func (s *ChromemStore) Count() int {
	return s.current().Count()
}

// Reset deletes and recreates the collection.
func (s *ChromemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection %q: %w", s.name, err)
	}
	col, err := s.db.CreateCollection(s.name, cosineMetadata, noEmbedding)
	if err != nil {
		return fmt.Errorf("recreate collection %q: %w", s.name, err)
	}
	s.collection = col
	return nil
}

// Close is a no-op; the persistent database writes through on every Add.
func (s *ChromemStore) Close() error {
	return nil
}
