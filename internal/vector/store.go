// Package vector provides cosine vector stores for embedded chunks.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/arka/internal/models"
)

// ErrCollectionNotFound is returned when opening a collection that does not exist
// without permission to create it.
var ErrCollectionNotFound = errors.New("collection not found")

// Store persists embedded records and answers top-K cosine queries.
type Store interface {
	// Name returns the collection name.
	Name() string
	// Add inserts records in one call. Existing IDs are overwritten.
	Add(ctx context.Context, records []models.StoredRecord) error
	// Query returns at most k records ordered by descending similarity.
	Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error)
	// Count returns the number of records in the collection.
	Count() int
	// Reset removes every record from the collection.
	Reset(ctx context.Context) error
	Close() error
}

func validateRecords(records []models.StoredRecord) error {
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d: empty ID", i)
		}
		if len(r.Embedding) == 0 {
			return fmt.Errorf("record %s: empty embedding", r.ID)
		}
	}
	return nil
}
