// Package storage keeps the ingestion ledger and disk usage helpers.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/arka/internal/models"
)

// ErrNoRuns is returned by LastRun when nothing has been ingested yet.
var ErrNoRuns = errors.New("no ingestion runs recorded")

// Ledger records ingestion runs and the source documents each run read.
type Ledger interface {
	RecordRun(ctx context.Context, report *models.IngestReport) error
	LastRun(ctx context.Context) (*models.IngestReport, error)
	ListRuns(ctx context.Context, limit int) ([]*models.IngestReport, error)
	CountRuns(ctx context.Context) (int64, error)
	Close() error
}
