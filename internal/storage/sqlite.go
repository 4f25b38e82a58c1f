package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/arka/internal/models"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		source_dir TEXT,
		collection TEXT NOT NULL,
		documents INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		batches INTEGER NOT NULL,
		failed_batches INTEGER NOT NULL,
		stored_chunks INTEGER NOT NULL,
		collection_count INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON ingest_runs(started_at);

	CREATE TABLE IF NOT EXISTS ingest_sources (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		filename TEXT NOT NULL,
		checksum TEXT,
		pages INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES ingest_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS batch_failures (
		run_id TEXT NOT NULL,
		batch INTEGER NOT NULL,
		size INTEGER NOT NULL,
		stage TEXT NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, batch),
		FOREIGN KEY (run_id) REFERENCES ingest_runs(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordRun inserts a run with its sources and failed batches in one transaction.
func (s *SQLiteLedger) RecordRun(ctx context.Context, r *models.IngestReport) error {
	if r == nil || r.RunID == "" {
		return errors.New("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source_dir, collection, documents, pages, chunks, batches,
		 failed_batches, stored_chunks, collection_count, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SourceDir, r.Collection, r.Documents, r.Pages, r.Chunks, r.Batches,
		r.FailedBatches, r.StoredChunks, r.CollectionCount, r.StartedAt.UTC(), r.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(r.Sources) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ingest_sources (run_id, position, filename, checksum, pages, chunks)
			 VALUES (?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, src := range r.Sources {
			if _, err := stmt.ExecContext(ctx, r.RunID, i, src.Filename, src.Checksum, src.Pages, src.Chunks); err != nil {
				return fmt.Errorf("failed to insert source %s: %w", src.Filename, err)
			}
		}
	}

	for _, f := range r.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batch_failures (run_id, batch, size, stage, error) VALUES (?, ?, ?, ?, ?)`,
			r.RunID, f.Batch, f.Size, f.Stage, f.Error,
		); err != nil {
			return fmt.Errorf("failed to insert batch failure: %w", err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recently started run, or ErrNoRuns.
func (s *SQLiteLedger) LastRun(ctx context.Context) (*models.IngestReport, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs, newest first, with their sources and failures.
func (s *SQLiteLedger) ListRuns(ctx context.Context, limit int) ([]*models.IngestReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, collection, documents, pages, chunks, batches, failed_batches,
		 stored_chunks, collection_count, started_at, finished_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	var runs []*models.IngestReport
	for rows.Next() {
		var r models.IngestReport
		var sourceDir sql.NullString
		if err := rows.Scan(&r.RunID, &sourceDir, &r.Collection, &r.Documents, &r.Pages, &r.Chunks,
			&r.Batches, &r.FailedBatches, &r.StoredChunks, &r.CollectionCount, &r.StartedAt, &r.FinishedAt); err != nil {
			rows.Close()
			return nil, err
		}
		r.SourceDir = sourceDir.String
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, r := range runs {
		if r.Sources, err = s.sources(ctx, r.RunID); err != nil {
			return nil, err
		}
		if r.Failures, err = s.failures(ctx, r.RunID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteLedger) sources(ctx context.Context, runID string) ([]models.SourceSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, checksum, pages, chunks FROM ingest_sources WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SourceSummary
	for rows.Next() {
		var src models.SourceSummary
		var checksum sql.NullString
		if err := rows.Scan(&src.Filename, &checksum, &src.Pages, &src.Chunks); err != nil {
			return nil, err
		}
		src.Checksum = checksum.String
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *SQLiteLedger) failures(ctx context.Context, runID string) ([]models.BatchFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch, size, stage, error FROM batch_failures WHERE run_id = ? ORDER BY batch`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BatchFailure
	for rows.Next() {
		var f models.BatchFailure
		var msg sql.NullString
		if err := rows.Scan(&f.Batch, &f.Size, &f.Stage, &msg); err != nil {
			return nil, err
		}
		f.Error = msg.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountRuns returns the total number of recorded runs.
func (s *SQLiteLedger) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingest_runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
