// Package cli formats answers, status and ingestion reports for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a chat response.
func WriteAnswer(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintln(w, strings.TrimSpace(resp.Response))
	return err
}

// WriteIngestReport writes the summary of an ingestion run.
func WriteIngestReport(w io.Writer, r *models.IngestReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "run:               %s\n", r.RunID)
	fmt.Fprintf(w, "collection:        %s\n", r.Collection)
	fmt.Fprintf(w, "documents:         %d   # %d pages\n", r.Documents, r.Pages)
	fmt.Fprintf(w, "chunks:            %d   # %d stored\n", r.Chunks, r.StoredChunks)
	fmt.Fprintf(w, "batches:           %d   # %d failed\n", r.Batches, r.FailedBatches)
	fmt.Fprintf(w, "collection_count:  %d\n", r.CollectionCount)
	fmt.Fprintf(w, "duration:          %s\n", r.Duration().Round(time.Millisecond))
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  batch %d (%d chunks) failed at %s: %s\n", f.Batch, f.Size, f.Stage, utils.Truncate(f.Error, 200))
	}
	if len(r.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# sources")
		for _, s := range r.Sources {
			fmt.Fprintf(w, "%-40s pages=%d chunks=%d\n", s.Filename, s.Pages, s.Chunks)
		}
	}
	return nil
}

// WriteStatus writes collection and ingestion status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "collection:         %s\n", st.Collection)
	fmt.Fprintf(w, "ready:              %t   # collection exists\n", st.Ready)
	fmt.Fprintf(w, "chunks:             %d   # records in the vector store\n", st.Chunks)
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # vector store + ledger on disk\n", *st.DiskUsageBytes)
	}
	if st.LastRun != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# last ingestion")
		fmt.Fprintf(w, "run:                %s\n", st.LastRun.RunID)
		fmt.Fprintf(w, "finished_at:        %s\n", st.LastRun.FinishedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(w, "documents:          %d\n", st.LastRun.Documents)
		fmt.Fprintf(w, "chunks:             %d\n", st.LastRun.Chunks)
		fmt.Fprintf(w, "failed_batches:     %d\n", st.LastRun.FailedBatches)
	}
	if c := st.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "vector_backend:     %s\n", c.VectorBackend)
		if c.VectorPath != "" {
			fmt.Fprintf(w, "vector_path:        %s\n", c.VectorPath)
		}
		if c.LedgerPath != "" {
			fmt.Fprintf(w, "ledger_path:        %s\n", c.LedgerPath)
		}
		if c.SourceDir != "" {
			fmt.Fprintf(w, "source_dir:         %s\n", c.SourceDir)
		}
		fmt.Fprintf(w, "embedding:          %s %s\n", c.EmbeddingProvider, c.EmbeddingModel)
		fmt.Fprintf(w, "generation:         %s %s\n", c.GenerationProvider, c.GenerationModel)
		fmt.Fprintf(w, "chunk_size:         %d\n", c.ChunkSize)
		fmt.Fprintf(w, "chunk_overlap:      %d\n", c.ChunkOverlap)
		fmt.Fprintf(w, "top_k:              %d\n", c.TopK)
	}
	return nil
}
