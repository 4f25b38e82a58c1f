// Package indexer turns source documents into embedded, stored chunks.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/arka/internal/models"
)

// DefaultSeparators are tried in order; "" falls back to single characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

const defaultChunkSize = 1500

// Chunker splits text recursively on separators into chunks of at most chunkSize
// runes, with consecutive chunks sharing at most chunkOverlap runes.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker creates a chunker with the given size and overlap (in runes).
// A non-positive size falls back to 1500; overlap is clamped into [0, size).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// ChunkSize returns the maximum chunk length in runes.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the maximum overlap between consecutive chunks in runes.
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split splits text into trimmed, non-empty chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, c.separators)
}

// ChunkPage splits the page text and tags every chunk with the page's provenance.
func (c *Chunker) ChunkPage(page models.Page) []models.Chunk {
	texts := c.Split(page.Text)
	if len(texts) == 0 {
		return nil
	}
	meta := models.ChunkMetadata{SourceDocument: page.SourceDocument, Page: page.PageNumber}
	chunks := make([]models.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.Chunk{Text: t, Metadata: meta}
	}
	return chunks
}

func (c *Chunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < c.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, c.merge(pending)...)
			pending = nil
		}
		if len(next) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				chunks = append(chunks, t)
			}
			continue
		}
		chunks = append(chunks, c.split(piece, next)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, c.merge(pending)...)
	}
	return chunks
}

// merge greedily packs pieces into chunks, carrying a tail of at most chunkOverlap
// runes from each emitted chunk into the next.
func (c *Chunker) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		lengths []int
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > c.chunkSize && len(current) > 0 {
			if doc := joinTrimmed(current); doc != "" {
				chunks = append(chunks, doc)
			}
			for total > c.chunkOverlap || (total+n > c.chunkSize && total > 0) {
				total -= lengths[0]
				current = current[1:]
				lengths = lengths[1:]
			}
		}
		current = append(current, piece)
		lengths = append(lengths, n)
		total += n
	}
	if doc := joinTrimmed(current); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

// splitKeepingSeparator splits text on sep, keeping sep at the start of each following piece.
// Empty pieces are dropped. An empty sep splits into single characters.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, sep+p)
	}
	return pieces
}

func joinTrimmed(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}
