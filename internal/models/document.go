// Package models defines core data structures for pages, chunks, stored records, and chat turns.
package models

import "strconv"

// Metadata keys stored with every record in the vector store.
const (
	MetaSourceDocument = "source_document"
	MetaPage           = "page"
)

// Page is the raw text of one page of a source document.
type Page struct {
	SourceDocument string `json:"source_document"`
	PageNumber     int    `json:"page"` // 1-based
	Text           string `json:"text"`
}

// ChunkMetadata is the provenance carried by every chunk.
type ChunkMetadata struct {
	SourceDocument string `json:"source_document"`
	Page           int    `json:"page"`
}

// Map returns the metadata in the string form expected by the vector store.
func (m ChunkMetadata) Map() map[string]string {
	return map[string]string{
		MetaSourceDocument: m.SourceDocument,
		MetaPage:           strconv.Itoa(m.Page),
	}
}

// MetadataFromMap parses store metadata back into ChunkMetadata.
// A missing or malformed page yields 0.
func MetadataFromMap(m map[string]string) ChunkMetadata {
	page, _ := strconv.Atoi(m[MetaPage])
	return ChunkMetadata{SourceDocument: m[MetaSourceDocument], Page: page}
}

// Chunk is a bounded span of normalized page text.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// StoredRecord is a single entry of a vector store collection.
type StoredRecord struct {
	ID        string            `json:"id"`
	Embedding []float32         `json:"-"`
	Document  string            `json:"document"`
	Metadata  map[string]string `json:"metadata"`
}

// Match is a stored record returned by a nearest-neighbor query.
type Match struct {
	ID         string            `json:"id"`
	Document   string            `json:"document"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float64           `json:"similarity"`
}
