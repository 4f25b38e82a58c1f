// Package embedding provides text embedding backends (Gemini, ONNX, mock) and caching.
package embedding

import "context"

// TaskType selects how a text is embedded. Documents and queries use different
// modes so that stored passages and questions land in a comparable space.
type TaskType int

const (
	// TaskDocument embeds passages for storage.
	TaskDocument TaskType = iota
	// TaskQuery embeds user questions for retrieval.
	TaskQuery
)

func (t TaskType) String() string {
	switch t {
	case TaskDocument:
		return "document"
	case TaskQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error)
	Dimensions() int
	Close() error
}
