package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/arka/internal/embedding"
	"github.com/hyperjump/arka/internal/generation"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{ *embedding.MockEmbedder }

func (failingEmbedder) Embed(context.Context, string, embedding.TaskType) ([]float32, error) {
	return nil, errors.New("network down")
}

type failingStore struct{ vector.Store }

func (failingStore) Query(context.Context, []float32, int) ([]models.Match, error) {
	return nil, errors.New("collection corrupted")
}

type staticRetriever struct {
	docs  []string
	calls int
	topK  int
}

func (r *staticRetriever) Retrieve(_ context.Context, _ string, topK int) []string {
	r.calls++
	r.topK = topK
	return r.docs
}

func seededStore(t *testing.T, emb embedding.Embedder, docs ...string) vector.Store {
	t.Helper()
	s, err := vector.NewMemoryStore("pelindo_docs", "")
	require.NoError(t, err)
	vecs, err := emb.EmbedBatch(context.Background(), docs, embedding.TaskDocument)
	require.NoError(t, err)
	records := make([]models.StoredRecord, len(docs))
	for i, d := range docs {
		records[i] = models.StoredRecord{
			ID:        "chunk_" + string(rune('a'+i)),
			Embedding: vecs[i],
			Document:  d,
			Metadata:  models.ChunkMetadata{SourceDocument: "doc.pdf", Page: i + 1}.Map(),
		}
	}
	require.NoError(t, s.Add(context.Background(), records))
	return s
}

func TestRetriever_SearchRanksExactMatchFirst(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	store := seededStore(t, emb, "tarif dermaga", "jam operasional terminal 24 jam", "prosedur bongkar muat")
	r := NewRetriever(emb, store)

	matches, err := r.Search(context.Background(), "jam operasional terminal 24 jam", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "jam operasional terminal 24 jam", matches[0].Document)
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
}

func TestRetriever_TopKBounds(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	docs := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	r := NewRetriever(emb, seededStore(t, emb, docs...))

	assert.Len(t, r.Retrieve(context.Background(), "a1", 3), 3)
	assert.Len(t, r.Retrieve(context.Background(), "a1", 0), DefaultTopK, "non-positive k uses default")
	assert.Len(t, r.Retrieve(context.Background(), "a1", 50), len(docs), "k larger than the collection")

	r = NewRetriever(emb, seededStore(t, emb, docs...), WithDefaultTopK(2))
	assert.Len(t, r.Retrieve(context.Background(), "a1", -1), 2)
}

func TestRetriever_EmptyCollection(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	s, err := vector.NewMemoryStore("empty", "")
	require.NoError(t, err)
	assert.Empty(t, NewRetriever(emb, s).Retrieve(context.Background(), "apa saja", 5))
}

func TestRetriever_ClassifiedErrors(t *testing.T) {
	emb := embedding.NewMockEmbedder(16)
	store := seededStore(t, emb, "x")

	_, err := NewRetriever(failingEmbedder{emb}, store).Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrEmbedQuery)
	assert.Contains(t, err.Error(), "network down")

	_, err = NewRetriever(emb, failingStore{store}).Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrStoreQuery)

	assert.Empty(t, NewRetriever(failingEmbedder{emb}, store).Retrieve(context.Background(), "q", 5), "fail-soft")
	assert.Empty(t, NewRetriever(emb, failingStore{store}).Retrieve(context.Background(), "q", 5), "fail-soft")
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("A\n\nB", "Berapa tarif?")
	assert.True(t, strings.HasPrefix(p, SystemPrompt))
	assert.Contains(t, p, "KONTEKS YANG DIAMBIL:\nA\n\nB\n\nPERTANYAAN PENGGUNA:\nBerapa tarif?\n\nJAWABAN ARKA:")
	assert.Less(t, strings.Index(p, ContextHeading), strings.Index(p, QuestionHeading))
	assert.Less(t, strings.Index(p, QuestionHeading), strings.Index(p, AnswerCue))
	assert.Contains(t, SystemPrompt, "Jawab HANYA berdasarkan KONTEKS YANG DIBERIKAN")
	assert.Equal(t, "A\n\nB", JoinContext([]string{"A", "B"}))
}

func TestChatService_NoContextSkipsGenerator(t *testing.T) {
	gen := generation.NewMockGenerator("should not be used")
	r := &staticRetriever{}
	svc := NewChatService(r, gen)

	turn, err := svc.Answer(context.Background(), "Siapa presiden Mars?")
	require.NoError(t, err)
	assert.Equal(t, NoInformationMessage, turn.GeneratedAnswer)
	assert.False(t, turn.Grounded)
	assert.Empty(t, gen.Prompts())
	assert.Equal(t, DefaultTopK, r.topK)
}

func TestChatService_GroundedAnswer(t *testing.T) {
	gen := generation.NewMockGenerator("Terminal beroperasi 24 jam.")
	r := &staticRetriever{docs: []string{"Jam operasional terminal adalah 24 jam.", "Tarif dermaga berlaku 2025."}}
	svc := NewChatService(r, gen, WithTopK(3))

	turn, err := svc.Answer(context.Background(), "Jam operasional terminal?")
	require.NoError(t, err)
	assert.Equal(t, "Terminal beroperasi 24 jam.", turn.GeneratedAnswer)
	assert.True(t, turn.Grounded)
	assert.Equal(t, r.docs, turn.RetrievedChunks)
	assert.Equal(t, 3, r.topK)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, BuildPrompt("Jam operasional terminal adalah 24 jam.\n\nTarif dermaga berlaku 2025.", "Jam operasional terminal?"), prompts[0])
}

func TestChatService_GenerationFailureIsGeneric(t *testing.T) {
	gen := generation.NewMockGenerator("")
	gen.Err = errors.New("upstream 429: resource exhausted")
	svc := NewChatService(&staticRetriever{docs: []string{"ctx"}}, gen)

	turn, err := svc.Answer(context.Background(), "q")
	assert.Nil(t, turn)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.NotContains(t, err.Error(), "429")
}
