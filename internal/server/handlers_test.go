package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/arka/internal/config"
	"github.com/hyperjump/arka/internal/embedding"
	"github.com/hyperjump/arka/internal/generation"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/rag"
	"github.com/hyperjump/arka/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantEmbedder maps every text to the same vector, so any stored chunk
// matches any query.
type constantEmbedder struct{ calls int }

func (e *constantEmbedder) Embed(context.Context, string, embedding.TaskType) ([]float32, error) {
	e.calls++
	return []float32{1, 0, 0}, nil
}

func (e *constantEmbedder) EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = e.Embed(ctx, texts[i], task)
	}
	return out, nil
}

func (e *constantEmbedder) Dimensions() int { return 3 }
func (e *constantEmbedder) Close() error    { return nil }

type stubStatus struct {
	st  *models.Status
	err error
}

func (s stubStatus) Status(context.Context) (*models.Status, error) { return s.st, s.err }

type fixture struct {
	handler   http.Handler
	embedder  *constantEmbedder
	generator *generation.MockGenerator
}

func newFixture(t *testing.T, chunks ...models.StoredRecord) *fixture {
	t.Helper()
	store, err := vector.NewMemoryStore("pelindo_docs", "")
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), chunks))
	emb := &constantEmbedder{}
	gen := generation.NewMockGenerator("Pelindo menyediakan layanan bongkar muat peti kemas.")
	chat := rag.NewChatService(rag.NewRetriever(emb, store), gen)
	srv := NewServer(chat, nil, &config.ServerConfig{}, nil)
	return &fixture{handler: srv.Handler(), embedder: emb, generator: gen}
}

func (f *fixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

const layananChunk = "Pelindo menyediakan layanan bongkar muat peti kemas di pelabuhan utama."

func TestChat_GroundedAnswer(t *testing.T) {
	f := newFixture(t, models.StoredRecord{
		ID:        "chunk_0",
		Embedding: []float32{1, 0, 0},
		Document:  layananChunk,
		Metadata:  models.ChunkMetadata{SourceDocument: "layanan.pdf", Page: 1}.Map(),
	})

	w := f.post(t, `{"message": "Apa layanan Pelindo?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "Pelindo menyediakan layanan bongkar muat peti kemas.", decode(t, w)["response"])

	prompts := f.generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], rag.ContextHeading+"\n"+layananChunk)
	assert.Contains(t, prompts[0], rag.QuestionHeading+"\nApa layanan Pelindo?")
}

func TestChat_EmptyStoreReturnsNoInformation(t *testing.T) {
	f := newFixture(t)

	w := f.post(t, `{"message": "Siapa presiden Mars?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response": "Maaf, saya tidak dapat menemukan informasi yang relevan untuk pertanyaan Anda."}`, w.Body.String())
	assert.Empty(t, f.generator.Prompts())
}

func TestChat_BadRequests(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{}`, `{"message": ""}`, `{"message": "   "}`, `not json`, ``} {
		w := f.post(t, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, MsgEmptyMessage, decode(t, w)["error"], "body %q", body)
	}
	assert.Zero(t, f.embedder.calls, "no collaborator calls on bad requests")
	assert.Empty(t, f.generator.Prompts())
}

func TestChat_GenerationFailure(t *testing.T) {
	f := newFixture(t, models.StoredRecord{ID: "chunk_0", Embedding: []float32{1, 0, 0}, Document: "ctx"})
	f.generator.Err = errors.New("upstream 500: internal")

	w := f.post(t, `{"message": "Tarif?"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgGeneration, decode(t, w)["error"])
}

func TestChat_NotInitialized(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	r := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"halo"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, MsgNotInitialized, decode(t, w)["error"])
}

func TestHealthAndPreflight(t *testing.T) {
	h := NewServer(nil, nil, nil, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestStatus(t *testing.T) {
	st := &models.Status{Collection: "pelindo_docs", Ready: true, Chunks: 250}
	h := NewServer(nil, stubStatus{st: st}, nil, nil).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, *st, got)

	h = NewServer(nil, stubStatus{err: errors.New("read last ingestion run: /srv/arka/data/ledger.db: database is locked")}, nil, nil).Handler()
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "ledger.db", "internal detail must stay in the logs")
	assert.NotContains(t, body, "database is locked")
	assert.JSONEq(t, `{"error": "`+MsgStatus+`"}`, body)
}

func TestStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Arka</h1>"), 0644))
	h := NewServer(nil, nil, &config.ServerConfig{StaticDir: dir}, nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Arka</h1>")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "API routes take precedence over static files")
}
