package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/rag"
	"github.com/vango-go/toyvoice/pkg/store"
)

type fakeMemoryStore struct {
	added   []store.MemoryChunk
	owner   store.MemoryOwner
	ownerID uuid.UUID
	matches []store.MemoryMatch
	deleted int64
}

func (f *fakeMemoryStore) AddMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, chunks []store.MemoryChunk) ([]store.MemoryEntry, error) {
	f.owner, f.ownerID, f.added = owner, ownerID, chunks
	out := make([]store.MemoryEntry, len(chunks))
	for i, c := range chunks {
		out[i] = store.MemoryEntry{ID: uuid.New(), OwnerID: ownerID, Content: c.Content}
	}
	return out, nil
}

func (f *fakeMemoryStore) SearchMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, embedding []float32, limit int) ([]store.MemoryMatch, error) {
	return f.matches, nil
}

func (f *fakeMemoryStore) ListMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, limit int) ([]store.MemoryEntry, error) {
	return nil, nil
}

func (f *fakeMemoryStore) DeleteMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID) (int64, error) {
	return f.deleted, nil
}

type stubEmbedder struct{ dim int }

func (s stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func (s stubEmbedder) Dimension() int { return s.dim }

func memoryMux(ms MemoryStore, emb rag.Embedder) *http.ServeMux {
	h := MemoryHandler{Store: ms, Chunker: rag.NewChunker(1000, 200), Embedder: emb}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/memory", h.Ingest)
	mux.HandleFunc("POST /v1/memory/search", h.Search)
	mux.HandleFunc("GET /v1/memory", h.List)
	mux.HandleFunc("DELETE /v1/memory", h.Delete)
	return mux
}

func TestMemory_IngestChunksAndStores(t *testing.T) {
	ms := &fakeMemoryStore{}
	mux := memoryMux(ms, stubEmbedder{dim: 4})

	ownerID := uuid.New()
	body := `{"owner":"toy","owner_id":"` + ownerID.String() + `","text":"The kid loves dinosaurs. Especially the long-necked ones."}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/memory", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if ms.owner != store.MemoryOwnerToy || ms.ownerID != ownerID {
		t.Fatalf("stored owner = %s/%s", ms.owner, ms.ownerID)
	}
	if len(ms.added) == 0 {
		t.Fatalf("no chunks stored")
	}
	for _, c := range ms.added {
		if len(c.Embedding) != 4 {
			t.Fatalf("embedding dim = %d, want 4", len(c.Embedding))
		}
	}
}

func TestMemory_IngestWithoutEmbedderIs503(t *testing.T) {
	mux := memoryMux(&fakeMemoryStore{}, nil)

	body := `{"owner":"toy","owner_id":"` + uuid.NewString() + `","text":"hello"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/memory", strings.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rec.Code)
	}
}

func TestMemory_IngestRejectsUnknownOwner(t *testing.T) {
	mux := memoryMux(&fakeMemoryStore{}, stubEmbedder{dim: 4})

	body := `{"owner":"user","owner_id":"` + uuid.NewString() + `","text":"hello"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/memory", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestMemory_Search(t *testing.T) {
	ms := &fakeMemoryStore{
		matches: []store.MemoryMatch{
			{MemoryEntry: store.MemoryEntry{Content: "likes dinosaurs"}, Distance: 0.12},
		},
	}
	mux := memoryMux(ms, stubEmbedder{dim: 4})

	body := `{"owner":"toy","owner_id":"` + uuid.NewString() + `","query":"what does the kid like?","limit":3}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/memory/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		Matches []store.MemoryMatch `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].Content != "likes dinosaurs" {
		t.Fatalf("matches = %+v", resp.Matches)
	}
}

func TestMemory_DeleteReportsCount(t *testing.T) {
	ms := &fakeMemoryStore{deleted: 7}
	mux := memoryMux(ms, stubEmbedder{dim: 4})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/v1/memory?owner=toy&owner_id="+uuid.NewString(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Deleted != 7 {
		t.Fatalf("deleted=%d, want 7", resp.Deleted)
	}
}
