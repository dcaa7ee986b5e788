package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/rag"
	"github.com/vango-go/toyvoice/pkg/store"
)

type MemoryStore interface {
	AddMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, chunks []store.MemoryChunk) ([]store.MemoryEntry, error)
	SearchMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, embedding []float32, limit int) ([]store.MemoryMatch, error)
	ListMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, limit int) ([]store.MemoryEntry, error)
	DeleteMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID) (int64, error)
}

// MemoryHandler ingests text into vector memory and serves recall queries.
type MemoryHandler struct {
	Store    MemoryStore
	Chunker  *rag.Chunker
	Embedder rag.Embedder // nil disables ingestion and search
	Logger   *slog.Logger
}

func memoryOwner(raw string) (store.MemoryOwner, error) {
	switch store.MemoryOwner(raw) {
	case store.MemoryOwnerToy, store.MemoryOwnerAgent:
		return store.MemoryOwner(raw), nil
	default:
		return "", apierror.InvalidRequest("owner must be toy or agent", "owner")
	}
}

type ingestRequest struct {
	Owner   string    `json:"owner"`
	OwnerID uuid.UUID `json:"owner_id"`
	Text    string    `json:"text"`
}

// Ingest chunks the text, embeds every chunk, and stores the result.
func (h MemoryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.Embedder == nil {
		respondError(w, r, apierror.Unavailable("no embedder configured"))
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	owner, err := memoryOwner(req.Owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.OwnerID == uuid.Nil {
		respondError(w, r, apierror.InvalidRequest("owner_id is required", "owner_id"))
		return
	}
	if req.Text == "" {
		respondError(w, r, apierror.InvalidRequest("text is required", "text"))
		return
	}

	chunks := h.Chunker.Split(req.Text)
	if len(chunks) == 0 {
		respondError(w, r, apierror.InvalidRequest("text contains nothing to store", "text"))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := h.Embedder.EmbedTexts(r.Context(), texts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(vecs) != len(chunks) {
		respondError(w, r, apierror.Unavailable("embedding count mismatch"))
		return
	}

	memChunks := make([]store.MemoryChunk, len(chunks))
	for i, c := range chunks {
		memChunks[i] = store.MemoryChunk{Content: c.Text, Embedding: vecs[i]}
	}

	entries, err := h.Store.AddMemory(r.Context(), owner, req.OwnerID, memChunks)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"chunks":  len(entries),
		"entries": entries,
	})
}

type searchRequest struct {
	Owner   string    `json:"owner"`
	OwnerID uuid.UUID `json:"owner_id"`
	Query   string    `json:"query"`
	Limit   int       `json:"limit"`
}

func (h MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Embedder == nil {
		respondError(w, r, apierror.Unavailable("no embedder configured"))
		return
	}
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	owner, err := memoryOwner(req.Owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Query == "" {
		respondError(w, r, apierror.InvalidRequest("query is required", "query"))
		return
	}

	vecs, err := h.Embedder.EmbedTexts(r.Context(), []string{req.Query})
	if err != nil {
		respondError(w, r, err)
		return
	}
	matches, err := h.Store.SearchMemory(r.Context(), owner, req.OwnerID, vecs[0], req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (h MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := memoryOwner(r.URL.Query().Get("owner"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		respondError(w, r, apierror.InvalidRequest("invalid owner_id", "owner_id"))
		return
	}

	entries, err := h.Store.ListMemory(r.Context(), owner, ownerID, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := memoryOwner(r.URL.Query().Get("owner"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ownerID, err := uuid.Parse(r.URL.Query().Get("owner_id"))
	if err != nil {
		respondError(w, r, apierror.InvalidRequest("invalid owner_id", "owner_id"))
		return
	}

	deleted, err := h.Store.DeleteMemory(r.Context(), owner, ownerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
