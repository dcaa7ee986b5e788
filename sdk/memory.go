package toyvoice

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

// MemoryOwner scopes memory to a toy or an agent.
type MemoryOwner = store.MemoryOwner

const (
	MemoryOwnerToy   = store.MemoryOwnerToy
	MemoryOwnerAgent = store.MemoryOwnerAgent
)

type MemoryEntry = store.MemoryEntry
type MemoryMatch = store.MemoryMatch

type MemoryService struct {
	client *Client
}

type IngestParams struct {
	Owner   MemoryOwner `json:"owner"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Text    string      `json:"text"`
}

// IngestResult reports what the gateway stored: the text is chunked and each
// chunk becomes one entry.
type IngestResult struct {
	Chunks  int           `json:"chunks"`
	Entries []MemoryEntry `json:"entries"`
}

func (s *MemoryService) Ingest(ctx context.Context, params IngestParams) (IngestResult, error) {
	var result IngestResult
	err := s.client.do(ctx, http.MethodPost, "/v1/memory", params, &result)
	return result, err
}

type SearchParams struct {
	Owner   MemoryOwner `json:"owner"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Query   string      `json:"query"`
	Limit   int         `json:"limit,omitempty"`
}

func (s *MemoryService) Search(ctx context.Context, params SearchParams) ([]MemoryMatch, error) {
	var resp struct {
		Matches []MemoryMatch `json:"matches"`
	}
	err := s.client.do(ctx, http.MethodPost, "/v1/memory/search", params, &resp)
	return resp.Matches, err
}

func (s *MemoryService) List(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID) ([]MemoryEntry, error) {
	var resp struct {
		Entries []MemoryEntry `json:"entries"`
	}
	err := s.client.do(ctx, http.MethodGet, "/v1/memory?"+ownerQuery(owner, ownerID), nil, &resp)
	return resp.Entries, err
}

// Delete removes every entry for the owner and returns how many were deleted.
func (s *MemoryService) Delete(ctx context.Context, owner MemoryOwner, ownerID uuid.UUID) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	err := s.client.do(ctx, http.MethodDelete, "/v1/memory?"+ownerQuery(owner, ownerID), nil, &resp)
	return resp.Deleted, err
}

func ownerQuery(owner MemoryOwner, ownerID uuid.UUID) string {
	q := url.Values{}
	q.Set("owner", string(owner))
	q.Set("owner_id", ownerID.String())
	return q.Encode()
}
