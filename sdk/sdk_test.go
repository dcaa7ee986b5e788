package toyvoice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/store"
)

func TestToysService_CreateAndGet(t *testing.T) {
	toyID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/toys", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tv_sk_test" {
			t.Errorf("Authorization=%q", got)
		}
		var req ToyParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Name != "Bunny" {
			t.Errorf("name=%q", req.Name)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(store.Toy{ID: toyID, Name: req.Name, IsActive: true})
	})
	mux.HandleFunc("GET /v1/toys/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(store.Toy{ID: toyID, Name: "Bunny", IsActive: true})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewClient(ts.URL, WithAPIKey("tv_sk_test"))

	created, err := client.Toys.Create(context.Background(), ToyParams{Name: "Bunny"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != toyID || created.Name != "Bunny" {
		t.Fatalf("created=%+v", created)
	}

	got, err := client.Toys.Get(context.Background(), toyID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != toyID {
		t.Fatalf("got=%+v", got)
	}
}

func TestClient_DecodesErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"not_found_error","message":"toy not found","request_id":"req_abc"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.Toys.Get(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Type != "not_found_error" {
		t.Fatalf("apiErr=%+v", apiErr)
	}
	if apiErr.RequestID != "req_abc" {
		t.Fatalf("request id=%q", apiErr.RequestID)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound=false")
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.Toys.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Fatalf("apiErr=%+v", apiErr)
	}
}

func TestClient_TransportError(t *testing.T) {
	// Port 1 refuses connections.
	client := NewClient("http://127.0.0.1:1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Toys.List(ctx)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
}

func TestMemoryService_RoundTrips(t *testing.T) {
	ownerID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/memory", func(w http.ResponseWriter, r *http.Request) {
		var req IngestParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode ingest: %v", err)
		}
		if req.Owner != MemoryOwnerToy || req.OwnerID != ownerID {
			t.Errorf("req=%+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"chunks":  2,
			"entries": []store.MemoryEntry{{ID: uuid.New(), OwnerID: ownerID, Content: "a"}, {ID: uuid.New(), OwnerID: ownerID, Content: "b"}},
		})
	})
	mux.HandleFunc("POST /v1/memory/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []store.MemoryMatch{{MemoryEntry: store.MemoryEntry{OwnerID: ownerID, Content: "a"}, Distance: 0.12}},
		})
	})
	mux.HandleFunc("DELETE /v1/memory", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("owner"); got != "toy" {
			t.Errorf("owner=%q", got)
		}
		if got := r.URL.Query().Get("owner_id"); got != ownerID.String() {
			t.Errorf("owner_id=%q", got)
		}
		json.NewEncoder(w).Encode(map[string]int64{"deleted": 2})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	result, err := client.Memory.Ingest(ctx, IngestParams{Owner: MemoryOwnerToy, OwnerID: ownerID, Text: "a b"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Chunks != 2 || len(result.Entries) != 2 {
		t.Fatalf("result=%+v", result)
	}

	matches, err := client.Memory.Search(ctx, SearchParams{Owner: MemoryOwnerToy, OwnerID: ownerID, Query: "a"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Distance != 0.12 {
		t.Fatalf("matches=%+v", matches)
	}

	deleted, err := client.Memory.Delete(ctx, MemoryOwnerToy, ownerID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d", deleted)
	}
}

func TestWSURL(t *testing.T) {
	client := NewClient("https://gateway.example.com")
	got, err := client.wsURL("/v1/stream/web", nil)
	if err != nil {
		t.Fatalf("wsURL: %v", err)
	}
	if got != "wss://gateway.example.com/v1/stream/web" {
		t.Fatalf("url=%q", got)
	}

	client = NewClient("http://localhost:8080")
	got, err = client.wsURL("/v1/stream/telephony", nil)
	if err != nil {
		t.Fatalf("wsURL: %v", err)
	}
	if got != "ws://localhost:8080/v1/stream/telephony" {
		t.Fatalf("url=%q", got)
	}
}
