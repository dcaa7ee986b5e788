package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/store"
	"github.com/vango-go/toyvoice/pkg/voice"
)

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
}

func TestNewHandlerFunc_StaticWithoutStore(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := newHandlerFunc(nil, nil, logger)

	var sent []string
	h, err := factory(context.Background(), "toy-1", func(ctx context.Context, text string) error {
		sent = append(sent, text)
		return nil
	})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	if err := h.LazyInitialize(context.Background()); err != nil {
		t.Fatalf("LazyInitialize: %v", err)
	}
	if err := h.GenerateFirstResponseFromAgent(context.Background(), voice.SourceWebsite); err != nil {
		t.Fatalf("GenerateFirstResponseFromAgent: %v", err)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "listening") {
		t.Fatalf("sent=%v, want one default greeting", sent)
	}
}

func TestNewHandlerFunc_RejectsBadToyIDWithStore(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := newHandlerFunc(&store.Store{}, nil, logger)

	_, err := factory(context.Background(), "not-a-uuid", func(ctx context.Context, text string) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error for malformed toy id")
	}
}
