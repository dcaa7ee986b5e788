// Package toyhandler is the reference RealtimeVoiceHandler: it resolves the
// toy's agent from the store, greets the caller, and accounts inbound audio.
// Speech recognition, inference, and synthesis happen elsewhere; this handler
// is the glue the stream session drives.
package toyhandler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/rag"
	"github.com/vango-go/toyvoice/pkg/store"
	"github.com/vango-go/toyvoice/pkg/voice"
)

// Catalog is the subset of the store the handler needs.
type Catalog interface {
	GetToy(ctx context.Context, id uuid.UUID) (store.Toy, error)
	GetAgentForToy(ctx context.Context, toyID uuid.UUID) (store.Agent, error)
	SearchMemory(ctx context.Context, owner store.MemoryOwner, ownerID uuid.UUID, embedding []float32, limit int) ([]store.MemoryMatch, error)
}

// Sink delivers outbound messages to the device.
type Sink interface {
	SendText(ctx context.Context, text string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, text string) error

func (f SinkFunc) SendText(ctx context.Context, text string) error { return f(ctx, text) }

type Dependencies struct {
	Catalog  Catalog
	Embedder rag.Embedder // optional; memory recall is disabled without it
	Sink     Sink
	Logger   *slog.Logger
	ToyID    uuid.UUID
}

type Handler struct {
	catalog  Catalog
	embedder rag.Embedder
	sink     Sink
	logger   *slog.Logger
	toyID    uuid.UUID

	mu          sync.Mutex
	initialized bool
	toy         store.Toy
	agent       store.Agent
	hasAgent    bool

	audioChunks atomic.Int64
	audioBytes  atomic.Int64
}

var _ voice.RealtimeVoiceHandler = (*Handler)(nil)

func New(deps Dependencies) (*Handler, error) {
	if deps.Catalog == nil {
		return nil, errors.New("toyhandler: catalog is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("toyhandler: sink is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{
		catalog:  deps.Catalog,
		embedder: deps.Embedder,
		sink:     deps.Sink,
		logger:   deps.Logger,
		toyID:    deps.ToyID,
	}, nil
}

// LazyInitialize loads the toy profile and its bound agent. It is idempotent;
// repeated calls after a successful load are no-ops. A toy without an active
// agent is allowed and falls back to the default persona.
func (h *Handler) LazyInitialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return nil
	}

	toy, err := h.catalog.GetToy(ctx, h.toyID)
	if err != nil {
		return fmt.Errorf("load toy %s: %w", h.toyID, err)
	}
	h.toy = toy

	agent, err := h.catalog.GetAgentForToy(ctx, h.toyID)
	switch {
	case err == nil:
		h.agent = agent
		h.hasAgent = true
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn("toy has no active agent, using default persona", "toy_id", h.toyID)
	default:
		return fmt.Errorf("load agent for toy %s: %w", h.toyID, err)
	}

	h.initialized = true
	return nil
}

// GenerateFirstResponseFromAgent sends the opening line for the session.
func (h *Handler) GenerateFirstResponseFromAgent(ctx context.Context, source voice.InputSource) error {
	h.mu.Lock()
	greeting := h.greetingLocked()
	h.mu.Unlock()

	if err := h.sink.SendText(ctx, greeting); err != nil {
		return fmt.Errorf("send greeting: %w", err)
	}
	h.logger.Debug("sent first response", "toy_id", h.toyID, "source", source)
	return nil
}

func (h *Handler) greetingLocked() string {
	if h.hasAgent && h.agent.Greeting != "" {
		return h.agent.Greeting
	}
	name := h.toy.Name
	if name == "" {
		name = "your toy"
	}
	return fmt.Sprintf("Hi! This is %s. I'm listening!", name)
}

// HandleUserAudioStream ingests one base64 telephony media payload.
func (h *Handler) HandleUserAudioStream(ctx context.Context, payload string) error {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode media payload: %w", err)
	}
	h.account(len(data))
	return nil
}

// HandleWebAudioStream ingests one raw binary audio frame.
func (h *Handler) HandleWebAudioStream(ctx context.Context, data []byte) error {
	h.account(len(data))
	return nil
}

func (h *Handler) account(n int) {
	h.audioChunks.Add(1)
	h.audioBytes.Add(int64(n))
}

// Stats reports how many audio chunks and bytes the session has ingested.
func (h *Handler) Stats() (chunks, bytes int64) {
	return h.audioChunks.Load(), h.audioBytes.Load()
}

// RecallMemory embeds the query and returns the closest stored chunks for
// this toy. Returns nil when no embedder is configured.
func (h *Handler) RecallMemory(ctx context.Context, query string, limit int) ([]store.MemoryMatch, error) {
	if h.embedder == nil {
		return nil, nil
	}
	vecs, err := h.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return h.catalog.SearchMemory(ctx, store.MemoryOwnerToy, h.toyID, vecs[0], limit)
}
