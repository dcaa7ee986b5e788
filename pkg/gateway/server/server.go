// Package server assembles the HTTP mux and middleware chain.
package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/gateway/handlers"
	"github.com/vango-go/toyvoice/pkg/gateway/lifecycle"
	"github.com/vango-go/toyvoice/pkg/gateway/mw"
	"github.com/vango-go/toyvoice/pkg/gateway/stream/sessions"
	"github.com/vango-go/toyvoice/pkg/rag"
	"github.com/vango-go/toyvoice/pkg/store"
	"github.com/vango-go/toyvoice/pkg/voice"
)

// Dependencies carries the gateway's wired services. Store and Embedder may
// be nil; the affected routes degrade to 503 while the stream endpoints keep
// working.
type Dependencies struct {
	Store      *store.Store
	Embedder   rag.Embedder
	Sessions   *sessions.Tracker
	NewHandler handlers.NewHandlerFunc
}

type Server struct {
	cfg       config.Config
	logger    *slog.Logger
	mux       *http.ServeMux
	deps      Dependencies
	lifecycle lifecycle.State
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = sessions.NewTracker()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		deps:   deps,
	}
	s.routes()
	return s
}

// Sessions exposes the tracker so shutdown can drain live streams.
func (s *Server) Sessions() *sessions.Tracker {
	return s.deps.Sessions
}

// SetDraining flips readiness to 503 so load balancers stop sending traffic.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})

	ready := handlers.ReadyHandler{Config: s.cfg, Lifecycle: &s.lifecycle}
	if s.deps.Store != nil {
		ready.Store = s.deps.Store
	}
	s.mux.Handle("/readyz", ready)
	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.Handle("GET /v1/stream/web", handlers.StreamHandler{
		Config:     s.cfg,
		Logger:     s.logger,
		Sessions:   s.deps.Sessions,
		Source:     voice.SourceWebsite,
		NewHandler: s.deps.NewHandler,
	})
	s.mux.Handle("GET /v1/stream/telephony", handlers.StreamHandler{
		Config:     s.cfg,
		Logger:     s.logger,
		Sessions:   s.deps.Sessions,
		Source:     voice.SourceTelephony,
		NewHandler: s.deps.NewHandler,
	})

	if s.deps.Store == nil {
		unavailable := handlers.UnavailableHandler{}
		s.mux.Handle("/v1/toys", unavailable)
		s.mux.Handle("/v1/toys/", unavailable)
		s.mux.Handle("/v1/agents", unavailable)
		s.mux.Handle("/v1/agents/", unavailable)
		s.mux.Handle("/v1/providers/", unavailable)
		s.mux.Handle("/v1/memory", unavailable)
		s.mux.Handle("/v1/memory/", unavailable)
	} else {
		toys := handlers.ToysHandler{Store: s.deps.Store, Logger: s.logger}
		s.mux.HandleFunc("POST /v1/toys", toys.Create)
		s.mux.HandleFunc("GET /v1/toys", toys.List)
		s.mux.HandleFunc("GET /v1/toys/{id}", toys.Get)
		s.mux.HandleFunc("PUT /v1/toys/{id}", toys.Update)
		s.mux.HandleFunc("DELETE /v1/toys/{id}", toys.Delete)

		agents := handlers.AgentsHandler{Store: s.deps.Store, Logger: s.logger}
		s.mux.HandleFunc("POST /v1/agents", agents.Create)
		s.mux.HandleFunc("GET /v1/agents", agents.List)
		s.mux.HandleFunc("GET /v1/agents/{id}", agents.Get)
		s.mux.HandleFunc("PUT /v1/agents/{id}", agents.Update)
		s.mux.HandleFunc("DELETE /v1/agents/{id}", agents.Delete)

		providers := handlers.ProvidersHandler{Store: s.deps.Store, Logger: s.logger}
		s.mux.HandleFunc("POST /v1/providers/{kind}", providers.Create)
		s.mux.HandleFunc("GET /v1/providers/{kind}", providers.List)
		s.mux.HandleFunc("GET /v1/providers/{kind}/{id}", providers.Get)
		s.mux.HandleFunc("DELETE /v1/providers/{kind}/{id}", providers.Delete)

		memory := handlers.MemoryHandler{
			Store:    s.deps.Store,
			Chunker:  rag.NewChunker(s.cfg.ChunkSize, s.cfg.ChunkOverlap),
			Embedder: s.deps.Embedder,
			Logger:   s.logger,
		}
		s.mux.HandleFunc("POST /v1/memory", memory.Ingest)
		s.mux.HandleFunc("POST /v1/memory/search", memory.Search)
		s.mux.HandleFunc("GET /v1/memory", memory.List)
		s.mux.HandleFunc("DELETE /v1/memory", memory.Delete)
	}

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Auth(s.cfg, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
