// Command toyvoice runs the voice gateway: the realtime stream endpoints plus
// the toy catalog and memory APIs when a database is configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/internal/dotenv"
	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/gateway/handlers"
	gatewayserver "github.com/vango-go/toyvoice/pkg/gateway/server"
	"github.com/vango-go/toyvoice/pkg/rag"
	"github.com/vango-go/toyvoice/pkg/store"
	"github.com/vango-go/toyvoice/pkg/voice"
	"github.com/vango-go/toyvoice/pkg/voice/toyhandler"
)

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

// newHandlerFunc builds the per-session voice handler factory. With a store
// the handler resolves the toy's agent and memory; without one every session
// gets the static default persona.
func newHandlerFunc(st *store.Store, embedder rag.Embedder, logger *slog.Logger) handlers.NewHandlerFunc {
	return func(ctx context.Context, toyID string, sendText func(context.Context, string) error) (voice.RealtimeVoiceHandler, error) {
		deps := toyhandler.Dependencies{
			Embedder: embedder,
			Sink:     toyhandler.SinkFunc(sendText),
			Logger:   logger,
		}
		if st == nil {
			deps.Catalog = toyhandler.StaticCatalog{}
		} else {
			id, err := uuid.Parse(toyID)
			if err != nil {
				return nil, fmt.Errorf("invalid toy_id %q: %w", toyID, err)
			}
			deps.Catalog = st
			deps.ToyID = id
		}
		return toyhandler.New(deps)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		st, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
		logger.Info("database connected")
	} else {
		logger.Warn("no database configured, catalog and memory APIs disabled")
	}

	var embedder rag.Embedder
	if cfg.GeminiAPIKey != "" {
		ge, err := rag.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
		embedder = ge
	} else {
		logger.Warn("no Gemini API key configured, memory embedding disabled")
	}

	gw := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Store:      st,
		Embedder:   embedder,
		NewHandler: newHandlerFunc(st, embedder, logger),
	})
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting gateway", "addr", cfg.Addr, "auth_mode", cfg.AuthMode)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	gw.SetDraining()
	if n := gw.Sessions().Count(); n > 0 {
		logger.Warn("draining live stream sessions", "count", n)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.Sessions().Wait(waitCtx) {
		canceled := gw.Sessions().CancelAll()
		logger.Warn("canceled sessions that did not drain in time", "count", canceled)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(stderr, nil))
	slog.SetDefault(logger)

	if err := dotenv.Load(".env"); err != nil {
		fmt.Fprintf(stderr, "toyvoice: %v\n", err)
		return 1
	}

	if err := run(ctx, logger); err != nil {
		fmt.Fprintf(stderr, "toyvoice: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr))
}
