package handlers

import (
	"context"
	"net/http"

	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/gateway/lifecycle"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Pinger is satisfied by *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ReadyHandler struct {
	Config    config.Config
	Store     Pinger           // nil when the gateway runs without a database
	Lifecycle *lifecycle.State // nil means never draining
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK           bool     `json:"ok"`
		AuthMode     string   `json:"auth_mode"`
		StoreEnabled bool     `json:"store_enabled"`
		Draining     bool     `json:"draining,omitempty"`
		Issues       []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	draining := h.Lifecycle.Draining()
	if draining {
		issues = append(issues, "draining")
	}

	switch h.Config.AuthMode {
	case config.AuthModeRequired, config.AuthModeOptional, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeRequired && len(h.Config.APIKeys) == 0 {
		issues = append(issues, "auth_mode=required but no api keys configured")
	}
	if h.Config.StreamMaxPendingChunks <= 0 {
		issues = append(issues, "stream max pending chunks must be > 0")
	}
	if h.Config.StreamMaxConcurrentTasks <= 0 {
		issues = append(issues, "stream max concurrent tasks must be > 0")
	}

	storeEnabled := h.Store != nil
	if storeEnabled {
		if err := h.Store.Ping(r.Context()); err != nil {
			issues = append(issues, "database unreachable: "+err.Error())
		}
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, readyResp{
		OK:           ok,
		AuthMode:     string(h.Config.AuthMode),
		StoreEnabled: storeEnabled,
		Draining:     draining,
		Issues:       issues,
	})
}
