package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/gateway/handlers"
	"github.com/vango-go/toyvoice/pkg/voice"
	"github.com/vango-go/toyvoice/pkg/voice/toyhandler"
)

func testConfig() config.Config {
	return config.Config{
		AuthMode:                 config.AuthModeDisabled,
		APIKeys:                  map[string]struct{}{},
		CORSAllowedOrigins:       map[string]struct{}{},
		StreamMaxPendingChunks:   15,
		StreamMaxConcurrentTasks: 25,
	}
}

func staticNewHandler(t *testing.T) handlers.NewHandlerFunc {
	t.Helper()
	return func(ctx context.Context, toyID string, sendText func(context.Context, string) error) (voice.RealtimeVoiceHandler, error) {
		return toyhandler.New(toyhandler.Dependencies{
			Catalog: toyhandler.StaticCatalog{},
			Sink:    toyhandler.SinkFunc(sendText),
		})
	}
}

func TestServer_HealthAndNotFound(t *testing.T) {
	srv := New(testConfig(), nil, Dependencies{NewHandler: staticNewHandler(t)})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", rec.Code)
	}
	var env struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Type != "not_found_error" {
		t.Fatalf("error type=%q", env.Error.Type)
	}
}

func TestServer_MetricsExposed(t *testing.T) {
	srv := New(testConfig(), nil, Dependencies{NewHandler: staticNewHandler(t)})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rec.Code)
	}
}

func TestServer_CatalogRoutesUnavailableWithoutStore(t *testing.T) {
	srv := New(testConfig(), nil, Dependencies{NewHandler: staticNewHandler(t)})
	h := srv.Handler()

	for _, path := range []string{"/v1/toys", "/v1/agents", "/v1/providers/model", "/v1/memory"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s status=%d, want 503", path, rec.Code)
		}
	}
}

func TestServer_AuthGuardsRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeRequired
	cfg.APIKeys = map[string]struct{}{"tv_sk_good": {}}

	srv := New(cfg, nil, Dependencies{NewHandler: staticNewHandler(t)})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/toys", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status=%d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/v1/toys", nil)
	req.Header.Set("Authorization", "Bearer tv_sk_good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("authenticated status=%d, want 503 (no store)", rec.Code)
	}
}

func TestServer_WebStreamThroughFullChain(t *testing.T) {
	srv := New(testConfig(), nil, Dependencies{NewHandler: staticNewHandler(t)})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream/web?toy_id=toy-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Static catalog has no agent; the default greeting comes first, then
	// the media announcement.
	_, greeting, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if !strings.Contains(string(greeting), "listening") {
		t.Fatalf("greeting = %q", greeting)
	}
	_, announce, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read announce: %v", err)
	}
	if string(announce) != `{"event_type":"start_media_streaming"}` {
		t.Fatalf("announce = %q", announce)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("write audio: %v", err)
	}
}
