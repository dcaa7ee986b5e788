package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/gateway/config"
	"github.com/vango-go/toyvoice/pkg/gateway/mw"
	"github.com/vango-go/toyvoice/pkg/gateway/stream"
	"github.com/vango-go/toyvoice/pkg/gateway/stream/sessions"
	"github.com/vango-go/toyvoice/pkg/voice"
)

// NewHandlerFunc builds the per-session voice handler. sendText writes a text
// frame back to the peer; toyID is empty on telephony dials, where identity
// arrives in the start event instead of the URL.
type NewHandlerFunc func(ctx context.Context, toyID string, sendText func(context.Context, string) error) (voice.RealtimeVoiceHandler, error)

// StreamHandler upgrades an HTTP request to a WebSocket stream session. One
// instance serves one input source; the web and telephony routes each mount
// their own.
type StreamHandler struct {
	Config     config.Config
	Logger     *slog.Logger
	Sessions   *sessions.Tracker
	Source     voice.InputSource
	NewHandler NewHandlerFunc
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodGet {
		apierror.WriteJSON(w, http.StatusMethodNotAllowed, &apierror.Error{
			Type: apierror.ErrInvalidRequest, Message: "method not allowed", RequestID: reqID,
		})
		return
	}

	toyID := r.URL.Query().Get("toy_id")
	if h.Source == voice.SourceWebsite && toyID == "" {
		apierror.WriteJSON(w, http.StatusBadRequest, &apierror.Error{
			Type: apierror.ErrInvalidRequest, Message: "toy_id is required", Param: "toy_id", RequestID: reqID,
		})
		return
	}

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Cross-origin policy is enforced by the CORS middleware ahead of this
	// handler; device firmware sends no Origin header at all.
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := "sess_" + uuid.NewString()

	var writeMu sync.Mutex
	sendText := func(ctx context.Context, text string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, []byte(text))
	}

	handler, err := h.NewHandler(r.Context(), toyID, sendText)
	if err != nil {
		logger.Error("voice handler init failed",
			"session_id", sessionID,
			"toy_id", toyID,
			"error", err,
		)
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "voice handler unavailable"), deadline)
		return
	}

	sess, err := stream.New(stream.Dependencies{
		Conn:      conn,
		Handler:   handler,
		Source:    h.Source,
		Logger:    logger,
		SessionID: sessionID,
		Config: stream.Config{
			MaxPendingChunks:         h.Config.StreamMaxPendingChunks,
			ProcessingDelayThreshold: h.Config.StreamProcessingDelayThreshold,
			CleanupInterval:          h.Config.StreamCleanupInterval,
			MaxConcurrentTasks:       h.Config.StreamMaxConcurrentTasks,
			SessionTimeout:           h.Config.StreamSessionTimeout,
			WatchdogInterval:         h.Config.StreamWatchdogInterval,
			ShutdownWait:             h.Config.StreamShutdownWait,
			SlowProcessingThreshold:  h.Config.StreamSlowProcessingThreshold,
		},
	})
	if err != nil {
		logger.Error("stream session setup failed", "session_id", sessionID, "error", err)
		return
	}

	unregister := h.Sessions.Register(sessionID, sess.Cancel)
	defer unregister()

	// Run logs its own terminal state; disconnects are normal here.
	_ = sess.Run()
}
