// Package stream owns the real-time audio stream session lifecycle: accept,
// branch by input source, drive the receive loop, spawn bounded workers, and
// tear the connection down safely under timeout, disconnect, or error.
//
// Two wire protocols share one session shape. Website clients send raw
// binary audio frames; telephony streams send JSON control events with
// base64 media payloads. Audio that falls behind real time is dropped rather
// than queued: an audible gap is a deliberate trade against unbounded
// latency growth.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/toyvoice/pkg/voice"
)

const (
	// startMediaStreamingMsg tells a website peer to begin sending audio.
	// Browsers have no natural "ready" signal of their own.
	startMediaStreamingMsg = `{"event_type":"start_media_streaming"}`

	timeoutCloseReason = "session timeout reached"
	normalCloseReason  = "Normal Closure"

	closeWriteTimeout = time.Second
)

// Config bounds one session's concurrency and lifetime.
type Config struct {
	// MaxPendingChunks caps tracked workers; arrivals beyond it are dropped.
	MaxPendingChunks int
	// ProcessingDelayThreshold is the maximum envelope age a worker will
	// still process.
	ProcessingDelayThreshold time.Duration
	// CleanupInterval is how often the loop sweeps finished workers out of
	// the tracked set, independent of worker self-deregistration.
	CleanupInterval time.Duration
	// MaxConcurrentTasks caps workers simultaneously holding a gate permit.
	MaxConcurrentTasks int
	// SessionTimeout is the maximum session lifetime the watchdog enforces.
	// Zero disables the watchdog.
	SessionTimeout time.Duration
	// WatchdogInterval is the watchdog poll cadence.
	WatchdogInterval time.Duration
	// ShutdownWait bounds how long teardown waits for canceled workers.
	ShutdownWait time.Duration
	// SlowProcessingThreshold is the worker duration above which a warning
	// is logged.
	SlowProcessingThreshold time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPendingChunks <= 0 {
		c.MaxPendingChunks = 15
	}
	if c.ProcessingDelayThreshold <= 0 {
		c.ProcessingDelayThreshold = 50 * time.Millisecond
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 2 * time.Second
	}
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = 25
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = time.Second
	}
	if c.ShutdownWait <= 0 {
		c.ShutdownWait = 500 * time.Millisecond
	}
	if c.SlowProcessingThreshold <= 0 {
		c.SlowProcessingThreshold = 20 * time.Millisecond
	}
	return c
}

// Dependencies carries everything a session needs; Conn, Handler, and
// Source are required.
type Dependencies struct {
	Conn      Conn
	Handler   voice.RealtimeVoiceHandler
	Source    voice.InputSource
	Logger    *slog.Logger
	SessionID string
	Config    Config
	Now       func() time.Time
}

// Session manages one accepted stream connection end to end. It is created
// by New and driven by a single call to Run.
type Session struct {
	conn      Conn
	handler   voice.RealtimeVoiceHandler
	source    voice.InputSource
	logger    *slog.Logger
	sessionID string
	cfg       Config
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	startTime  time.Time
	shouldStop atomic.Bool
	closed     atomic.Bool

	// streamID and callID are captured from the telephony start event.
	// They are written only by the receive loop goroutine.
	idMu     sync.Mutex
	streamID string
	callID   string

	messageCounter int64
	chunkCounter   int64

	gate *Gate

	// active tracks spawned workers. Admission happens only on the receive
	// loop goroutine, so the backpressure check and the insertion are
	// atomic with respect to new arrivals; the mutex covers concurrent
	// self-deregistration by finishing workers.
	mu        sync.Mutex
	active    map[int64]*worker
	wg        sync.WaitGroup
	lastSweep time.Time
}

type worker struct {
	id   int64
	done atomic.Bool
}

func New(deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("voice handler is required")
	}
	if deps.Source != voice.SourceWebsite && deps.Source != voice.SourceTelephony {
		return nil, fmt.Errorf("unknown input source %q", deps.Source)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg := deps.Config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:      deps.Conn,
		handler:   deps.Handler,
		source:    deps.Source,
		logger:    deps.Logger,
		sessionID: deps.SessionID,
		cfg:       cfg,
		now:       deps.Now,
		ctx:       ctx,
		cancel:    cancel,
		gate:      NewGate(cfg.MaxConcurrentTasks),
		active:    make(map[int64]*worker),
	}, nil
}

// Run drives the session until the peer stops, disconnects, times out, or
// the loop fails. Disconnects are normal termination; any other loop
// failure is returned to the caller after cleanup has run.
func (s *Session) Run() error {
	s.startTime = s.now()
	s.lastSweep = s.startTime
	s.logger.Info("stream session established",
		"session_id", s.sessionID,
		"input_source", string(s.source),
	)
	activeSessions.Inc()
	defer activeSessions.Dec()

	watchdogDone := make(chan struct{})
	if s.cfg.SessionTimeout > 0 {
		go func() {
			defer close(watchdogDone)
			s.runWatchdog()
		}()
	} else {
		close(watchdogDone)
	}

	err := s.receiveLoop()

	// Teardown runs however the loop exited.
	s.cleanup()
	<-watchdogDone

	s.logger.Info("stream session finished",
		"session_id", s.sessionID,
		"duration_ms", s.now().Sub(s.startTime).Milliseconds(),
		"messages", s.messageCounter,
		"chunks", s.chunkCounter,
	)

	if err != nil {
		if isDisconnect(err) {
			s.logger.Info("stream disconnected", "session_id", s.sessionID)
			return nil
		}
		s.logger.Error("stream session failed", "session_id", s.sessionID, "error", err)
		return err
	}
	return nil
}

// Cancel force-stops the session from outside, e.g. on server drain. It
// closes the transport so a blocked read unwinds.
func (s *Session) Cancel() {
	s.shouldStop.Store(true)
	s.cancel()
	s.close(websocket.CloseGoingAway, "server shutting down")
}

// StreamID reports the telephony stream identifier captured from the start
// event, empty until one arrives.
func (s *Session) StreamID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.streamID
}

// CallID reports the external call identifier, empty when the start event
// carried none.
func (s *Session) CallID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.callID
}

func (s *Session) receiveLoop() error {
	if s.source == voice.SourceWebsite {
		// Website peers get the greeting eagerly; there is no start event
		// to wait for. Telephony defers both calls until start arrives.
		if err := s.handler.LazyInitialize(s.ctx); err != nil {
			return fmt.Errorf("lazy initialize: %w", err)
		}
		if err := s.handler.GenerateFirstResponseFromAgent(s.ctx, voice.SourceWebsite); err != nil {
			return fmt.Errorf("first response: %w", err)
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, []byte(startMediaStreamingMsg)); err != nil {
			return fmt.Errorf("announce media streaming: %w", err)
		}
	}

	src := s.newFrameSource()
	for !s.shouldStop.Load() {
		env, err := src.Next()
		if err != nil {
			if errors.Is(err, errMalformedEnvelope) {
				framesDropped.WithLabelValues(dropReasonMalformed).Inc()
				s.logger.Debug("dropping malformed envelope", "session_id", s.sessionID, "error", err)
				s.sweepFinished()
				continue
			}
			return err
		}
		s.dispatch(env)
		s.sweepFinished()
	}
	return nil
}

func (s *Session) newFrameSource() frameSource {
	if s.source == voice.SourceWebsite {
		return &websiteSource{conn: s.conn, now: s.now}
	}
	return &telephonySource{conn: s.conn, now: s.now}
}

func (s *Session) dispatch(env Envelope) {
	framesReceived.WithLabelValues(string(s.source)).Inc()

	if env.Control == nil {
		s.chunkCounter = env.Seq
		s.admit(env)
		return
	}

	s.messageCounter = env.Seq
	switch env.Control.Type {
	case EventStart:
		s.idMu.Lock()
		s.streamID = env.Control.StreamID
		s.callID = env.Control.CallID
		s.idMu.Unlock()
		s.logger.Info("telephony stream started",
			"session_id", s.sessionID,
			"stream_id", env.Control.StreamID,
			"call_id", env.Control.CallID,
		)
		// First response before lazy init, the reverse of the website
		// order: the speech pipeline must not sit open and idle while the
		// greeting is still being composed.
		if err := s.handler.GenerateFirstResponseFromAgent(s.ctx, voice.SourceTelephony); err != nil {
			s.logger.Error("first response failed", "session_id", s.sessionID, "error", err)
		}
		if err := s.handler.LazyInitialize(s.ctx); err != nil {
			s.logger.Error("lazy initialize failed", "session_id", s.sessionID, "error", err)
		}
	case EventStop:
		s.logger.Info("telephony stream stopped", "session_id", s.sessionID, "stream_id", s.StreamID())
		s.shouldStop.Store(true)
	case EventMedia:
		s.admit(env)
	case EventOther:
		// Unknown event names are ignored, not errors.
	}
}

// admit applies the backpressure check and spawns a tracked worker. The
// check and the insertion run on the receive loop goroutine, so the pending
// bound is hard, not approximate.
func (s *Session) admit(env Envelope) {
	s.mu.Lock()
	pending := len(s.active)
	if pending >= s.cfg.MaxPendingChunks {
		s.mu.Unlock()
		framesDropped.WithLabelValues(dropReasonBackpressure).Inc()
		s.logger.Debug("too many pending chunks, dropping frame",
			"session_id", s.sessionID,
			"pending", pending,
			"seq", env.Seq,
		)
		return
	}
	w := &worker{id: env.Seq}
	s.active[env.Seq] = w
	s.wg.Add(1)
	s.mu.Unlock()

	go s.process(w, env)
}

// process is one worker: staleness check, gate permit, handler call. Worker
// failures are logged and contained; one bad unit must not end the session.
func (s *Session) process(w *worker, env Envelope) {
	defer s.wg.Done()
	defer s.deregister(w)
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("worker panic", "session_id", s.sessionID, "seq", w.id, "panic", v)
		}
	}()

	if age := s.now().Sub(env.Arrived); age >= s.cfg.ProcessingDelayThreshold {
		framesDropped.WithLabelValues(dropReasonStale).Inc()
		s.logger.Debug("dropping stale frame",
			"session_id", s.sessionID,
			"seq", w.id,
			"age_ms", age.Milliseconds(),
		)
		return
	}

	if err := s.gate.Acquire(s.ctx); err != nil {
		// Session is tearing down; the frame no longer matters.
		return
	}
	defer s.gate.Release()

	start := s.now()
	var err error
	if env.Binary != nil {
		err = s.handler.HandleWebAudioStream(s.ctx, env.Binary)
	} else {
		err = s.handler.HandleUserAudioStream(s.ctx, env.Control.Payload)
	}
	took := s.now().Sub(start)
	processingDuration.Observe(took.Seconds())

	if err != nil {
		s.logger.Error("audio handler failed", "session_id", s.sessionID, "seq", w.id, "error", err)
		return
	}
	if took > s.cfg.SlowProcessingThreshold {
		s.logger.Warn("slow audio processing",
			"session_id", s.sessionID,
			"seq", w.id,
			"duration_ms", took.Milliseconds(),
		)
	}
}

func (s *Session) deregister(w *worker) {
	w.done.Store(true)
	s.mu.Lock()
	delete(s.active, w.id)
	s.mu.Unlock()
}

// sweepFinished removes completed workers that have not yet deregistered
// themselves. Self-deregistration already bounds the set in the common
// case; the sweep bounds memory when a worker's own cleanup is delayed.
func (s *Session) sweepFinished() {
	now := s.now()
	if now.Sub(s.lastSweep) <= s.cfg.CleanupInterval {
		return
	}
	s.lastSweep = now

	s.mu.Lock()
	removed := 0
	for id, w := range s.active {
		if w.done.Load() {
			delete(s.active, id)
			removed++
		}
	}
	remaining := len(s.active)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("swept finished workers",
			"session_id", s.sessionID,
			"removed", removed,
			"active", remaining,
		)
	}
}

// runWatchdog force-closes the session once it exceeds its maximum
// lifetime. Fail-closed: an internal panic also stops the session rather
// than leaving it unmonitored.
func (s *Session) runWatchdog() {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("watchdog failure, forcing session stop", "session_id", s.sessionID, "panic", v)
			s.shouldStop.Store(true)
		}
	}()

	ticker := time.NewTicker(s.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.now().Sub(s.startTime) > s.cfg.SessionTimeout {
				s.logger.Info("session timeout reached, closing connection",
					"session_id", s.sessionID,
					"timeout", s.cfg.SessionTimeout,
				)
				s.shouldStop.Store(true)
				s.close(websocket.CloseNormalClosure, timeoutCloseReason)
				return
			}
		}
	}
}

// cleanup cancels every tracked worker and waits a bounded time for them to
// settle, so teardown itself cannot hang.
func (s *Session) cleanup() {
	s.shouldStop.Store(true)
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownWait):
		s.logger.Warn("timed out waiting for workers during teardown", "session_id", s.sessionID)
	}

	s.close(websocket.CloseNormalClosure, normalCloseReason)
}

// close sends a close frame and closes the transport exactly once; later
// calls are no-ops.
func (s *Session) close(code int, reason string) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	deadline := time.Now().Add(closeWriteTimeout)
	if err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil && !isDisconnect(err) {
		s.logger.Debug("write close frame", "session_id", s.sessionID, "error", err)
	}
	if err := s.conn.Close(); err != nil && !isDisconnect(err) {
		s.logger.Debug("close connection", "session_id", s.sessionID, "error", err)
	}
	s.logger.Info("stream session closed",
		"session_id", s.sessionID,
		"code", code,
		"reason", reason,
	)
}

// isDisconnect reports whether err is an expected transport termination
// rather than a failure.
func isDisconnect(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
