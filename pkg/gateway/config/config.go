// Package config loads gateway configuration from the environment.
//
// Every knob has a TOYVOICE_-prefixed variable and a sensible default, so a
// bare `toyvoice` starts a working server. LoadFromEnv validates everything up
// front and fails fast with the offending variable name.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	MaxBodyBytes int64

	// Postgres. Empty disables the store: stream endpoints still work, the
	// CRUD and memory surfaces return 503.
	DatabaseURL string

	// Embeddings (memory recall).
	GeminiAPIKey   string
	EmbeddingModel string
	EmbeddingDim   int

	// Text chunking for memory ingestion.
	ChunkSize    int
	ChunkOverlap int

	// Stream session knobs (/v1/stream/*).
	StreamMaxPendingChunks         int
	StreamProcessingDelayThreshold time.Duration
	StreamCleanupInterval          time.Duration
	StreamMaxConcurrentTasks       int
	StreamSessionTimeout           time.Duration // 0 disables the watchdog
	StreamWatchdogInterval         time.Duration
	StreamShutdownWait             time.Duration
	StreamSlowProcessingThreshold  time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                           envOr("TOYVOICE_ADDR", ":8080"),
		AuthMode:                       AuthMode(envOr("TOYVOICE_AUTH_MODE", string(AuthModeRequired))),
		APIKeys:                        make(map[string]struct{}),
		CORSAllowedOrigins:             make(map[string]struct{}),
		MaxBodyBytes:                   envInt64Or("TOYVOICE_MAX_BODY_BYTES", 1<<20), // 1 MiB
		DatabaseURL:                    strings.TrimSpace(os.Getenv("TOYVOICE_DATABASE_URL")),
		GeminiAPIKey:                   strings.TrimSpace(os.Getenv("TOYVOICE_GEMINI_API_KEY")),
		EmbeddingModel:                 envOr("TOYVOICE_EMBEDDING_MODEL", "gemini-embedding-001"),
		EmbeddingDim:                   envIntOr("TOYVOICE_EMBEDDING_DIM", 768),
		ChunkSize:                      envIntOr("TOYVOICE_CHUNK_SIZE", 1000),
		ChunkOverlap:                   envIntOr("TOYVOICE_CHUNK_OVERLAP", 200),
		StreamMaxPendingChunks:         envIntOr("TOYVOICE_STREAM_MAX_PENDING_CHUNKS", 15),
		StreamProcessingDelayThreshold: envDurationOr("TOYVOICE_STREAM_PROCESSING_DELAY_THRESHOLD", 50*time.Millisecond),
		StreamCleanupInterval:          envDurationOr("TOYVOICE_STREAM_CLEANUP_INTERVAL", 2*time.Second),
		StreamMaxConcurrentTasks:       envIntOr("TOYVOICE_STREAM_MAX_CONCURRENT_TASKS", 25),
		StreamSessionTimeout:           envDurationOr("TOYVOICE_STREAM_SESSION_TIMEOUT", 0),
		StreamWatchdogInterval:         envDurationOr("TOYVOICE_STREAM_WATCHDOG_INTERVAL", time.Second),
		StreamShutdownWait:             envDurationOr("TOYVOICE_STREAM_SHUTDOWN_WAIT", 500*time.Millisecond),
		StreamSlowProcessingThreshold:  envDurationOr("TOYVOICE_STREAM_SLOW_PROCESSING_THRESHOLD", 20*time.Millisecond),
		ReadHeaderTimeout:              envDurationOr("TOYVOICE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                    envDurationOr("TOYVOICE_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:            envDurationOr("TOYVOICE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("TOYVOICE_AUTH_MODE must be one of required|optional|disabled")
	}

	for _, key := range splitCSV(os.Getenv("TOYVOICE_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}

	for _, origin := range splitCSV(os.Getenv("TOYVOICE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_MAX_BODY_BYTES must be > 0")
	}
	if cfg.EmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_EMBEDDING_DIM must be > 0")
	}
	if cfg.ChunkSize <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_CHUNK_SIZE must be > 0")
	}
	if cfg.ChunkOverlap < 0 {
		return Config{}, fmt.Errorf("TOYVOICE_CHUNK_OVERLAP must be >= 0")
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return Config{}, fmt.Errorf("TOYVOICE_CHUNK_OVERLAP must be < TOYVOICE_CHUNK_SIZE")
	}
	if cfg.StreamMaxPendingChunks <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_MAX_PENDING_CHUNKS must be > 0")
	}
	if cfg.StreamProcessingDelayThreshold <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_PROCESSING_DELAY_THRESHOLD must be > 0")
	}
	if cfg.StreamCleanupInterval <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_CLEANUP_INTERVAL must be > 0")
	}
	if cfg.StreamMaxConcurrentTasks <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_MAX_CONCURRENT_TASKS must be > 0")
	}
	if cfg.StreamSessionTimeout < 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_SESSION_TIMEOUT must be >= 0")
	}
	if cfg.StreamWatchdogInterval <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_WATCHDOG_INTERVAL must be > 0")
	}
	if cfg.StreamShutdownWait <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_SHUTDOWN_WAIT must be > 0")
	}
	if cfg.StreamSlowProcessingThreshold <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_STREAM_SLOW_PROCESSING_THRESHOLD must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("TOYVOICE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("TOYVOICE_API_KEYS must be set when TOYVOICE_AUTH_MODE=required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	// Accept bare integers as milliseconds for the *_MS style of variable.
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
