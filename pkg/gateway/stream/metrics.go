package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	dropReasonBackpressure = "backpressure"
	dropReasonStale        = "stale"
	dropReasonMalformed    = "malformed"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "toyvoice",
		Subsystem: "stream",
		Name:      "active_sessions",
		Help:      "Number of stream sessions currently running.",
	})

	framesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toyvoice",
		Subsystem: "stream",
		Name:      "frames_received_total",
		Help:      "Inbound units received, by input source.",
	}, []string{"source"})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toyvoice",
		Subsystem: "stream",
		Name:      "frames_dropped_total",
		Help:      "Inbound units dropped instead of processed, by reason.",
	}, []string{"reason"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toyvoice",
		Subsystem: "stream",
		Name:      "frame_processing_seconds",
		Help:      "Downstream handler time per processed frame.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)
