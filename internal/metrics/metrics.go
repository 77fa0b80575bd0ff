package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagw",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Connection state transitions.",
		},
		[]string{"from", "to"},
	)
	reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagw",
			Subsystem: "session",
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after a transport close.",
		},
		[]string{"reason"},
	)
	reconnectDelay = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wagw",
			Subsystem: "session",
			Name:      "reconnect_delay_seconds",
			Help:      "Backoff delay chosen for scheduled reconnects.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60},
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wagw",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held by the registry.",
		},
	)
	pairingWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagw",
			Subsystem: "pairing",
			Name:      "waits_total",
			Help:      "Pairing code waits by outcome.",
		},
		[]string{"result"},
	)
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagw",
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Outbound messages by payload kind and outcome.",
		},
		[]string{"kind", "success"},
	)
	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wagw",
			Subsystem: "dispatch",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of batch and fan-out sends.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"mode"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			stateTransitions,
			reconnects,
			reconnectDelay,
			activeSessions,
			pairingWaits,
			messagesSent,
			batchDuration,
		)
	})
}

func RecordTransition(from, to string) {
	RegisterMetrics()
	stateTransitions.WithLabelValues(from, to).Inc()
}

func RecordReconnect(reason string, delay time.Duration) {
	RegisterMetrics()
	reconnects.WithLabelValues(reason).Inc()
	reconnectDelay.Observe(delay.Seconds())
}

func SetActiveSessions(n int) {
	RegisterMetrics()
	activeSessions.Set(float64(n))
}

func RecordPairingWait(result string) {
	RegisterMetrics()
	pairingWaits.WithLabelValues(result).Inc()
}

func RecordMessage(kind string, success bool) {
	RegisterMetrics()
	messagesSent.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

func RecordBatch(mode string, d time.Duration) {
	RegisterMetrics()
	batchDuration.WithLabelValues(mode).Observe(d.Seconds())
}
