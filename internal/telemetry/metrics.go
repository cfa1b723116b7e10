package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters and histograms the card session layer and
// the signing pipeline update. No HTTP exporter is wired here, but
// callers may register Registry with one of their own; registration
// is kept separate from transport so this package has no opinion on
// how metrics get served.
var (
	Registry = prometheus.NewRegistry()

	APDUsSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siaep7_apdus_sent_total",
			Help: "APDUs transmitted to the card, by instruction byte.",
		},
		[]string{"slot", "ins"},
	)

	APDURetries = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siaep7_apdu_retries_total",
			Help: "APDU reset-and-retry recoveries, by slot.",
		},
		[]string{"slot"},
	)

	PinFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siaep7_pin_failures_total",
			Help: "PIN verification failures, by slot.",
		},
		[]string{"slot"},
	)

	SigilliComputed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siaep7_sigilli_computed_total",
			Help: "Fiscal seals computed, by slot.",
		},
		[]string{"slot"},
	)

	SignaturesProduced = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "siaep7_pkcs7_signatures_total",
			Help: "PKCS#7 SignedData blobs produced, by slot.",
		},
		[]string{"slot"},
	)

	SMIMEMessagesWritten = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "siaep7_smime_messages_total",
			Help: "S/MIME messages written to disk.",
		},
	)

	APDULatency = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "siaep7_apdu_latency_seconds",
			Help:    "Latency of a single APDU exchange.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)
