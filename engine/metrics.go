package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// artifactLookups counts store lookups by result (hit, miss)
	artifactLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionml_artifact_lookups_total",
		Help: "Artifact store lookups by result",
	}, []string{"result"})

	// artifactBuilds counts artifact builds by model kind and status
	artifactBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctionml_artifact_builds_total",
		Help: "Artifact builds by model kind and status",
	}, []string{"kind", "status"})

	// trainingDuration tracks end-to-end artifact build latency
	trainingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auctionml_training_duration_seconds",
		Help:    "Artifact build duration in seconds, including dataset load",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
	}, []string{"kind"})

	// queryDuration tracks request-surface latency per operation
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auctionml_query_duration_seconds",
		Help:    "Query duration in seconds by operation and status",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"operation", "status"})
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
