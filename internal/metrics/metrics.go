package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProcessingRuns counts pipeline runs by terminal outcome.
	ProcessingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxlog",
		Name:      "processing_runs_total",
		Help:      "Number of processing pipeline runs by outcome.",
	}, []string{"outcome"})

	// ProcessingDuration tracks wall time of a full pipeline run.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxlog",
		Name:      "processing_duration_seconds",
		Help:      "Duration of processing pipeline runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
