// Package metrics holds the Prometheus collectors for question handling.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// providerAttemptsTotal counts provider calls by outcome.
	// Labels: provider (wikipedia, duckduckgo, llm), status (success, empty, transient)
	providerAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "knifeai",
		Subsystem: "provider",
		Name:      "attempts_total",
		Help:      "Provider calls by provider and outcome",
	}, []string{"provider", "status"})

	providerLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "knifeai",
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "Provider call latency, cache hits included",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"provider"})

	// answersTotal counts answers by winning provider; "none" when nothing was found.
	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "knifeai",
		Name:      "answers_total",
		Help:      "Answers by winning provider",
	}, []string{"source"})

	// imageResultsTotal counts image outcomes: "ok" or the failure kind.
	imageResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "knifeai",
		Subsystem: "image",
		Name:      "results_total",
		Help:      "Image generation outcomes by kind",
	}, []string{"outcome"})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "knifeai",
		Subsystem: "lookup_cache",
		Name:      "entries",
		Help:      "Entries held by the lookup cache",
	})

	cacheRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "knifeai",
		Subsystem: "lookup_cache",
		Name:      "requests",
		Help:      "Lookup cache requests so far by result",
	}, []string{"result"})
)

// RecordAttempt records one provider call.
func RecordAttempt(provider, status string, elapsed time.Duration) {
	providerAttemptsTotal.WithLabelValues(provider, status).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordAnswer records the winning provider of a resolution.
func RecordAnswer(source string) {
	if source == "" {
		source = "none"
	}
	answersTotal.WithLabelValues(source).Inc()
}

// RecordImage records an image outcome.
func RecordImage(outcome string) {
	imageResultsTotal.WithLabelValues(outcome).Inc()
}

// SetCache publishes a snapshot of lookup cache counters.
func SetCache(entries int, hits, misses int64) {
	cacheEntries.Set(float64(entries))
	cacheRequests.WithLabelValues("hit").Set(float64(hits))
	cacheRequests.WithLabelValues("miss").Set(float64(misses))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
