package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvest_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// FetchesTotal counts fetch-and-store outcomes.
	// result: hit (stored content reused), fetched, empty (fetch yielded nothing)
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_fetches_total",
			Help: "Total number of URLs processed by the fetch step.",
		},
		[]string{"result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvest_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"mode"},
	)

	// ExtractionsTotal counts extraction calls.
	// pipeline: scrape, pagination; status: success, failure
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_extractions_total",
			Help: "Total number of LLM extraction calls.",
		},
		[]string{"pipeline", "model", "status"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_tokens_total",
			Help: "Total number of counted tokens.",
		},
		[]string{"model", "direction"},
	)

	CostUSDTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_cost_usd_total",
			Help: "Estimated LLM spend in USD.",
		},
		[]string{"model"},
	)

	// RunsTotal counts launches by outcome: completed, failed.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_runs_total",
			Help: "Total number of launched runs.",
		},
		[]string{"status"},
	)
)

// ObserveExtraction records one successful extraction.
func ObserveExtraction(pipeline, model string, inputTokens, outputTokens int, cost float64) {
	ExtractionsTotal.WithLabelValues(pipeline, model, "success").Inc()
	TokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	TokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	CostUSDTotal.WithLabelValues(model).Add(cost)
}

// ObserveExtractionFailure records one failed extraction.
func ObserveExtractionFailure(pipeline, model string) {
	ExtractionsTotal.WithLabelValues(pipeline, model, "failure").Inc()
}
