package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MatchRequests counts ad-match pipeline executions, labelled by outcome.
	MatchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admatch_match_requests_total",
		Help: "Total ad match requests by outcome (won, no_category, no_winner, error)",
	}, []string{"outcome"})

	// MatchLatency observes the end to end latency of the match pipeline.
	MatchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "admatch_match_latency_seconds",
		Help:    "Latency of the embed/match/auction pipeline",
		Buckets: prometheus.DefBuckets,
	})

	// ImpressionsRecorded counts billable impression events.
	ImpressionsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admatch_impressions_recorded_total",
		Help: "Total impression events accepted",
	})

	// ClicksRecorded counts billable click events.
	ClicksRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admatch_clicks_recorded_total",
		Help: "Total click events accepted",
	})

	// HTTPRequests counts HTTP requests by method, path and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admatch_http_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"method", "path", "status"})
)

var registerOnce sync.Once

// Register installs the collectors on the given registry. Safe to call more
// than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			MatchRequests,
			MatchLatency,
			ImpressionsRecorded,
			ClicksRecorded,
			HTTPRequests,
		)
	})
}
