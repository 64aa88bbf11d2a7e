// Package metrics provides Prometheus metrics for the oracle node.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchesTotal is a counter of successful quote fetches per source.
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_fetches_total",
			Help: "Total number of quotes fetched from sources",
		},
		[]string{"source", "asset"},
	)

	// FetchErrorsTotal is a counter of failed quote fetches per source.
	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_fetch_errors_total",
			Help: "Total number of failed quote fetches",
		},
		[]string{"source", "asset"},
	)

	// QuoteRejectionsTotal is a counter of quotes rejected by the validator.
	QuoteRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_rejections_total",
			Help: "Total number of quotes rejected during validation",
		},
		[]string{"source", "rule"},
	)

	// QuoteFlagsTotal is a counter of quotes accepted with reduced confidence.
	QuoteFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_flags_total",
			Help: "Total number of quotes flagged by historical checks but accepted",
		},
		[]string{"source", "rule"},
	)

	// OutlierRejectionsTotal is a counter of outlier quotes excluded from consensus.
	OutlierRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outlier_rejections_total",
			Help: "Total number of outlier quotes excluded from consensus",
		},
		[]string{"asset"},
	)

	// CyclesTotal is a counter of update cycles by outcome.
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "update_cycles_total",
			Help: "Total number of update cycles",
		},
		[]string{"asset", "status"},
	)

	// ConsensusDuration is a histogram of consensus computation duration.
	ConsensusDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consensus_duration_seconds",
			Help:    "Duration of consensus computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"asset"},
	)

	// ConsensusPrice is a gauge of the latest consensus price.
	ConsensusPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "consensus_price",
			Help: "Latest consensus price per asset",
		},
		[]string{"asset"},
	)

	// ConsensusConfidence is a gauge of the latest consensus confidence.
	ConsensusConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "consensus_confidence",
			Help: "Latest consensus confidence per asset (0-1)",
		},
		[]string{"asset"},
	)

	// ConsensusScore is a gauge of the latest consensus score.
	ConsensusScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "consensus_score",
			Help: "Latest consensus score per asset (0-1)",
		},
		[]string{"asset"},
	)

	// HistorySize is a gauge of the rolling history length per asset.
	HistorySize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_history_size",
			Help: "Number of accepted prices in the rolling history",
		},
		[]string{"asset"},
	)

	// SubmissionsTotal is a counter of sink submissions by status.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of consensus result submissions",
		},
		[]string{"sink", "status"},
	)
)

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		FetchesTotal,
		FetchErrorsTotal,
		QuoteRejectionsTotal,
		QuoteFlagsTotal,
		OutlierRejectionsTotal,
		CyclesTotal,
		ConsensusDuration,
		ConsensusPrice,
		ConsensusConfidence,
		ConsensusScore,
		HistorySize,
		SubmissionsTotal,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordFetch records a successful quote fetch.
func RecordFetch(source, asset string) {
	FetchesTotal.WithLabelValues(source, asset).Inc()
}

// RecordFetchError records a failed quote fetch.
func RecordFetchError(source, asset string) {
	FetchErrorsTotal.WithLabelValues(source, asset).Inc()
}

// RecordQuoteRejection records a validator rejection.
func RecordQuoteRejection(source, rule string) {
	QuoteRejectionsTotal.WithLabelValues(source, rule).Inc()
}

// RecordQuoteFlag records a historically flagged but accepted quote.
func RecordQuoteFlag(source, rule string) {
	QuoteFlagsTotal.WithLabelValues(source, rule).Inc()
}

// RecordOutlierRejection records an outlier excluded from consensus.
func RecordOutlierRejection(asset string) {
	OutlierRejectionsTotal.WithLabelValues(asset).Inc()
}

// RecordCycle records the outcome of an update cycle.
func RecordCycle(asset, status string) {
	CyclesTotal.WithLabelValues(asset, status).Inc()
}

// RecordConsensus records the outcome of a consensus computation.
func RecordConsensus(asset string, price, confidence, score float64, duration time.Duration) {
	ConsensusDuration.WithLabelValues(asset).Observe(duration.Seconds())
	ConsensusPrice.WithLabelValues(asset).Set(price)
	ConsensusConfidence.WithLabelValues(asset).Set(confidence)
	ConsensusScore.WithLabelValues(asset).Set(score)
}

// RecordHistorySize records the rolling history length for an asset.
func RecordHistorySize(asset string, size int) {
	HistorySize.WithLabelValues(asset).Set(float64(size))
}

// RecordSubmission records a sink submission attempt.
func RecordSubmission(sink, status string) {
	SubmissionsTotal.WithLabelValues(sink, status).Inc()
}
