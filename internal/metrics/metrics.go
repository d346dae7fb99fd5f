// Package metrics exposes the Prometheus registry for the evaluation and
// backtest pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	fetchesTotal       *prometheus.CounterVec
	cacheTotal         *prometheus.CounterVec
	backtestsTotal     prometheus.Counter
	tradesTotal        *prometheus.CounterVec
	recommendTotal     *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewind_evaluations_total",
				Help: "Total number of ticker evaluations by grade",
			},
			[]string{"grade"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradewind_evaluation_duration_seconds",
				Help:    "Duration of single-ticker evaluations",
				Buckets: prometheus.DefBuckets,
			},
		),
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewind_fetches_total",
				Help: "Total number of live history fetches by result",
			},
			[]string{"result"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewind_cache_requests_total",
				Help: "History cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		backtestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradewind_backtests_total",
				Help: "Total number of backtest runs",
			},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewind_trades_total",
				Help: "Simulated trades appended to the ledger by action",
			},
			[]string{"action"},
		),
		recommendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradewind_recommendations_total",
				Help: "Recommendation source calls by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		r.evaluationsTotal,
		r.evaluationDuration,
		r.fetchesTotal,
		r.cacheTotal,
		r.backtestsTotal,
		r.tradesTotal,
		r.recommendTotal,
	)

	return r
}

// ObserveEvaluation records one completed evaluation.
func (r *Registry) ObserveEvaluation(grade string, d time.Duration) {
	r.evaluationsTotal.WithLabelValues(grade).Inc()
	r.evaluationDuration.Observe(d.Seconds())
}

// ObserveFetch records a live fetch result.
func (r *Registry) ObserveFetch(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.fetchesTotal.WithLabelValues(result).Inc()
}

// ObserveCache records a cache lookup outcome.
func (r *Registry) ObserveCache(hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "miss"
	}
	r.cacheTotal.WithLabelValues(outcome).Inc()
}

// ObserveBacktest records a backtest run.
func (r *Registry) ObserveBacktest() {
	r.backtestsTotal.Inc()
}

// ObserveTrade records a ledger append.
func (r *Registry) ObserveTrade(action string) {
	r.tradesTotal.WithLabelValues(action).Inc()
}

// ObserveRecommendation records a recommendation call outcome
// ("ok", "no_percentage", "quota", "error").
func (r *Registry) ObserveRecommendation(outcome string) {
	r.recommendTotal.WithLabelValues(outcome).Inc()
}
