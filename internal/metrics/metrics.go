package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the catalog service metrics for direct instrumentation
// in the API and generation layers.
type Metrics struct {
	HTTPRequests             *prometheus.CounterVec
	RecordsCreated           *prometheus.CounterVec
	ModerationActions        *prometheus.CounterVec
	GenerationItems          *prometheus.CounterVec
	CounterIncrementFailures prometheus.Counter
}

// New creates and registers the service metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelgrid",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RecordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelgrid",
			Subsystem: "catalog",
			Name:      "records_created_total",
			Help:      "Catalog records created, by source (operator or generator).",
		}, []string{"source"}),
		ModerationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelgrid",
			Subsystem: "moderation",
			Name:      "actions_total",
			Help:      "Moderation actions applied.",
		}, []string{"action"}),
		GenerationItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelgrid",
			Subsystem: "generate",
			Name:      "items_total",
			Help:      "Bulk generation items by outcome.",
		}, []string{"outcome"}),
		CounterIncrementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelgrid",
			Subsystem: "catalog",
			Name:      "counter_increment_failures_total",
			Help:      "View/download counter increments that failed and were swallowed.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.RecordsCreated,
		m.ModerationActions,
		m.GenerationItems,
		m.CounterIncrementFailures,
	)

	return m
}
