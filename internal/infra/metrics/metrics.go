package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute instrumentation for the stock ledger. Registered on the default
// registry and exposed by the ops listener when metrics are enabled.
var (
	RecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_recompute_total",
		Help: "Full valuation recomputes per mutation kind.",
	}, []string{"op"})

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockledger_recompute_duration_seconds",
		Help:    "Wall time of one full ledger reload and valuation.",
		Buckets: prometheus.DefBuckets,
	})

	MutationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_mutation_retries_total",
		Help: "Unit mutations retried after lock contention.",
	})
)
