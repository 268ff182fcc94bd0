// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "easyplit"

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts handled requests by route pattern, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests handled.",
}, []string{"route", "method", "status"})

// HTTPDuration tracks request latency by route pattern and method.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// ─── Balances ───────────────────────────────────────────────────────────────

// BalanceComputations counts balance pipeline runs by scope (group, offline).
var BalanceComputations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "computations_total",
	Help:      "Total debt simplification runs.",
}, []string{"scope"})

// SimplifiedTransfers observes how many transfers a settlement plan needs.
var SimplifiedTransfers = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "simplified_transfers",
	Help:      "Number of transfers in each simplified settlement plan.",
	Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
})

// ConsistencyErrors counts settlement runs whose net balances did not sum to zero.
var ConsistencyErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "consistency_errors_total",
	Help:      "Settlement runs rejected because net balances did not sum to zero.",
})

// ─── Expenses ───────────────────────────────────────────────────────────────

// ParticipantPayments counts recorded participant payments.
var ParticipantPayments = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "expense",
	Name:      "participant_payments_total",
	Help:      "Total participant payments recorded against expenses.",
})
