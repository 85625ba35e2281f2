// Package observability holds the Prometheus metrics for the generation
// pipeline. Counters are registered with promauto at init and exposed by
// the /metrics endpoint wired in cmd/api.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GenerationAttempts counts calls to the upstream generation service,
// labelled by call site (outline, lesson, slide).
var GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseloom",
	Name:      "generation_attempts_total",
	Help:      "Upstream generation calls, including retries.",
}, []string{"label"})

// GenerationRetries counts backoff-then-retry cycles after transient
// upstream failures.
var GenerationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseloom",
	Name:      "generation_retries_total",
	Help:      "Retries after transient upstream failures.",
}, []string{"label"})

// SagaJobs counts finished saga runs by kind and terminal outcome
// (done, insufficient_credits, charge_failed, aborted_refunded).
var SagaJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseloom",
	Name:      "saga_jobs_total",
	Help:      "Generation sagas by terminal outcome.",
}, []string{"kind", "outcome"})

// DegradedUnits counts content units that shipped as placeholders.
var DegradedUnits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "courseloom",
	Name:      "degraded_units_total",
	Help:      "Content units replaced by placeholders.",
})

// Refunds counts compensating refunds issued by the saga.
var Refunds = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "courseloom",
	Name:      "refunds_total",
	Help:      "Compensating refunds after total job failure.",
})
