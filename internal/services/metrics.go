// Package services – engine metrics
//
// Prometheus collectors for the invitation engine itself (the HTTP-level
// metrics live in the middleware package). Label cardinality is kept
// bounded: outcomes and effect kinds are small closed sets.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// slotReservations counts conditional slot-reservation attempts by
	// outcome ("reserved", "full").
	slotReservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invite_slot_reservations_total",
			Help: "Total slot reservation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// requestDecisions counts join-request transitions by resulting status.
	requestDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "join_request_decisions_total",
			Help: "Total join request decisions by resulting status.",
		},
		[]string{"status"},
	)

	// outboxExecutions counts outbox effect executions by kind and outcome
	// ("done", "retry", "dead").
	outboxExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_executions_total",
			Help: "Total outbox effect executions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(slotReservations, requestDecisions, outboxExecutions)
}
