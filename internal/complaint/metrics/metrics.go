package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the complaint module.
type Metrics struct {
	// Complaints created by authority
	ComplaintsCreated *prometheus.CounterVec

	// Status transitions by from/to status
	StatusTransitions *prometheus.CounterVec

	// Rejected transition attempts by reason
	TransitionRejections *prometheus.CounterVec

	// Lock operations by actor kind and outcome
	LockOperations *prometheus.CounterVec
}

// New creates a new Metrics instance with all complaint module metrics registered.
func New() *Metrics {
	return &Metrics{
		ComplaintsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_complaints_created_total",
			Help: "Total complaints created by authority",
		}, []string{"authority"}),

		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_status_transitions_total",
			Help: "Total applied status transitions by from and to status",
		}, []string{"from", "to"}),

		TransitionRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_transition_rejections_total",
			Help: "Total rejected status transition attempts by reason",
		}, []string{"reason"}), // reason: "terminal", "illegal_edge"

		LockOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_lock_operations_total",
			Help: "Total lock operations by actor kind and outcome",
		}, []string{"actor_kind", "outcome"}), // outcome: "acquired", "conflict", "released"
	}
}

// IncrementCreated records a complaint creation.
func (m *Metrics) IncrementCreated(authority string) {
	if m != nil {
		m.ComplaintsCreated.WithLabelValues(authority).Inc()
	}
}

// IncrementTransition records an applied status transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementRejection records a refused transition attempt.
func (m *Metrics) IncrementRejection(reason string) {
	if m != nil {
		m.TransitionRejections.WithLabelValues(reason).Inc()
	}
}

// IncrementLock records a lock operation outcome.
func (m *Metrics) IncrementLock(actorKind, outcome string) {
	if m != nil {
		m.LockOperations.WithLabelValues(actorKind, outcome).Inc()
	}
}
