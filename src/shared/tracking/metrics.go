package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProposalOutcomes counts proposals leaving Open, by kind and terminal status
	ProposalOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemtracker_proposal_outcomes_total",
			Help: "Proposals that reached a terminal state by kind and status",
		},
		[]string{"kind", "status"},
	)

	// ProposalsCreated counts proposals accepted into the store
	ProposalsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemtracker_proposals_created_total",
			Help: "Proposals opened by kind",
		},
		[]string{"kind"},
	)

	// ReconcileTicks counts reconciliation passes by result
	ReconcileTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemtracker_reconcile_ticks_total",
			Help: "Reconciliation passes by result (ok, error, skipped)",
		},
		[]string{"result"},
	)

	// ReconcileErrors counts per-proposal failures inside a pass
	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemtracker_reconcile_errors_total",
			Help: "Per-proposal reconciliation failures by stage",
		},
		[]string{"stage"},
	)

	// ReconcileDuration tracks how long a pass takes
	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gemtracker_reconcile_duration_seconds",
			Help:    "Duration of a reconciliation pass in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// DirectMutations counts /track add|remove entries by result bucket
	DirectMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemtracker_direct_mutations_total",
			Help: "Entries handled by direct watch-list commands by kind and result",
		},
		[]string{"kind", "result"},
	)
)
