package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meubolso_sweep_reminders_dispatched_total",
		Help: "Reminders written to the inbox and recorded in the ledger, by kind.",
	}, []string{"kind"})

	sweepSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meubolso_sweep_reminders_skipped_total",
		Help: "Reminders skipped because the ledger already had an entry, by kind.",
	}, []string{"kind"})

	sweepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meubolso_sweep_failures_total",
		Help: "Per-installment sweep failures, by kind and stage.",
	}, []string{"kind", "stage"})
)
