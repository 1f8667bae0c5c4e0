package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Total number of accounts created
	Registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spinwin_registrations_total",
		Help: "Total number of successful registrations",
	})

	// Total number of successful logins
	Logins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spinwin_logins_total",
		Help: "Total number of successful logins",
	})

	// Total number of ledger mutations applied
	LedgerMutations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spinwin_ledger_mutations_total",
		Help: "Total number of ledger delta applications",
	})

	// Charges initiated per provider
	ChargesInitiated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spinwin_charges_initiated_total",
		Help: "Total number of charge initiations",
	}, []string{"provider"})

	// Charge status observations per provider and normalized status
	ChargeStatuses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spinwin_charge_status_total",
		Help: "Charge statuses observed from gateways",
	}, []string{"provider", "status"})

	// Activation credits actually applied (at most one per reference)
	ActivationCredits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spinwin_activation_credits_total",
		Help: "Total number of activation credits applied",
	})
)

func Init() {
	prometheus.MustRegister(
		Registrations,
		Logins,
		LedgerMutations,
		ChargesInitiated,
		ChargeStatuses,
		ActivationCredits,
	)
}
