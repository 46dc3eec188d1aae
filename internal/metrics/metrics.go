// Package metrics holds the Prometheus collectors for the sign-in flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NoncesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "siwf",
		Name:      "nonces_issued_total",
		Help:      "Sign-in nonces issued.",
	})

	VerifyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siwf",
		Name:      "verify_total",
		Help:      "Sign-in verification attempts by outcome.",
	}, []string{"outcome"})

	IdentitiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "siwf",
		Name:      "identities_created_total",
		Help:      "Farcaster identities seen for the first time.",
	})

	WalletLinkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siwf",
		Name:      "wallet_link_total",
		Help:      "Wallet linking attempts for new identities by outcome.",
	}, []string{"outcome"})

	SweptRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siwf",
		Name:      "swept_records_total",
		Help:      "Expired records deleted by the sweeper.",
	}, []string{"kind"})
)
