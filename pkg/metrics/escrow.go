package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics records money movement counters for the escrow pipeline.
type EscrowMetrics struct {
	transitions *prometheus.CounterVec
	contention  prometheus.Counter
	divergence  prometheus.Gauge
}

// NewEscrowMetrics registers the escrow metrics on the provided registerer.
func NewEscrowMetrics(reg prometheus.Registerer) *EscrowMetrics {
	if reg == nil {
		return &EscrowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_transitions_total",
		Help: "Escrow state transitions by resulting status.",
	}, []string{"transition"})
	contention := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escrow_contention_total",
		Help: "Transactions aborted after exhausting serialization retries.",
	})
	divergence := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_reconcile_diverged_wallets",
		Help: "Wallets whose materialized balances diverged from history in the last reconcile run.",
	})
	reg.MustRegister(transitions, contention, divergence)
	return &EscrowMetrics{
		transitions: transitions,
		contention:  contention,
		divergence:  divergence,
	}
}

// IncTransition counts one escrow transition by name.
func (e *EscrowMetrics) IncTransition(transition string) {
	if e == nil || e.transitions == nil {
		return
	}
	e.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

// IncContention counts one exhausted retry budget.
func (e *EscrowMetrics) IncContention() {
	if e == nil || e.contention == nil {
		return
	}
	e.contention.Inc()
}

// SetDivergedWallets records how many wallets failed the last reconcile
// pass. Per-wallet deltas are logged, not labeled.
func (e *EscrowMetrics) SetDivergedWallets(count int) {
	if e == nil || e.divergence == nil {
		return
	}
	e.divergence.Set(float64(count))
}
