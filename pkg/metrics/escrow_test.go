package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestEscrowMetricsExportsDivergedWalletsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEscrowMetrics(reg)
	metrics.SetDivergedWallets(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	mf := findMetricFamily(mfs, "wallet_reconcile_diverged_wallets")
	if mf == nil {
		t.Fatal("diverged wallets gauge not registered")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected gauge=3, got %f", got)
	}

	// The gauge carries no per-wallet labels.
	if labels := mf.GetMetric()[0].GetLabel(); len(labels) != 0 {
		t.Fatalf("expected unlabeled gauge, got %v", labels)
	}
}

func TestEscrowMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *EscrowMetrics
	metrics.IncTransition("release")
	metrics.IncContention()
	metrics.SetDivergedWallets(1)

	empty := NewEscrowMetrics(nil)
	empty.IncTransition("release")
	empty.SetDivergedWallets(0)
}
