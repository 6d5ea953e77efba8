/*

This file registers the Prometheus collectors exposed on the /metrics route.
Collectors are registered on the default registry at init so every component
can record without wiring; amounts are converted to float only here, display
precision never feeds back into ledger math.

*/

package metrics

import (
	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HarvestsTotal counts completed harvest distributions.
	HarvestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zenfi",
		Subsystem: "vault",
		Name:      "harvests_total",
		Help:      "Number of harvest cycles that distributed yield",
	})

	// HarvestFailures counts per-strategy harvest calls that failed.
	HarvestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zenfi",
		Subsystem: "vault",
		Name:      "harvest_failures_total",
		Help:      "Number of strategy harvest calls that failed and were treated as zero yield",
	})

	// DistributedRewards accumulates reward-token units distributed to depositors.
	DistributedRewards = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zenfi",
		Subsystem: "vault",
		Name:      "distributed_rewards_total",
		Help:      "Cumulative reward-token units credited to the accumulator",
	})

	// CollectedFees accumulates reward-token units sent to the fee recipient.
	CollectedFees = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "zenfi",
		Subsystem: "vault",
		Name:      "collected_fees_total",
		Help:      "Cumulative reward-token units collected as performance and management fees",
	})

	// TotalAssets reports the additive total-value placeholder across pairs.
	TotalAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "zenfi",
		Subsystem: "vault",
		Name:      "total_assets",
		Help:      "Sum of all pair reserves (additive placeholder valuation)",
	})
)

// ObserveDistribution records the outcome of one harvest settlement.
func ObserveDistribution(distributed, fees sdkmath.Int) {
	if f, ok := toFloat(distributed); ok {
		DistributedRewards.Add(f)
	}
	if f, ok := toFloat(fees); ok {
		CollectedFees.Add(f)
	}
}

// SetTotalAssets updates the total-assets gauge.
func SetTotalAssets(total sdkmath.Int) {
	if f, ok := toFloat(total); ok {
		TotalAssets.Set(f)
	}
}

func toFloat(amount sdkmath.Int) (float64, bool) {
	if amount.IsNil() || amount.IsNegative() {
		return 0, false
	}
	f, err := sdkmath.LegacyNewDecFromInt(amount).Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}
