/*

This file contains the journal records persisted by the state store after each
harvest cycle and user-facing ledger operation. They mirror what the engine
already committed; persistence is best-effort and never feeds back into the
ledger.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StrategyHarvestOutcome records how a single strategy fared in one harvest cycle.
type StrategyHarvestOutcome struct {
	StrategyID StrategyID  `json:"strategy_id"`
	Name       string      `json:"name"`
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	GrossYield sdkmath.Int `json:"gross_yield"` // realized reward-token delta, zero on failure
}

// HarvestSnapshot captures one full harvest cycle: gross yield pulled from
// strategies, the fee split, and the accumulator movement.
type HarvestSnapshot struct {
	SnapshotID     int64                    `json:"snapshot_id,omitempty"` // assigned by the store
	HarvestID      string                   `json:"harvest_id"`            // uuid tracing the cycle across logs
	Timestamp      time.Time                `json:"timestamp"`
	GrossYield     sdkmath.Int              `json:"gross_yield"`
	PerformanceFee sdkmath.Int              `json:"performance_fee"`
	ManagementFee  sdkmath.Int              `json:"management_fee"`
	Distributed    sdkmath.Int              `json:"distributed"`
	AccBefore      sdkmath.Int              `json:"acc_before"` // accRewardPerShare entering the cycle
	AccAfter       sdkmath.Int              `json:"acc_after"`
	TotalShares    sdkmath.Int              `json:"total_shares"`
	Outcomes       []StrategyHarvestOutcome `json:"outcomes"`
}

// Operation kinds recorded in receipts.
const (
	OpAddLiquidity    = "ADD_LIQUIDITY"
	OpRemoveLiquidity = "REMOVE_LIQUIDITY"
	OpClaimRewards    = "CLAIM_REWARDS"
	OpRebalance       = "REBALANCE"
	OpEmergency       = "EMERGENCY_WITHDRAW"
)

// OperationReceipt records one committed ledger operation.
type OperationReceipt struct {
	ReceiptID int64       `json:"receipt_id,omitempty"` // assigned by the store
	Kind      string      `json:"kind"`
	Caller    string      `json:"caller"`
	PairID    PairID      `json:"pair_id,omitempty"`
	Amount0   sdkmath.Int `json:"amount0"`
	Amount1   sdkmath.Int `json:"amount1"`
	Shares    sdkmath.Int `json:"shares"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
