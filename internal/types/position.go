/*

This file contains the per-depositor position ledger entry: pair-level share
balances, the aggregate share total, and the reward-debt checkpoint against
the global reward-per-share accumulator.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// UserPosition tracks one depositor across all pairs. Created lazily on first
// deposit and kept forever; a fully withdrawn position keeps its zeroed entry.
//
// Invariant: the sum of PairShares values always equals TotalShares.
type UserPosition struct {
	Owner           string                  `json:"owner"`
	PairShares      map[PairID]sdkmath.Int  `json:"pair_shares"`
	TotalShares     sdkmath.Int             `json:"total_shares"`
	RewardDebt      sdkmath.Int             `json:"reward_debt"` // TotalShares * accRewardPerShare / 1e18 at last settlement
	LastDepositTime time.Time               `json:"last_deposit_time"`
}

// NewUserPosition returns an empty position for owner.
func NewUserPosition(owner string) *UserPosition {
	return &UserPosition{
		Owner:       owner,
		PairShares:  make(map[PairID]sdkmath.Int),
		TotalShares: sdkmath.ZeroInt(),
		RewardDebt:  sdkmath.ZeroInt(),
	}
}

// SharesIn returns the depositor's share balance for one pair, zero if none.
func (u *UserPosition) SharesIn(pairID PairID) sdkmath.Int {
	if s, ok := u.PairShares[pairID]; ok {
		return s
	}
	return sdkmath.ZeroInt()
}
