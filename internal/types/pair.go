/*

This file contains the registry record for a token pair. A pair owns its own
reserves and share supply; depositor-level balances live in UserPosition.

*/

package types

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

type PairID uint64

// TokenPair is one registered two-asset pool.
type TokenPair struct {
	ID           PairID      `json:"id"`
	Token0       string      `json:"token0"`        // denom of the first asset
	Token1       string      `json:"token1"`        // denom of the second asset
	Reserve0     sdkmath.Int `json:"reserve0"`      // pooled amount of Token0, includes capital deployed to strategies
	Reserve1     sdkmath.Int `json:"reserve1"`      // pooled amount of Token1, includes capital deployed to strategies
	TotalShares  sdkmath.Int `json:"total_shares"`  // share supply for this pair, includes the locked minimum
	MinLiquidity sdkmath.Int `json:"min_liquidity"` // shares permanently locked on first deposit
	IsActive     bool        `json:"is_active"`     // inactive pairs reject new deposits, withdrawals still work
	CreatedAt    time.Time   `json:"created_at"`
}

// ShareDenom returns the fungible-ledger denom used for this pair's claim token.
func (p TokenPair) ShareDenom() string {
	return fmt.Sprintf("zshare%d", p.ID)
}

// IsEmpty reports whether the pair holds no redeemable liquidity beyond the
// permanently locked minimum shares.
func (p TokenPair) IsEmpty() bool {
	return p.TotalShares.LTE(p.MinLiquidity)
}
