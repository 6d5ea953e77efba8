/*

This file contains the registry record for a yield strategy. The record is
pure accounting state; the adapter handle it was registered with is held by
the vault engine and dispatched through the strategy.Adapter interface.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type StrategyID uint64

// Strategy is one registered yield strategy slot. Slots are append-only and
// index-stable: a strategy is deactivated, never removed, so external
// references to its id stay valid forever.
type Strategy struct {
	ID              StrategyID  `json:"id"`
	Name            string      `json:"name"`
	Want            string      `json:"want"`             // denom the strategy farms, fixed at registration
	AllocationBps   uint32      `json:"allocation_bps"`   // target fraction of total assets, 0..10000
	TotalDeposited  sdkmath.Int `json:"total_deposited"`  // vault-side accounting of capital in strategy custody
	LastHarvestTime time.Time   `json:"last_harvest_time"`
	IsActive        bool        `json:"is_active"`
}
