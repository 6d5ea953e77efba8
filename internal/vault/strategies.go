/*

This file contains the strategy registry: an append-only arena of slots, each
binding a registry record to the adapter handle it was registered with. The
aggregate allocation of active strategies can never exceed 10000 bps; every
call that would break that cap fails whole and leaves allocations unchanged.

*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/mandatedisrael/zenfi/internal/strategy"
	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

// AddStrategy registers an adapter under a new strategy id. Owner only.
// The adapter must report this vault as its binding and a nonzero want asset;
// any adapter failure here aborts the whole registration.
func (e *Engine) AddStrategy(caller string, adapter strategy.Adapter, allocationBps uint32, name string) (types.StrategyID, error) {
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if adapter == nil {
		return 0, fmt.Errorf("%w: nil adapter", ErrAdapterNoWant)
	}
	if adapter.Vault() != e.addr {
		return 0, fmt.Errorf("%w: adapter reports %q, vault is %q", ErrAdapterMismatch, adapter.Vault(), e.addr)
	}
	want := adapter.Want()
	if want == "" {
		return 0, ErrAdapterNoWant
	}
	if allocationBps > utils.BpsDenominator {
		return 0, fmt.Errorf("%w: %d bps", ErrAllocationExceeded, allocationBps)
	}
	if e.activeAllocationSum(0)+allocationBps > utils.BpsDenominator {
		return 0, fmt.Errorf("%w: %d + %d bps", ErrAllocationExceeded, e.activeAllocationSum(0), allocationBps)
	}

	id := types.StrategyID(len(e.strategies) + 1)
	slot := &strategySlot{
		record: &types.Strategy{
			ID:             id,
			Name:           name,
			Want:           want,
			AllocationBps:  allocationBps,
			TotalDeposited: sdkmath.ZeroInt(),
			IsActive:       true,
		},
		adapter: adapter,
	}
	e.strategies = append(e.strategies, slot)

	e.log.Info().
		Uint64("strategyId", uint64(id)).
		Str("name", name).
		Str("want", want).
		Uint32("allocationBps", allocationBps).
		Msg("Strategy registered")

	return id, nil
}

// UpdateAllocation changes a strategy's target allocation. Owner only. The
// aggregate cap is re-validated excluding the strategy's own prior value.
func (e *Engine) UpdateAllocation(caller string, id types.StrategyID, newBps uint32) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, err := e.strategyByID(id)
	if err != nil {
		return err
	}
	if newBps > utils.BpsDenominator {
		return fmt.Errorf("%w: %d bps", ErrAllocationExceeded, newBps)
	}
	if e.activeAllocationSum(id)+newBps > utils.BpsDenominator {
		return fmt.Errorf("%w: %d + %d bps", ErrAllocationExceeded, e.activeAllocationSum(id), newBps)
	}

	old := slot.record.AllocationBps
	slot.record.AllocationBps = newBps
	e.log.Info().
		Uint64("strategyId", uint64(id)).
		Uint32("oldBps", old).
		Uint32("newBps", newBps).
		Msg("Strategy allocation updated")
	return nil
}

// SetStrategyActive flips a strategy's active flag. Owner only. Reactivating
// a strategy re-validates the aggregate allocation cap.
func (e *Engine) SetStrategyActive(caller string, id types.StrategyID, active bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, err := e.strategyByID(id)
	if err != nil {
		return err
	}
	if active && !slot.record.IsActive {
		if e.activeAllocationSum(id)+slot.record.AllocationBps > utils.BpsDenominator {
			return fmt.Errorf("%w: reactivating %d bps", ErrAllocationExceeded, slot.record.AllocationBps)
		}
	}
	slot.record.IsActive = active
	e.log.Info().Uint64("strategyId", uint64(id)).Bool("active", active).Msg("Strategy active flag updated")
	return nil
}

// StrategyInfo returns a copy of the strategy record.
func (e *Engine) StrategyInfo(id types.StrategyID) (types.Strategy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	slot, err := e.strategyByID(id)
	if err != nil {
		return types.Strategy{}, err
	}
	return *slot.record, nil
}

// Strategies returns copies of all strategy records in id order.
func (e *Engine) Strategies() []types.Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.Strategy, len(e.strategies))
	for i, s := range e.strategies {
		out[i] = *s.record
	}
	return out
}

// strategyByID resolves a strategy id to its slot.
func (e *Engine) strategyByID(id types.StrategyID) (*strategySlot, error) {
	if id == 0 || int(id) > len(e.strategies) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, id)
	}
	return e.strategies[id-1], nil
}

// activeAllocationSum sums the allocation of all active strategies, excluding
// the given id (pass 0 to exclude nothing).
func (e *Engine) activeAllocationSum(excluding types.StrategyID) uint32 {
	var sum uint32
	for _, slot := range e.strategies {
		if slot.record.ID == excluding || !slot.record.IsActive {
			continue
		}
		sum += slot.record.AllocationBps
	}
	return sum
}
