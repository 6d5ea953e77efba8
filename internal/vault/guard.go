package vault

import "sync/atomic"

// reentrancyGuard is a scoped boolean lock. The execution environment already
// serializes external calls, so the only way a second acquisition can happen
// is an adapter or token callback re-entering the engine mid-operation; that
// nested call must fail immediately rather than block.
type reentrancyGuard struct {
	locked atomic.Bool
}

// enter acquires the guard or fails with ErrReentrantCall.
func (g *reentrancyGuard) enter() error {
	if !g.locked.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// exit releases the guard. Callers defer this on every path out.
func (g *reentrancyGuard) exit() {
	g.locked.Store(false)
}
