package vault_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/vault"
)

func TestUserPositionViews(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	held, err := engine.UserPairShares("alice", pairID)
	require.NoError(t, err)
	assert.Equal(t, shares, held)

	// Unknown pair is an error, unknown user in a known pair is just zero
	_, err = engine.UserPairShares("alice", types.PairID(9))
	assert.ErrorIs(t, err, vault.ErrUnknownPair)
	held, err = engine.UserPairShares("nobody", pairID)
	require.NoError(t, err)
	assert.True(t, held.IsZero())

	// The position view is a copy: mutating it must not leak into the engine
	pos := engine.UserPosition("alice")
	assert.Equal(t, shares, pos.TotalShares)
	pos.PairShares[pairID] = sdkmath.ZeroInt()
	fresh := engine.UserPosition("alice")
	assert.Equal(t, shares, fresh.PairShares[pairID])

	// A never-seen user gets an empty position, not a nil map
	empty := engine.UserPosition("nobody")
	assert.True(t, empty.TotalShares.IsZero())
	assert.NotNil(t, empty.PairShares)
}
