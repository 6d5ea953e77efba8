package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBps(t *testing.T) {
	// ARRANGE / ACT / ASSERT: floor division, no rounding up
	out, err := ApplyBps(sdkmath.NewInt(10_000), 50)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(50), out)

	// 999 * 50 / 10000 = 4.995 -> 4
	out, err = ApplyBps(sdkmath.NewInt(999), 50)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(4), out)

	// Full 10000 bps is the identity
	out, err = ApplyBps(sdkmath.NewInt(123_456), 10_000)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(123_456), out)

	// Zero bps yields zero
	out, err = ApplyBps(sdkmath.NewInt(123_456), 0)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
}

func TestApplyBpsRejectsBadInput(t *testing.T) {
	_, err := ApplyBps(sdkmath.NewInt(100), 10_001)
	assert.ErrorIs(t, err, ErrBpsOutOfRange)

	_, err = ApplyBps(sdkmath.Int{}, 100)
	assert.ErrorIs(t, err, ErrAmountNil)

	_, err = ApplyBps(sdkmath.NewInt(-1), 100)
	assert.ErrorIs(t, err, ErrAmountNegative)
}

func TestIntSqrt(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{4, 2},
		{15, 3}, // floor
		{16, 4},
		{1_000_000, 1000},
	}
	for _, c := range cases {
		got, err := IntSqrt(sdkmath.NewInt(c.in))
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(c.want), got, "sqrt(%d)", c.in)
	}

	_, err := IntSqrt(sdkmath.NewInt(-4))
	assert.ErrorIs(t, err, ErrAmountNegative)
}

func TestSDKIntToFloat64(t *testing.T) {
	out, err := SDKIntToFloat64(sdkmath.NewInt(1_500_000), 6)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, out, 1e-9)

	_, err = SDKIntToFloat64(sdkmath.NewInt(1), 19)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = SDKIntToFloat64(sdkmath.NewInt(-1), 6)
	assert.ErrorIs(t, err, ErrAmountNegative)
}
