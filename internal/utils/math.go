/*
This file contains the shared fixed-point helpers used by the vault accounting
core: basis-point application, integer square root, and display conversion.
All amount math is floor division on sdkmath.Int; nothing in here rounds up.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

const (
	// BpsDenominator is the denominator for all basis-point configuration.
	BpsDenominator = 10_000
)

// RewardPrecision is the 1e18 scaling factor applied to the global
// reward-per-share accumulator.
var RewardPrecision = sdkmath.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrBpsOutOfRange    = errors.New("basis points out of range")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// ApplyBps returns floor(amount * bps / 10000).
func ApplyBps(amount sdkmath.Int, bps uint32) (sdkmath.Int, error) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	if bps > BpsDenominator {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d", ErrBpsOutOfRange, bps)
	}
	return amount.Mul(sdkmath.NewInt(int64(bps))).Quo(sdkmath.NewInt(BpsDenominator)), nil
}

// IntSqrt returns floor(sqrt(x)) for a non-negative integer.
func IntSqrt(x sdkmath.Int) (sdkmath.Int, error) {
	if x.IsNil() {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if x.IsNegative() {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}
	return sdkmath.NewIntFromBigInt(new(big.Int).Sqrt(x.BigInt())), nil
}

// SDKIntToFloat64 converts an SDK Int to float64 with proper precision handling.
// Only used for display and metrics, never for ledger math.
func SDKIntToFloat64(amount sdkmath.Int, precision int) (float64, error) {
	if precision < 0 || precision > 18 {
		return 0, fmt.Errorf("%w: %d (must be between 0 and 18)", ErrInvalidPrecision, precision)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	decAmount := sdkmath.LegacyNewDecFromInt(amount)
	factor := sdkmath.LegacyNewDec(1)
	for i := 0; i < precision; i++ {
		factor = factor.Mul(sdkmath.LegacyNewDec(10))
	}

	result := decAmount.Quo(factor)
	resultFloat, err := result.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if math.IsNaN(resultFloat) || math.IsInf(resultFloat, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, resultFloat)
	}

	return resultFloat, nil
}
