/*
This file contains helpers for turning exact SDK amounts into floats for
metrics and dashboards. Accounting never goes through these.
*/

package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// SDKIntToFloat64 converts an SDK Int to float64 scaled down by 10^precision
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

	factor := sdkmath.LegacyNewDec(1)
	for i := 0; i < precision; i++ {
		factor = factor.MulInt64(10)
	}

	return DecToFloat64(sdkmath.LegacyNewDecFromInt(amount).Quo(factor))
}

// DecToFloat64 converts a LegacyDec to float64, rejecting non-finite results
func DecToFloat64(d sdkmath.LegacyDec) (float64, error) {
	if d.IsNil() {
		return 0, ErrAmountNil
	}

	f, err := d.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, f)
	}

	return f, nil
}
