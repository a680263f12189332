// Package shares converts between a share token and the pooled underlying it is redeemable for.
//
// Every conversion floors, so a pool never promises more underlying than it holds.
package shares

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/utils"
)

// MintAmount returns the shares minted for deposit, priced against the underlying held before it.
// An empty pool mints 1:1.
func MintAmount(supply, deposit, underlyingBefore sdkmath.Int) (sdkmath.Int, error) {
	supply, deposit, underlyingBefore = utils.OrZero(supply), utils.OrZero(deposit), utils.OrZero(underlyingBefore)
	if supply.IsZero() || underlyingBefore.IsZero() {
		return deposit, nil
	}
	return utils.MulRatio(supply, deposit, underlyingBefore)
}

// UnbondAmount returns the underlying owed for burning shares out of supply.
func UnbondAmount(supply, shares, underlying sdkmath.Int) (sdkmath.Int, error) {
	return utils.MulRatio(utils.OrZero(underlying), utils.OrZero(shares), utils.OrZero(supply))
}

// ExchangeRate is underlying per share, exactly one for an empty pool.
func ExchangeRate(underlying, supply sdkmath.Int) sdkmath.LegacyDec {
	supply = utils.OrZero(supply)
	if supply.IsZero() {
		return sdkmath.LegacyOneDec()
	}
	rate, err := utils.RatioDec(utils.OrZero(underlying), supply)
	if err != nil {
		return sdkmath.LegacyOneDec()
	}
	return rate
}
