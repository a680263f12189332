package farm

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/utils"
)

// RelevantExchangeRates is how many of the newest points price the deposit profit delay.
const RelevantExchangeRates = 3

// DelayedShare prices a deposit of amount against lpBalance as if delay seconds of the recent
// growth had already accrued, so new deposits only profit once the delay has passed.
// points are newest first. bondShare is the plain price, adjusted the one to mint; it never
// exceeds bondShare.
func DelayedShare(points []ledger.Point, delay uint64, supply, amount, lpBalance sdkmath.Int) (bondShare, adjusted sdkmath.Int, err error) {
	bondShare, err = shares.MintAmount(supply, amount, lpBalance)
	if err != nil || delay == 0 || len(points) < 2 {
		return bondShare, bondShare, err
	}

	current, last := points[0], points[len(points)-1]
	if current.Time <= last.Time {
		return bondShare, bondShare, nil
	}
	factor := ledger.Growth(last.Rate, current.Rate).
		MulInt(sdkmath.NewIntFromUint64(delay)).
		QuoInt(sdkmath.NewIntFromUint64(current.Time - last.Time))

	projected, err := utils.MulDec(lpBalance, sdkmath.LegacyOneDec().Add(factor))
	if err != nil {
		return bondShare, bondShare, err
	}
	discounted, err := shares.MintAmount(supply, amount, projected)
	if err != nil {
		return bondShare, bondShare, err
	}
	return bondShare, utils.MinInt(bondShare, discounted), nil
}
