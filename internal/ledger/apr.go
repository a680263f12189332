package ledger

import (
	sdkmath "cosmossdk.io/math"
)

// maxCompoundableDaily keeps (1+daily)^365 inside the decimal range.
var maxCompoundableDaily = sdkmath.LegacyNewDecWithPrec(5, 1)

// APR is the yield implied by two history points.
type APR struct {
	Daily  sdkmath.LegacyDec  `json:"daily"`
	Annual *sdkmath.LegacyDec `json:"annual,omitempty"`
}

// Growth returns (newer-older)/older, zero when the rate fell.
func Growth(older, newer sdkmath.LegacyDec) sdkmath.LegacyDec {
	if older.IsNil() || !older.IsPositive() || newer.LTE(older) {
		return sdkmath.LegacyZeroDec()
	}
	return newer.Sub(older).Quo(older)
}

// ComputeAPR uses the newest and oldest of points, given newest first.
// It returns nil with fewer than two points or when they share a timestamp.
func ComputeAPR(points []Point) *APR {
	if len(points) < 2 {
		return nil
	}
	current, last := points[0], points[len(points)-1]
	if current.Time <= last.Time {
		return nil
	}

	daily := Growth(last.Rate, current.Rate).
		MulInt(sdkmath.NewIntFromUint64(Day)).
		QuoInt(sdkmath.NewIntFromUint64(current.Time - last.Time))

	apr := &APR{Daily: daily}
	if daily.LTE(maxCompoundableDaily) {
		annual := sdkmath.LegacyOneDec().Add(daily).Power(365).Sub(sdkmath.LegacyOneDec())
		apr.Annual = &annual
	}
	return apr
}
