package farm

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/elys-network/lstvault/internal/ledger"
)

func n(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func dec(s string) sdkmath.LegacyDec { return sdkmath.LegacyMustNewDecFromStr(s) }

func TestDelayedShareDiscountsRecentGrowth(t *testing.T) {
	points := []ledger.Point{
		{Time: 2000, Rate: dec("1.1")},
		{Time: 1500, Rate: dec("1.05")},
		{Time: 1000, Rate: dec("1.0")},
	}

	share, adjusted, err := DelayedShare(points, 500, n(1000), n(1155), n(1100))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), share.Int64())
	assert.Equal(t, int64(1000), adjusted.Int64())
}

func TestDelayedShareWithoutDiscount(t *testing.T) {
	points := []ledger.Point{{Time: 2000, Rate: dec("1.1")}, {Time: 1000, Rate: dec("1.0")}}

	share, adjusted, err := DelayedShare(points, 0, n(1000), n(1155), n(1100))
	require.NoError(t, err)
	assert.Equal(t, share, adjusted)

	share, adjusted, err = DelayedShare(points[:1], 500, n(1000), n(1155), n(1100))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), adjusted.Int64())
	assert.Equal(t, share, adjusted)

	// falling rate
	falling := []ledger.Point{{Time: 2000, Rate: dec("0.9")}, {Time: 1000, Rate: dec("1.0")}}
	_, adjusted, err = DelayedShare(falling, 500, n(1000), n(1155), n(1100))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), adjusted.Int64())

	// first deposit bootstraps 1:1
	share, adjusted, err = DelayedShare(points, 500, sdkmath.ZeroInt(), n(700), sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, int64(700), share.Int64())
	assert.Equal(t, int64(700), adjusted.Int64())
}

func TestDelayedShareOverWideTimeSpan(t *testing.T) {
	points := []ledger.Point{
		{Time: math.MaxUint64, Rate: dec("2.0")},
		{Time: 0, Rate: dec("1.0")},
	}

	share, adjusted, err := DelayedShare(points, MaxDepositProfitDelay, n(1000), n(1100), n(1100))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), share.Int64())
	assert.True(t, adjusted.Equal(share))
}

func TestDelayedShareNeverExceedsPlainShare(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Int64Range(1, 1_000_000_000).Draw(t, "supply")
		lp := rapid.Int64Range(1, 1_000_000_000).Draw(t, "lp")
		amount := rapid.Int64Range(1, 1_000_000_000).Draw(t, "amount")
		delay := rapid.Uint64Range(0, MaxDepositProfitDelay).Draw(t, "delay")
		growth := rapid.Int64Range(0, 1000).Draw(t, "growth_bps")

		points := []ledger.Point{
			{Time: 10_000, Rate: sdkmath.LegacyOneDec().Add(sdkmath.LegacyNewDecWithPrec(growth, 4))},
			{Time: 1_000, Rate: sdkmath.LegacyOneDec()},
		}
		share, adjusted, err := DelayedShare(points, delay, n(supply), n(amount), n(lp))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if adjusted.GT(share) || adjusted.IsNegative() {
			t.Fatalf("adjusted %s outside [0, %s]", adjusted, share)
		}
	})
}
