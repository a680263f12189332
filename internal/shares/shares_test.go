package shares

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/elys-network/lstvault/internal/types"
)

func n(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func TestMintAmount(t *testing.T) {
	// empty pool bootstraps 1:1
	minted, err := MintAmount(sdkmath.ZeroInt(), n(100_000), sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), minted.Int64())

	minted, err = MintAmount(n(100_000), n(50_000), n(100_000))
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), minted.Int64())

	// supply without underlying, e.g. after a full slash
	minted, err = MintAmount(n(10), n(7), sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, int64(7), minted.Int64())

	minted, err = MintAmount(n(150_000), n(1000), n(180_000))
	require.NoError(t, err)
	assert.Equal(t, int64(833), minted.Int64())
}

func TestUnbondAmount(t *testing.T) {
	claim, err := UnbondAmount(n(150_000), n(100_000), n(180_000))
	require.NoError(t, err)
	assert.Equal(t, int64(120_000), claim.Int64())

	claim, err = UnbondAmount(n(100_000), n(50_000), n(120_000))
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), claim.Int64())

	_, err = UnbondAmount(sdkmath.ZeroInt(), n(1), n(1))
	require.Error(t, err)
}

func TestExchangeRate(t *testing.T) {
	assert.Equal(t, "1.000000000000000000", ExchangeRate(n(5), sdkmath.ZeroInt()).String())
	assert.Equal(t, "1.200000000000000000", ExchangeRate(n(180_000), n(150_000)).String())
	assert.Equal(t, "0.333333333333333333", ExchangeRate(n(1), n(3)).String())
}

func batches(amounts ...int64) []types.Batch {
	out := make([]types.Batch, len(amounts))
	for i, a := range amounts {
		out[i] = types.Batch{ID: uint64(i + 1), TotalShares: n(a), UnderlyingUnclaimed: n(a)}
	}
	return out
}

func TestReconcileEvenSplit(t *testing.T) {
	// expected 12891, actual 12345
	bs := batches(1385, 1506)
	res, err := ReconcileBatches(bs, n(12891-12345))
	require.NoError(t, err)

	assert.Equal(t, int64(1112), bs[0].UnderlyingUnclaimed.Int64())
	assert.Equal(t, int64(1233), bs[1].UnderlyingUnclaimed.Int64())
	assert.Equal(t, int64(273), res.Deducted[0].Int64())
	assert.Equal(t, int64(273), res.Deducted[1].Int64())
	assert.Equal(t, 1, res.Rounds)
	assert.True(t, bs[0].Reconciled && bs[1].Reconciled)
}

func TestReconcileRemainderGoesToFirstBatches(t *testing.T) {
	bs := batches(100, 100, 100)
	res, err := ReconcileBatches(bs, n(8))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 3, 2}, []int64{res.Deducted[0].Int64(), res.Deducted[1].Int64(), res.Deducted[2].Int64()})
}

func TestReconcileUnderflowIsCarried(t *testing.T) {
	bs := batches(10, 1000, 1000)
	res, err := ReconcileBatches(bs, n(300))
	require.NoError(t, err)

	// 100 each, the first can only give 10 and the 90 carried split over the two others
	assert.True(t, bs[0].UnderlyingUnclaimed.IsZero())
	assert.Equal(t, int64(855), bs[1].UnderlyingUnclaimed.Int64())
	assert.Equal(t, int64(855), bs[2].UnderlyingUnclaimed.Int64())
	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Carried, 1)
	assert.Equal(t, int64(90), res.Carried[0].Int64())
	assert.Equal(t, int64(300), res.Total().Int64())
}

func TestReconcileSecondUnderflow(t *testing.T) {
	bs := batches(1, 5, 1000)
	res, err := ReconcileBatches(bs, n(600))
	require.NoError(t, err)
	assert.True(t, bs[0].UnderlyingUnclaimed.IsZero())
	assert.True(t, bs[1].UnderlyingUnclaimed.IsZero())
	assert.Equal(t, int64(406), bs[2].UnderlyingUnclaimed.Int64())
	assert.Equal(t, int64(600), res.Total().Int64())
}

func TestReconcileShortfallTooLarge(t *testing.T) {
	bs := batches(10, 20)
	_, err := ReconcileBatches(bs, n(31))
	require.ErrorIs(t, err, types.ErrReconcileShortfall)
	assert.False(t, bs[0].Reconciled)
	assert.Equal(t, int64(10), bs[0].UnderlyingUnclaimed.Int64())
}

func TestReconcileProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amounts := rapid.SliceOfN(rapid.Int64Range(0, 1_000_000), 1, 12).Draw(t, "amounts")
		var owed int64
		for _, a := range amounts {
			owed += a
		}
		shortfall := rapid.Int64Range(0, owed).Draw(t, "shortfall")

		bs := batches(amounts...)
		res, err := ReconcileBatches(bs, n(shortfall))
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		var left int64
		for i, b := range bs {
			if b.UnderlyingUnclaimed.IsNegative() {
				t.Fatalf("batch %d went negative: %s", i, b.UnderlyingUnclaimed)
			}
			if !b.Reconciled {
				t.Fatalf("batch %d not reconciled", i)
			}
			if b.UnderlyingUnclaimed.Add(res.Deducted[i]).Int64() != amounts[i] {
				t.Fatalf("batch %d deduction does not add up", i)
			}
			left += b.UnderlyingUnclaimed.Int64()
		}
		if res.Total().Int64() != shortfall {
			t.Fatalf("deducted %s, want %d", res.Total(), shortfall)
		}
		if left != owed-shortfall {
			t.Fatalf("left %d, want %d", left, owed-shortfall)
		}

		// a second pass without further shortfall changes nothing
		again, err := ReconcileBatches(bs, sdkmath.ZeroInt())
		if err != nil || !again.Total().IsZero() {
			t.Fatalf("second reconcile deducted %s (err %v)", again.Total(), err)
		}
	})
}

func TestMintUnbondRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Int64Range(0, 1_000_000_000).Draw(t, "supply")
		underlying := rapid.Int64Range(0, 1_000_000_000).Draw(t, "underlying")
		if supply == 0 || underlying == 0 {
			supply, underlying = 0, 0
		}
		deposit := rapid.Int64Range(1, 1_000_000_000).Draw(t, "deposit")

		minted, err := MintAmount(n(supply), n(deposit), n(underlying))
		if err != nil {
			t.Fatal(err)
		}
		if minted.IsZero() {
			return
		}
		back, err := UnbondAmount(n(supply).Add(minted), minted, n(underlying+deposit))
		if err != nil {
			t.Fatal(err)
		}
		if back.GT(n(deposit)) {
			t.Fatalf("redeemed %s for a deposit of %d", back, deposit)
		}
	})
}
