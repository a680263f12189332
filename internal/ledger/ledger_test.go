package ledger

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/store"
)

func dec(s string) sdkmath.LegacyDec { return sdkmath.LegacyMustNewDecFromStr(s) }

func TestComputeExchangeRate(t *testing.T) {
	assert.True(t, ComputeExchangeRate(sdkmath.NewInt(42), sdkmath.ZeroInt()).Equal(sdkmath.LegacyOneDec()))
	assert.Equal(t, "1.200000000000000000", ComputeExchangeRate(sdkmath.NewInt(180_000), sdkmath.NewInt(150_000)).String())
}

func TestHistoryRangeNewestFirst(t *testing.T) {
	kv := store.NewMemory().KV()
	h := NewHistory("exchange_history")
	for i := uint64(1); i <= 40; i++ {
		require.NoError(t, h.Record(kv, i*100, sdkmath.LegacyOneDec()))
	}

	all, err := h.Range(kv, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, DefaultLimit)
	assert.Equal(t, uint64(4000), all[0].Time)

	limit := uint32(100)
	all, err = h.Range(kv, nil, &limit)
	require.NoError(t, err)
	assert.Len(t, all, MaxLimit)

	start := uint64(300)
	older, err := h.Range(kv, &start, &limit)
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, uint64(200), older[0].Time)
	assert.Equal(t, uint64(100), older[1].Time)

	latest, err := h.Latest(kv, 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, uint64(3800), latest[2].Time)
}

func TestDailyHistoryKeepsLastOfDay(t *testing.T) {
	kv := store.NewMemory().KV()
	h := NewDailyHistory("exchange_history")
	require.NoError(t, h.Record(kv, Day+10, dec("1.1")))
	require.NoError(t, h.Record(kv, Day+20, dec("1.2")))
	require.NoError(t, h.Record(kv, 2*Day+5, dec("1.3")))

	points, err := h.Latest(kv, 10)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, uint64(2), points[0].Key)
	assert.Equal(t, uint64(Day+20), points[1].Time)
	assert.True(t, points[1].Rate.Equal(dec("1.2")))
}

func TestComputeAPR(t *testing.T) {
	assert.Nil(t, ComputeAPR(nil))
	assert.Nil(t, ComputeAPR([]Point{{Time: 10, Rate: dec("1")}}))

	apr := ComputeAPR([]Point{
		{Time: 2 * Day, Rate: dec("1.02")},
		{Time: Day, Rate: dec("1.01")},
		{Time: 0, Rate: dec("1")},
	})
	require.NotNil(t, apr)
	assert.Equal(t, "0.010000000000000000", apr.Daily.String())
	require.NotNil(t, apr.Annual)
	assert.InDelta(t, 36.78, apr.Annual.MustFloat64(), 0.01)

	// a falling rate clamps at zero
	apr = ComputeAPR([]Point{{Time: Day, Rate: dec("0.9")}, {Time: 0, Rate: dec("1")}})
	require.NotNil(t, apr)
	assert.True(t, apr.Daily.IsZero())
	assert.True(t, apr.Annual.IsZero())

	// too steep to compound
	apr = ComputeAPR([]Point{{Time: Day, Rate: dec("3")}, {Time: 0, Rate: dec("1")}})
	require.NotNil(t, apr)
	assert.Nil(t, apr.Annual)
}
