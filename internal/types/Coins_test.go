package types

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinsMergePerAsset(t *testing.T) {
	var c Coins
	c, err := c.AddMany(
		NativeAsset("utoken", sdkmath.NewInt(100)),
		IssuedAsset("lp_contract", sdkmath.NewInt(7)),
		NativeAsset("utoken", sdkmath.NewInt(23)),
		NativeAsset("ustake", sdkmath.ZeroInt()),
	)
	require.NoError(t, err)
	require.Len(t, c, 2)

	assert.Equal(t, int64(123), c.Find(NativeInfo("utoken")).Amount.Int64())
	assert.Equal(t, int64(7), c.Find(IssuedInfo("lp_contract")).Amount.Int64())
	assert.True(t, c.Find(NativeInfo("ustake")).Amount.IsZero())

	c = c.Retain(func(a Asset) bool { return a.Info.IsNative() })
	assert.Equal(t, "123utoken", c.String())
}

func TestAssetInfoIdentity(t *testing.T) {
	native := NativeInfo("lp_contract")
	issued := IssuedInfo("lp_contract")
	assert.False(t, native.Equal(issued))
	assert.Equal(t, "native:lp_contract", native.Key())
	assert.Equal(t, "issued:lp_contract", issued.Key())

	require.NoError(t, NativeInfo("utoken").Validate())
	require.ErrorIs(t, IssuedInfo("").Validate(), ErrInvalidConfig)
	require.ErrorIs(t, AssetInfo{Kind: "cw721"}.Validate(), ErrInvalidConfig)
}

func TestSingleFund(t *testing.T) {
	_, err := SingleFund(nil)
	require.ErrorIs(t, err, ErrInvalidFunds)

	a, err := SingleFund([]Asset{NativeAsset("utoken", sdkmath.NewInt(5))})
	require.NoError(t, err)
	assert.Equal(t, "5utoken", a.String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTiming, KindOf(ErrSubmitBatchTooEarly.Wrap("at 100")))
	assert.Equal(t, KindValidation, KindOf(ErrDonationsDisabled))
	assert.Equal(t, KindConsistency, KindOf(ErrReconcileShortfall))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
}
