package utils

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	grouperrors "github.com/cosmos/cosmos-sdk/x/group/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedSubUnderflowMessage(t *testing.T) {
	_, err := CheckedSub(sdkmath.NewInt(1385), sdkmath.NewInt(1506))
	require.ErrorIs(t, err, ErrUnderflow)
	require.ErrorContains(t, err, "Cannot Sub with 1385 and 1506")

	r, err := CheckedSub(sdkmath.NewInt(1506), sdkmath.NewInt(1385))
	require.NoError(t, err)
	assert.Equal(t, int64(121), r.Int64())
}

func TestCheckedAddOverflow(t *testing.T) {
	max := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxBitLen), big.NewInt(1)))

	_, err := CheckedAdd(max, sdkmath.OneInt())
	require.ErrorIs(t, err, ErrOverflow)
	require.ErrorContains(t, err, "Cannot Add with")

	_, err = CheckedMul(max, sdkmath.NewInt(2))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMulRatioWideIntermediate(t *testing.T) {
	// the product needs more than 256 bits, the result does not
	big200 := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	r, err := MulRatio(big200, big200, big200)
	require.NoError(t, err)
	assert.True(t, r.Equal(big200))

	r, err = MulRatio(sdkmath.NewInt(180000), sdkmath.NewInt(100000), sdkmath.NewInt(150000))
	require.NoError(t, err)
	assert.Equal(t, int64(120000), r.Int64())

	_, err = MulRatio(sdkmath.NewInt(1), sdkmath.NewInt(1), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestMulDecFloors(t *testing.T) {
	r, err := MulDec(sdkmath.NewInt(999), sdkmath.LegacyNewDecWithPrec(5, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(49), r.Int64())

	r, err = MulDec(sdkmath.Int{}, sdkmath.LegacyOneDec())
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}

func TestQuoDecAndRatio(t *testing.T) {
	r, err := QuoDec(sdkmath.NewInt(100), sdkmath.LegacyMustNewDecFromStr("1.1"))
	require.NoError(t, err)
	assert.Equal(t, int64(90), r.Int64())

	d, err := RatioDec(sdkmath.NewInt(120000), sdkmath.NewInt(100000))
	require.NoError(t, err)
	assert.Equal(t, "1.200000000000000000", d.String())

	d, err = RatioDec(sdkmath.NewInt(2), sdkmath.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, "0.666666666666666666", d.String())
}

func TestSaturatingSubAndSum(t *testing.T) {
	assert.True(t, SaturatingSub(sdkmath.NewInt(3), sdkmath.NewInt(5)).IsZero())

	total, err := Sum(sdkmath.NewInt(1), sdkmath.NewInt(2), sdkmath.Int{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total.Int64())
}

func TestDecToFloat64(t *testing.T) {
	f, err := DecToFloat64(sdkmath.LegacyMustNewDecFromStr("1.25"))
	require.NoError(t, err)
	assert.InDelta(t, 1.25, f, 1e-12)

	_, err = SDKIntToFloat64(sdkmath.NewInt(-1), 6)
	require.ErrorIs(t, err, ErrAmountNegative)
}

func TestMathErrorsOwnTheirCodespace(t *testing.T) {
	for _, err := range []interface{ Codespace() string }{ErrOverflow, ErrUnderflow, ErrDivideByZero} {
		assert.Equal(t, MathCodespace, err.Codespace())
	}
	assert.NotEqual(t, grouperrors.ErrInvalidDecString.Codespace(), MathCodespace)
}
