package chain

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

func newStaking(t *testing.T) (Staking, Bank) {
	t.Helper()
	kv := store.NewMemory().KV()
	bank := NewBank(kv)
	s := NewStaking(kv, bank)
	require.NoError(t, s.InitGenesis(StakingParams{
		BondDenom:     "uluna",
		UnbondingTime: 100,
		Validators:    []string{"val_a", "val_b"},
	}))
	require.NoError(t, bank.Fund("hub", types.NativeAsset("uluna", sdkmath.NewInt(10_000))))
	return s, bank
}

func TestDelegateWithdrawsRewards(t *testing.T) {
	s, bank := newStaking(t)
	uluna := types.NativeInfo("uluna")

	require.NoError(t, s.Delegate("hub", "val_a", sdkmath.NewInt(4000)))
	require.NoError(t, s.AccrueRewards("hub", "val_a", sdkmath.NewInt(25)))
	require.NoError(t, s.Delegate("hub", "val_a", sdkmath.NewInt(1000)))

	bal, err := bank.Balance("hub", uluna)
	require.NoError(t, err)
	assert.Equal(t, int64(5025), bal.Int64())

	dels, err := s.Delegations("hub")
	require.NoError(t, err)
	require.Len(t, dels, 1)
	assert.Equal(t, "val_a", dels[0].Validator)
	assert.Equal(t, int64(5000), dels[0].Amount.Int64())

	require.ErrorIs(t, s.Delegate("hub", "val_x", sdkmath.NewInt(1)), types.ErrNotFound)
}

func TestUndelegateMaturesAfterUnbondingTime(t *testing.T) {
	s, bank := newStaking(t)
	uluna := types.NativeInfo("uluna")

	require.NoError(t, s.Delegate("hub", "val_a", sdkmath.NewInt(3000)))
	require.NoError(t, s.Undelegate(1000, "hub", "val_a", sdkmath.NewInt(1200)))

	unbonding, err := s.Unbonding("hub")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), unbonding.Int64())

	n, err := s.ProcessMatured(1099)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.ProcessMatured(1100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bal, err := bank.Balance("hub", uluna)
	require.NoError(t, err)
	assert.Equal(t, int64(8200), bal.Int64())

	err = s.Undelegate(1200, "hub", "val_a", sdkmath.NewInt(1801))
	require.ErrorContains(t, err, "Cannot Sub with 1800 and 1801")
}

func TestRedelegate(t *testing.T) {
	s, _ := newStaking(t)
	require.NoError(t, s.Delegate("hub", "val_a", sdkmath.NewInt(900)))
	require.NoError(t, s.Redelegate("hub", "val_a", "val_b", sdkmath.NewInt(900)))

	dels, err := s.Delegations("hub")
	require.NoError(t, err)
	require.Len(t, dels, 1)
	assert.Equal(t, "val_b", dels[0].Validator)
}

func TestSlashCutsDelegationsAndUnbonding(t *testing.T) {
	s, bank := newStaking(t)
	require.NoError(t, s.Delegate("hub", "val_a", sdkmath.NewInt(2000)))
	require.NoError(t, s.Delegate("hub", "val_b", sdkmath.NewInt(2000)))
	require.NoError(t, s.Undelegate(0, "hub", "val_a", sdkmath.NewInt(1000)))

	slashed, err := s.Slash("val_a", sdkmath.LegacyNewDecWithPrec(1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(200), slashed.Int64())

	del, err := s.Delegation("hub", "val_a")
	require.NoError(t, err)
	assert.Equal(t, int64(900), del.Int64())

	unbonding, err := s.Unbonding("hub")
	require.NoError(t, err)
	assert.Equal(t, int64(900), unbonding.Int64())

	pool, err := bank.Balance(BondedPoolAddress, types.NativeInfo("uluna"))
	require.NoError(t, err)
	assert.Equal(t, int64(3800), pool.Int64())
}
