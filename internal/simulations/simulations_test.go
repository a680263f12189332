package simulations

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

var ctx = context.Background()

func n(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func fund(t *testing.T, exec *engine.Executor, addr string, asset types.Asset) {
	t.Helper()
	require.NoError(t, exec.Sudo(ctx, 1, func(m engine.Modules) error {
		return m.Bank.Fund(addr, asset)
	}))
}

func balance(t *testing.T, exec *engine.Executor, addr string, info types.AssetInfo) int64 {
	t.Helper()
	var out sdkmath.Int
	require.NoError(t, exec.View(1, func(_ chain.Querier, m engine.Modules) error {
		var err error
		out, err = m.Bank.Balance(addr, info)
		return err
	}))
	return out.Int64()
}

func TestPairMintsLPForAcceptedFunds(t *testing.T) {
	exec := engine.NewExecutor(store.NewMemory())
	_, err := exec.Instantiate(ctx, "owner", "pair", NewPair(), PairInstantiateMsg{
		Rate:     sdkmath.LegacyMustNewDecFromStr("0.5"),
		Accepted: []types.AssetInfo{types.NativeInfo("uluna"), types.NativeInfo("uusd")},
	}, 1)
	require.NoError(t, err)

	fund(t, exec, "user", types.NativeAsset("uluna", n(1000)))
	fund(t, exec, "user", types.NativeAsset("uusd", n(500)))
	fund(t, exec, "user", types.NativeAsset("uatom", n(10)))

	compound := farm.CompounderExecuteMsg{Compound: &farm.CompoundMsg{Receiver: "cold"}}
	_, err = exec.ExecuteJSON(ctx, "user", "pair", compound, 2,
		types.NativeAsset("uluna", n(1000)), types.NativeAsset("uusd", n(500)))
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance(t, exec, "cold", LPToken("pair")))

	_, err = exec.ExecuteJSON(ctx, "user", "pair", compound, 3, types.NativeAsset("uatom", n(10)))
	require.ErrorIs(t, err, types.ErrInvalidFunds)
	assert.Equal(t, int64(10), balance(t, exec, "user", types.NativeInfo("uatom")))
}

func TestGeneratorDepositsAndRewards(t *testing.T) {
	exec := engine.NewExecutor(store.NewMemory())
	lp := types.IssuedInfo("pair")
	_, err := exec.Instantiate(ctx, "owner", "generator", NewGenerator(), GeneratorInstantiateMsg{
		LPToken:     lp,
		RewardToken: types.NativeInfo("uastro"),
	}, 1)
	require.NoError(t, err)
	fund(t, exec, "farm", lp.WithAmount(n(1000)))
	fund(t, exec, "distributor", types.NativeAsset("uastro", n(300)))

	_, err = exec.ExecuteJSON(ctx, "farm", "generator", farm.GeneratorExecuteMsg{Deposit: &struct{}{}}, 2, lp.WithAmount(n(1000)))
	require.NoError(t, err)
	_, err = exec.ExecuteJSON(ctx, "distributor", "generator",
		farm.GeneratorExecuteMsg{AddRewards: &farm.AddRewardsMsg{Depositor: "farm"}}, 3, types.NativeAsset("uastro", n(300)))
	require.NoError(t, err)

	deposited, err := engine.QueryJSON[sdkmath.Int](exec, "generator", farm.GeneratorQueryMsg{Deposit: &farm.UserQuery{User: "farm"}}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), deposited.Int64())
	pending, err := engine.QueryJSON[farm.PendingTokenResponse](exec, "generator", farm.GeneratorQueryMsg{PendingToken: &farm.UserQuery{User: "farm"}}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(300), pending.Pending.Int64())

	_, err = exec.ExecuteJSON(ctx, "farm", "generator", farm.GeneratorExecuteMsg{ClaimRewards: &struct{}{}}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance(t, exec, "farm", types.NativeInfo("uastro")))

	_, err = exec.ExecuteJSON(ctx, "farm", "generator", farm.GeneratorExecuteMsg{Withdraw: &farm.GeneratorAmount{Amount: n(1001)}}, 6)
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	_, err = exec.ExecuteJSON(ctx, "farm", "generator", farm.GeneratorExecuteMsg{Withdraw: &farm.GeneratorAmount{Amount: n(400)}}, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance(t, exec, "farm", lp))
	assert.Equal(t, int64(600), balance(t, exec, "generator", lp))
}

func TestArbitrageurPaysPremium(t *testing.T) {
	exec := engine.NewExecutor(store.NewMemory())
	xtoken := types.NativeInfo("ustake")
	_, err := exec.Instantiate(ctx, "owner", "arb", NewArbitrageur(), ArbitrageurInstantiateMsg{
		XToken:  xtoken,
		Premium: sdkmath.LegacyMustNewDecFromStr("0.01"),
	}, 1)
	require.NoError(t, err)
	fund(t, exec, "arb", xtoken.WithAmount(n(1500)))
	fund(t, exec, "trader", types.NativeAsset("uluna", n(2000)))

	swap := ArbitrageurExecuteMsg{Swap: &SwapMsg{}}
	_, err = exec.ExecuteJSON(ctx, "trader", "arb", swap, 2, types.NativeAsset("uluna", n(1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(1010), balance(t, exec, "trader", xtoken))

	// 490 left, 1010 owed
	_, err = exec.ExecuteJSON(ctx, "trader", "arb", swap, 3, types.NativeAsset("uluna", n(1000)))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Equal(t, int64(1000), balance(t, exec, "trader", types.NativeInfo("uluna")))
}
