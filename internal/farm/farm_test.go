package farm_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/simulations"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

const (
	farmAddr      = "farm"
	pairAddr      = "pair"
	generatorAddr = "generator"
	controller    = "controller"
	owner         = "owner"
	feeCollector  = "fee_collector"
	distributor   = "distributor"
)

var (
	ctx   = context.Background()
	lp    = simulations.LPToken(pairAddr)
	astro = types.NativeInfo("uastro")
	luna  = types.NativeInfo("uluna")
	ampLP = types.NativeInfo(chain.FactoryDenom(farmAddr, "amplp"))
)

func n(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

type suite struct {
	t    *testing.T
	exec *engine.Executor
}

func setup(t *testing.T, fee string, delay uint64) *suite {
	t.Helper()
	exec := engine.NewExecutor(store.NewMemory())
	_, err := exec.Instantiate(ctx, owner, pairAddr, simulations.NewPair(), simulations.PairInstantiateMsg{
		Rate:     sdkmath.LegacyOneDec(),
		Accepted: []types.AssetInfo{luna, astro},
	}, 1)
	require.NoError(t, err)
	_, err = exec.Instantiate(ctx, owner, generatorAddr, simulations.NewGenerator(), simulations.GeneratorInstantiateMsg{
		LPToken:     lp,
		RewardToken: astro,
	}, 1)
	require.NoError(t, err)
	_, err = exec.Instantiate(ctx, owner, farmAddr, farm.New(), farm.InstantiateMsg{
		Owner:               owner,
		Controller:          controller,
		LPToken:             lp,
		AmpLPDenom:          "amplp",
		Generator:           generatorAddr,
		CompoundProxy:       pairAddr,
		Fee:                 sdkmath.LegacyMustNewDecFromStr(fee),
		FeeCollector:        feeCollector,
		DepositProfitDelayS: delay,
		BaseRewardToken:     astro,
	}, 1)
	require.NoError(t, err)
	return &suite{t: t, exec: exec}
}

func (s *suite) fund(addr string, asset types.Asset) {
	s.t.Helper()
	require.NoError(s.t, s.exec.Sudo(ctx, 1, func(m engine.Modules) error {
		return m.Bank.Fund(addr, asset)
	}))
}

// provide turns fresh uluna into LP held by user.
func (s *suite) provide(user string, amount int64) {
	s.t.Helper()
	s.fund(user, luna.WithAmount(n(amount)))
	_, err := s.exec.ExecuteJSON(ctx, user, pairAddr,
		farm.CompounderExecuteMsg{Compound: &farm.CompoundMsg{}}, 1, luna.WithAmount(n(amount)))
	require.NoError(s.t, err)
}

// reward credits the farm with generator rewards.
func (s *suite) reward(amount int64, now uint64) {
	s.t.Helper()
	s.fund(distributor, astro.WithAmount(n(amount)))
	_, err := s.exec.ExecuteJSON(ctx, distributor, generatorAddr,
		farm.GeneratorExecuteMsg{AddRewards: &farm.AddRewardsMsg{Depositor: farmAddr}}, now, astro.WithAmount(n(amount)))
	require.NoError(s.t, err)
}

func (s *suite) execute(sender string, msg farm.ExecuteMsg, now uint64, funds ...types.Asset) (*engine.Result, error) {
	return s.exec.ExecuteJSON(ctx, sender, farmAddr, msg, now, funds...)
}

func (s *suite) mustExecute(sender string, msg farm.ExecuteMsg, now uint64, funds ...types.Asset) *engine.Result {
	s.t.Helper()
	res, err := s.execute(sender, msg, now, funds...)
	require.NoError(s.t, err)
	return res
}

func (s *suite) balance(addr string, info types.AssetInfo) int64 {
	s.t.Helper()
	var out sdkmath.Int
	require.NoError(s.t, s.exec.View(1, func(q chain.Querier, _ engine.Modules) error {
		var err error
		out, err = q.Balance(addr, info)
		return err
	}))
	return out.Int64()
}

func (s *suite) state(addr string) farm.StateResponse {
	s.t.Helper()
	st, err := engine.QueryJSON[farm.StateResponse](s.exec, farmAddr, farm.QueryMsg{State: &farm.StateQuery{Addr: addr}}, 1)
	require.NoError(s.t, err)
	return st
}

// action returns key from the farm's attributes emitted for action.
func action(t *testing.T, res *engine.Result, name, key string) string {
	t.Helper()
	for _, e := range res.Events {
		if e.Type != "wasm" {
			continue
		}
		if a, _ := e.Get("action"); a != name {
			continue
		}
		v, ok := e.Get(key)
		require.True(t, ok, "missing attribute %s on %s", key, name)
		return v
	}
	require.Failf(t, "missing action", "%s", name)
	return ""
}

func TestBondCompoundUnbond(t *testing.T) {
	s := setup(t, "0.1", 0)
	s.provide("user", 10_000)

	res := s.mustExecute("user", farm.ExecuteMsg{Bond: &farm.BondMsg{}}, 10, lp.WithAmount(n(1000)))
	assert.Equal(t, "1000", action(t, res, "farm/bond", "bond_share_adjusted"))
	assert.Equal(t, int64(1000), s.balance("user", ampLP))
	assert.Equal(t, int64(1000), s.balance(generatorAddr, lp))

	_, err := s.execute("user", farm.ExecuteMsg{Bond: &farm.BondMsg{}}, 10, luna.WithAmount(n(0)))
	require.ErrorIs(t, err, types.ErrInvalidDeposit)

	s.reward(200, 50)
	_, err = s.execute("user", farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}, 100)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	res = s.mustExecute(controller, farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}, 100)
	assert.Equal(t, "20", action(t, res, "farm/compound", "commission_amount"))
	assert.Equal(t, "180", action(t, res, "farm/compound", "compound_amount"))
	assert.Equal(t, "1.180000000000000000", action(t, res, "farm/stake", "exchange_rate"))
	assert.Equal(t, int64(20), s.balance(feeCollector, astro))

	st := s.state("user")
	assert.Equal(t, int64(1180), st.TotalLP.Int64())
	assert.Equal(t, int64(1000), st.TotalAmpLP.Int64())
	require.NotNil(t, st.UserInfo)
	assert.Equal(t, int64(1180), st.UserInfo.UserLPAmount.Int64())

	rates, err := engine.QueryJSON[farm.ExchangeRatesResponse](s.exec, farmAddr, farm.QueryMsg{ExchangeRates: &farm.ExchangeRatesQuery{}}, 1)
	require.NoError(t, err)
	require.Len(t, rates.ExchangeRates, 1)
	assert.Equal(t, uint64(100), rates.ExchangeRates[0].Time)
	assert.Nil(t, rates.APR)

	_, err = s.execute("user", farm.ExecuteMsg{Unbond: &farm.UnbondMsg{}}, 200, lp.WithAmount(n(10)))
	require.ErrorIs(t, err, types.ErrExpectingShareToken)

	res = s.mustExecute("user", farm.ExecuteMsg{Unbond: &farm.UnbondMsg{}}, 200, ampLP.WithAmount(n(500)))
	assert.Equal(t, "590", action(t, res, "farm/unbond", "amount"))
	assert.Equal(t, int64(9590), s.balance("user", lp))
	assert.Equal(t, int64(500), s.balance("user", ampLP))

	info, err := engine.QueryJSON[farm.UserInfoResponse](s.exec, farmAddr, farm.QueryMsg{UserInfo: &farm.UserQuery{User: "user"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(590), info.TotalLP.Int64())
	assert.Equal(t, int64(590), info.UserLPAmount.Int64())
}

func TestCompoundWithoutRewards(t *testing.T) {
	s := setup(t, "0.1", 0)
	s.provide("user", 1000)
	s.mustExecute("user", farm.ExecuteMsg{Bond: &farm.BondMsg{}}, 10, lp.WithAmount(n(1000)))

	res := s.mustExecute(controller, farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}, 100)
	assert.Equal(t, "0", action(t, res, "farm/compound", "compound_amount"))
	assert.Equal(t, int64(1000), s.state("").TotalLP.Int64())
}

func TestBondAssetsEnforcesMinimumReceive(t *testing.T) {
	s := setup(t, "0", 0)
	s.fund("user", luna.WithAmount(n(30_000)))

	minimum := n(10_000)
	bondAssets := func(amount int64) farm.ExecuteMsg {
		return farm.ExecuteMsg{BondAssets: &farm.BondAssetsMsg{
			Assets:         []types.Asset{luna.WithAmount(n(amount))},
			MinimumReceive: &minimum,
			Receiver:       "user_cold",
		}}
	}

	_, err := s.execute("user", bondAssets(9999), 10, luna.WithAmount(n(9999)))
	require.ErrorIs(t, err, types.ErrAssertionMinimumReceive)
	assert.Equal(t, int64(30_000), s.balance("user", luna))

	res := s.mustExecute("user", bondAssets(10_000), 10, luna.WithAmount(n(10_000)))
	assert.Equal(t, "10000", action(t, res, "farm/bond", "bond_amount"))
	assert.Equal(t, int64(10_000), s.balance("user_cold", ampLP))

	_, err = s.execute("user", bondAssets(10_000), 11, luna.WithAmount(n(9000)))
	require.ErrorIs(t, err, types.ErrInvalidFunds)

	dup := farm.ExecuteMsg{BondAssets: &farm.BondAssetsMsg{
		Assets: []types.Asset{luna.WithAmount(n(10)), luna.WithAmount(n(10))},
	}}
	_, err = s.execute("user", dup, 12, luna.WithAmount(n(20)))
	require.ErrorIs(t, err, types.ErrDuplicateAsset)

	cb := farm.ExecuteMsg{Callback: &farm.CallbackMsg{BondTo: &farm.BondToMsg{To: "user", PrevBalance: n(0)}}}
	_, err = s.execute("user", cb, 13)
	require.ErrorIs(t, err, types.ErrCallbackOnlyByContract)
}

func TestDepositProfitDelayDiscountsNewBonds(t *testing.T) {
	s := setup(t, "0", 1000)
	s.provide("early", 1000)
	s.provide("late", 1210)
	s.mustExecute("early", farm.ExecuteMsg{Bond: &farm.BondMsg{}}, 10, lp.WithAmount(n(1000)))

	s.reward(100, 50)
	s.mustExecute(controller, farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}, 100)
	s.reward(110, 150)
	res := s.mustExecute(controller, farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}, 1100)
	assert.Equal(t, "1.210000000000000000", action(t, res, "farm/stake", "exchange_rate"))

	res = s.mustExecute("late", farm.ExecuteMsg{Bond: &farm.BondMsg{}}, 1200, lp.WithAmount(n(1210)))
	assert.Equal(t, "1000", action(t, res, "farm/bond", "bond_share"))
	assert.Equal(t, "909", action(t, res, "farm/bond", "bond_share_adjusted"))
	assert.Equal(t, int64(909), s.balance("late", ampLP))
	assert.Equal(t, "1909", action(t, res, "farm/bond", "total_amp_lp"))
}

func TestFarmConfigAndOwnership(t *testing.T) {
	s := setup(t, "0.1", 0)

	tooHigh := sdkmath.LegacyMustNewDecFromStr("0.6")
	_, err := s.execute(owner, farm.ExecuteMsg{UpdateConfig: &farm.UpdateConfigMsg{Fee: &tooHigh}}, 5)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
	longDelay := uint64(farm.MaxDepositProfitDelay + 1)
	_, err = s.execute(owner, farm.ExecuteMsg{UpdateConfig: &farm.UpdateConfigMsg{DepositProfitDelayS: &longDelay}}, 5)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	newController := "controller2"
	_, err = s.execute("user", farm.ExecuteMsg{UpdateConfig: &farm.UpdateConfigMsg{Controller: &newController}}, 5)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	s.mustExecute(owner, farm.ExecuteMsg{UpdateConfig: &farm.UpdateConfigMsg{Controller: &newController}}, 5)

	s.mustExecute(owner, farm.ExecuteMsg{TransferOwnership: &farm.TransferOwnershipMsg{NewOwner: "owner2"}}, 6)
	_, err = s.execute("user", farm.ExecuteMsg{AcceptOwnership: &struct{}{}}, 7)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	s.mustExecute("owner2", farm.ExecuteMsg{AcceptOwnership: &struct{}{}}, 7)

	cfg, err := engine.QueryJSON[farm.ConfigResponse](s.exec, farmAddr, farm.QueryMsg{Config: &struct{}{}}, 8)
	require.NoError(t, err)
	assert.Equal(t, "owner2", cfg.Owner)
	assert.Empty(t, cfg.NewOwner)
	assert.Equal(t, newController, cfg.Controller)
	assert.Equal(t, ampLP, cfg.AmpLPToken)
}
