package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/arbvault"
	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/operator"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

const genesisTime = 1_000

var ctx = context.Background()

func deploy(t *testing.T, params config.Parameters) (*App, *store.Root) {
	t.Helper()
	root := store.NewMemory()
	a := New(root, params)
	fresh, err := a.Genesis(ctx, genesisTime)
	require.NoError(t, err)
	require.True(t, fresh)
	return a, root
}

func stepEvent(t *testing.T, steps []Step, name, typ, key string) string {
	t.Helper()
	for _, s := range steps {
		if s.Name != name {
			continue
		}
		for _, ev := range s.Events {
			if ev.Type != typ {
				continue
			}
			v, ok := ev.Get(key)
			require.True(t, ok, "missing attribute %s on %s", key, typ)
			return v
		}
	}
	require.Failf(t, "missing event", "%s in step %s", typ, name)
	return ""
}

func TestGenesisDeploysEveryContract(t *testing.T) {
	params := config.DefaultParameters()
	a, root := deploy(t, params)

	assert.Equal(t, []string{ArbVaultAddr, FarmAddr, GeneratorAddr, HubAddr, PairAddr}, a.Executor.Contracts())

	cfg, err := engine.QueryJSON[hub.ConfigResponse](a.Executor, HubAddr, hub.QueryMsg{Config: &struct{}{}}, genesisTime)
	require.NoError(t, err)
	assert.Equal(t, params.Keeper.Address, cfg.Operator)
	assert.Equal(t, StakeDenom(params), cfg.StakeToken)
	assert.Equal(t, params.Hub.Validators, cfg.Validators)

	vault, err := engine.QueryJSON[arbvault.ConfigResponse](a.Executor, ArbVaultAddr, arbvault.QueryMsg{Config: &struct{}{}}, genesisTime)
	require.NoError(t, err)
	require.Len(t, vault.LSDs, 1)
	assert.Equal(t, HubAddr, vault.LSDs[0].HubAddr)
	assert.Equal(t, StakeDenom(params), vault.LSDs[0].Denom)
	assert.Nil(t, vault.Whitelist)

	// a restart over the same store keeps the deployment
	again := New(root, params)
	fresh, err := again.Genesis(ctx, genesisTime+500)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, a.Executor.Contracts(), again.Executor.Contracts())

	_, err = engine.QueryJSON[hub.StateResponse](again.Executor, HubAddr, hub.QueryMsg{State: &struct{}{}}, genesisTime+500)
	require.NoError(t, err)
}

func TestGenesisFailsOnInvalidContractSettings(t *testing.T) {
	params := config.DefaultParameters()
	params.Farm.PairAssets = nil

	a := New(store.NewMemory(), params)
	_, err := a.Genesis(ctx, genesisTime)
	require.Error(t, err)
	assert.Contains(t, err.Error(), PairAddr)
}

func TestHubStrategyFromParameters(t *testing.T) {
	params := config.DefaultParameters()
	assert.Nil(t, hubInstantiateMsg(params).DelegationStrategy)

	params.Hub.Strategy = "defined"
	params.Hub.Weights = []config.ValidatorWeight{
		{Validator: "validator_a", Weight: "0.6"},
		{Validator: "validator_b", Weight: "0.4"},
	}
	strategy := hubInstantiateMsg(params).DelegationStrategy
	require.NotNil(t, strategy)
	assert.Equal(t, "defined", strategy.Name)
	assert.True(t, strategy.Weights["validator_a"].Equal(sdkmath.LegacyMustNewDecFromStr("0.6")))
}

func TestWhitelistIncludesKeeper(t *testing.T) {
	params := config.DefaultParameters()
	assert.Nil(t, whitelist(params))

	params.ArbVault.Whitelist = []string{"bot"}
	assert.Equal(t, []string{"bot", "keeper"}, whitelist(params))
	assert.Equal(t, []string{"bot"}, params.ArbVault.Whitelist)

	params.ArbVault.Whitelist = []string{"keeper"}
	assert.Equal(t, []string{"keeper"}, whitelist(params))
}

func TestSimulateRunsUnbondingCycle(t *testing.T) {
	a, _ := deploy(t, config.DefaultParameters())

	var out bytes.Buffer
	report, err := a.Simulate(ctx, genesisTime, &out)
	require.NoError(t, err)
	require.Len(t, report.Steps, 15)

	lines := 0
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		var step Step
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &step))
		assert.Equal(t, report.Steps[lines].Name, step.Name)
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, len(report.Steps), lines)

	assert.Equal(t, "1", stepEvent(t, report.Steps, "reconcile", "wasm-hub/reconciled", "ids"))
	deducted, ok := sdkmath.NewIntFromString(stepEvent(t, report.Steps, "reconcile", "wasm-hub/reconciled", "utoken_deducted"))
	require.True(t, ok)
	assert.True(t, deducted.IsPositive(), "slashed unbondings leave a shortfall")

	refunded, ok := sdkmath.NewIntFromString(stepEvent(t, report.Steps, "alice_withdraw", "wasm-hub/unbonded_withdrawn", "utoken_refunded"))
	require.True(t, ok)
	assert.True(t, refunded.IsPositive())

	var balance sdkmath.Int
	require.NoError(t, a.Executor.View(genesisTime, func(q chain.Querier, _ engine.Modules) error {
		var err error
		balance, err = q.Balance(Alice, types.NativeInfo("uluna"))
		return err
	}))
	assert.True(t, refunded.Equal(balance))

	assert.True(t, report.Hub.TotalUtoken.IsPositive())
	assert.True(t, report.Hub.TotalUstake.Equal(sdkmath.NewInt(1_500_000)))
}

func TestKeeperAgainstDeployment(t *testing.T) {
	a, _ := deploy(t, config.DefaultParameters())

	cfg := a.KeeperConfig(nil)
	cfg.Clock = func() uint64 { return genesisTime + 10 }
	k, err := operator.NewKeeper(cfg)
	require.NoError(t, err)

	report := k.RunCycle(ctx)
	status := make(map[string]operator.Status)
	for _, o := range report.Outcomes {
		status[o.Task] = o.Status
	}
	assert.Equal(t, operator.StatusSkipped, status["hub/submit_batch"])
	assert.Equal(t, operator.StatusExecuted, status["hub/reconcile"])
}
