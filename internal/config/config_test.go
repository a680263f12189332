package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "LOG_FILE", "PORT", "METRICS_PORT", "DATA_DIR", "PARAMS_FILE", "KEEPER_INTERVAL_S", "DB_HOST", "NODE_GRPC", "AMQP_URL", "AMQP_QUEUE"} {
		t.Setenv(key, "")
	}

	require.NoError(t, LoadConfig())
	assert.Equal(t, "info", LogLevel)
	assert.Equal(t, "8080", Port)
	assert.Equal(t, 2112, MetricsPort)
	assert.Equal(t, 10*time.Minute, KeeperInterval)
	assert.Nil(t, DB)
	assert.Empty(t, NodeGRPC)
	assert.Equal(t, "lstvault.transactions", AMQPQueue)
}

func TestLoadConfigDatabase(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "vault")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "lstvault")
	t.Setenv("DB_SSLMODE", "")
	t.Setenv("NODE_GRPC", "grpc.example.com:443")
	t.Setenv("NODE_GRPC_TLS", "")

	require.NoError(t, LoadConfig())
	require.NotNil(t, DB)
	assert.Equal(t, "host=db port=6543 user=vault password=secret dbname=lstvault sslmode=disable", DB.DSN())
	assert.True(t, NodeGRPCTLS)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("METRICS_PORT", "not-a-port")
	require.Error(t, LoadConfig())

	t.Setenv("METRICS_PORT", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "")
	require.ErrorIs(t, LoadConfig(), ErrMissingEnv)
}

func TestDefaultParametersAreValid(t *testing.T) {
	params, err := LoadParameters("")
	require.NoError(t, err)
	assert.Equal(t, "uluna", params.Hub.Utoken)
	assert.Len(t, params.ArbVault.UtilizationSteps, 3)
}

const paramsYAML = `
hub:
  owner: admin
  utoken: uluna
  stake_denom: ustake
  epoch_period: 100
  unbond_period: 1000
  validators: [ValA, ValB]
  protocol_fee_contract: fees
  protocol_reward_fee: 0.05
  strategy: defined
  weights:
    - validator: ValA
      weight: 0.75
    - validator: ValB
      weight: 0.25
farm:
  owner: admin
  amp_lp_denom: amplp
  fee: 0.1
  fee_collector: fees
  deposit_profit_delay_s: 3600
  reward_denom: uastro
  pair_assets: [uluna, uastro]
arb_vault:
  owner: admin
  lp_denom: arblp
  unbond_time_s: 500
  utilization_steps:
    - profit: 0.005
      max_utilization: 0.5
  protocol_fee_contract: fees
  protocol_performance_fee: 0.1
  protocol_withdraw_fee: 0.01
  immediate_withdraw_fee: 0.05
  whitelist: [bot]
keeper:
  address: bot
`

func writeParams(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParametersFromFile(t *testing.T) {
	t.Setenv("HUB_EPOCH_PERIOD", "50")

	params, err := LoadParameters(writeParams(t, paramsYAML))
	require.NoError(t, err)

	assert.Equal(t, uint64(50), params.Hub.EpochPeriod)
	assert.Equal(t, []string{"ValA", "ValB"}, params.Hub.Validators)
	require.Len(t, params.Hub.Weights, 2)
	assert.Equal(t, "ValA", params.Hub.Weights[0].Validator)
	assert.True(t, Dec(params.Hub.Weights[0].Weight).Equal(Dec("0.75")))
	assert.True(t, Dec(params.Farm.Fee).Equal(Dec("0.1")))
	assert.Equal(t, []string{"bot"}, params.ArbVault.Whitelist)
	assert.Equal(t, "bot", params.Keeper.Address)
}

func TestParametersValidate(t *testing.T) {
	cases := map[string]func(p *Parameters){
		"reward fee above cap":  func(p *Parameters) { p.Hub.ProtocolRewardFee = "0.2" },
		"zero epoch":            func(p *Parameters) { p.Hub.EpochPeriod = 0 },
		"no validators":         func(p *Parameters) { p.Hub.Validators = nil },
		"unknown strategy":      func(p *Parameters) { p.Hub.Strategy = "random" },
		"farm fee above cap":    func(p *Parameters) { p.Farm.Fee = "0.6" },
		"negative farm fee":     func(p *Parameters) { p.Farm.Fee = "-0.1" },
		"low step profit":       func(p *Parameters) { p.ArbVault.UtilizationSteps = []StepParams{{Profit: "0.001", MaxUtilization: "0.5"}} },
		"utilization above one": func(p *Parameters) { p.ArbVault.UtilizationSteps = []StepParams{{Profit: "0.01", MaxUtilization: "1.5"}} },
		"performance fee":       func(p *Parameters) { p.ArbVault.ProtocolPerformanceFee = "0.3" },
		"withdraw fee":          func(p *Parameters) { p.ArbVault.ProtocolWithdrawFee = "0.06" },
		"immediate fee":         func(p *Parameters) { p.ArbVault.ImmediateWithdrawFee = "0.11" },
		"not a decimal":         func(p *Parameters) { p.ArbVault.ImmediateWithdrawFee = "five" },
		"unbond time":           func(p *Parameters) { p.ArbVault.UnbondTimeS = 101 * 24 * 60 * 60 },
		"no keeper":             func(p *Parameters) { p.Keeper.Address = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParameters()
			mutate(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidParameters)
		})
	}
}

func TestLoadParametersRejectsInvalidFile(t *testing.T) {
	_, err := LoadParameters(writeParams(t, "hub:\n  owner: admin\n"))
	require.ErrorIs(t, err, ErrInvalidParameters)

	_, err = LoadParameters(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
