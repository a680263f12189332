/*

This file contains the deployment parameters of the daemon: the instantiate settings of the hub,
the farm and the arb vault, plus the keeper account that operates them.

Parameters are read from a yaml file through viper. Every key can be overridden from the
environment with dots replaced by underscores, e.g. hub.epoch_period as HUB_EPOCH_PERIOD.

*/

package config

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/viper"

	"github.com/elys-network/lstvault/internal/arbvault"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/planner"
)

var ErrInvalidParameters = errors.New("invalid parameters")

type Parameters struct {
	Hub      HubParams      `mapstructure:"hub"`
	Farm     FarmParams     `mapstructure:"farm"`
	ArbVault ArbVaultParams `mapstructure:"arb_vault"`
	Keeper   KeeperParams   `mapstructure:"keeper"`
}

// ValidatorWeight is a list entry because viper lowercases map keys.
type ValidatorWeight struct {
	Validator string `mapstructure:"validator"`
	Weight    string `mapstructure:"weight"`
}

// HubParams also seeds the staking module: utoken is the bond denom and unbond_period its unbonding time.
type HubParams struct {
	Owner               string            `mapstructure:"owner"`
	Utoken              string            `mapstructure:"utoken"`
	StakeDenom          string            `mapstructure:"stake_denom"`
	EpochPeriod         uint64            `mapstructure:"epoch_period"`
	UnbondPeriod        uint64            `mapstructure:"unbond_period"`
	Validators          []string          `mapstructure:"validators"`
	ProtocolFeeContract string            `mapstructure:"protocol_fee_contract"`
	ProtocolRewardFee   string            `mapstructure:"protocol_reward_fee"`
	DonationsEnabled    bool              `mapstructure:"donations_enabled"`
	Strategy            string            `mapstructure:"strategy"`
	Weights             []ValidatorWeight `mapstructure:"weights"`
}

type FarmParams struct {
	Owner               string   `mapstructure:"owner"`
	AmpLPDenom          string   `mapstructure:"amp_lp_denom"`
	Fee                 string   `mapstructure:"fee"`
	FeeCollector        string   `mapstructure:"fee_collector"`
	DepositProfitDelayS uint64   `mapstructure:"deposit_profit_delay_s"`
	RewardDenom         string   `mapstructure:"reward_denom"`
	PairAssets          []string `mapstructure:"pair_assets"`
}

type StepParams struct {
	Profit         string `mapstructure:"profit"`
	MaxUtilization string `mapstructure:"max_utilization"`
}

type ArbVaultParams struct {
	Owner                  string       `mapstructure:"owner"`
	LPDenom                string       `mapstructure:"lp_denom"`
	UnbondTimeS            uint64       `mapstructure:"unbond_time_s"`
	UtilizationSteps       []StepParams `mapstructure:"utilization_steps"`
	ProtocolFeeContract    string       `mapstructure:"protocol_fee_contract"`
	ProtocolPerformanceFee string       `mapstructure:"protocol_performance_fee"`
	ProtocolWithdrawFee    string       `mapstructure:"protocol_withdraw_fee"`
	ImmediateWithdrawFee   string       `mapstructure:"immediate_withdraw_fee"`
	Whitelist              []string     `mapstructure:"whitelist"`
}

// KeeperParams names the account the keeper loop signs with. It is the hub operator,
// the farm controller and a whitelisted arb vault executor.
type KeeperParams struct {
	Address string `mapstructure:"address"`
}

// DefaultParameters is used when no parameters file is configured.
func DefaultParameters() Parameters {
	return Parameters{
		Hub: HubParams{
			Owner:               "owner",
			Utoken:              "uluna",
			StakeDenom:          "ustake",
			EpochPeriod:         3 * 24 * 60 * 60, // 3 days
			UnbondPeriod:        21 * 24 * 60 * 60,
			Validators:          []string{"validator_a", "validator_b", "validator_c"},
			ProtocolFeeContract: "fee_collector",
			ProtocolRewardFee:   "0.05",
			Strategy:            planner.StrategyUniform,
		},
		Farm: FarmParams{
			Owner:               "owner",
			AmpLPDenom:          "amplp",
			Fee:                 "0.05",
			FeeCollector:        "fee_collector",
			DepositProfitDelayS: 24 * 60 * 60,
			RewardDenom:         "uastro",
			PairAssets:          []string{"uluna", "uastro"},
		},
		ArbVault: ArbVaultParams{
			Owner:       "owner",
			LPDenom:     "arblp",
			UnbondTimeS: 24 * 24 * 60 * 60,
			UtilizationSteps: []StepParams{
				{Profit: "0.005", MaxUtilization: "0.5"},
				{Profit: "0.01", MaxUtilization: "0.7"},
				{Profit: "0.015", MaxUtilization: "1"},
			},
			ProtocolFeeContract:    "fee_collector",
			ProtocolPerformanceFee: "0.1",
			ProtocolWithdrawFee:    "0.01",
			ImmediateWithdrawFee:   "0.05",
		},
		Keeper: KeeperParams{Address: "keeper"},
	}
}

// LoadParameters reads file, or returns DefaultParameters when file is empty.
// A parameters file replaces the defaults entirely.
func LoadParameters(file string) (Parameters, error) {
	if file == "" {
		params := DefaultParameters()
		return params, params.Validate()
	}

	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return Parameters{}, fmt.Errorf("failed to read parameters file: %w", err)
	}
	var params Parameters
	if err := v.Unmarshal(&params); err != nil {
		return Parameters{}, fmt.Errorf("failed to decode parameters file: %w", err)
	}
	if err := params.Validate(); err != nil {
		return Parameters{}, err
	}
	return params, nil
}

func (p Parameters) Validate() error {
	return errors.Join(p.Hub.Validate(), p.Farm.Validate(), p.ArbVault.Validate(), p.Keeper.Validate())
}

func (p HubParams) Validate() error {
	var errs []error
	if p.Owner == "" || p.Utoken == "" || p.StakeDenom == "" {
		errs = append(errs, invalid("hub: owner, utoken and stake_denom are required"))
	}
	if p.EpochPeriod == 0 {
		errs = append(errs, invalid("hub: epoch_period must be positive"))
	}
	if p.UnbondPeriod == 0 {
		errs = append(errs, invalid("hub: unbond_period must be positive"))
	}
	if len(p.Validators) == 0 {
		errs = append(errs, invalid("hub: at least one validator is required"))
	}
	errs = append(errs, checkFraction("hub: protocol_reward_fee", p.ProtocolRewardFee, hub.MaxRewardFee))

	switch p.Strategy {
	case "", planner.StrategyUniform:
	case planner.StrategyDefined:
		for _, w := range p.Weights {
			errs = append(errs, checkFraction("hub: weight of "+w.Validator, w.Weight, sdkmath.LegacyOneDec()))
		}
		if len(p.Weights) == 0 {
			errs = append(errs, invalid("hub: the defined strategy needs weights"))
		}
	default:
		errs = append(errs, invalid("hub: unknown strategy "+p.Strategy))
	}
	return errors.Join(errs...)
}

func (p FarmParams) Validate() error {
	var errs []error
	if p.Owner == "" || p.AmpLPDenom == "" || p.FeeCollector == "" || p.RewardDenom == "" {
		errs = append(errs, invalid("farm: owner, amp_lp_denom, fee_collector and reward_denom are required"))
	}
	if len(p.PairAssets) == 0 {
		errs = append(errs, invalid("farm: pair_assets must not be empty"))
	}
	errs = append(errs, checkFraction("farm: fee", p.Fee, farm.MaxFee))
	return errors.Join(errs...)
}

func (p ArbVaultParams) Validate() error {
	var errs []error
	if p.Owner == "" || p.LPDenom == "" || p.ProtocolFeeContract == "" {
		errs = append(errs, invalid("arb_vault: owner, lp_denom and protocol_fee_contract are required"))
	}
	if p.UnbondTimeS > arbvault.MaxUnbondTimeS {
		errs = append(errs, invalid(fmt.Sprintf("arb_vault: unbond_time_s must be at most %d", arbvault.MaxUnbondTimeS)))
	}
	if len(p.UtilizationSteps) == 0 {
		errs = append(errs, invalid("arb_vault: at least one utilization step is required"))
	}
	for i, s := range p.UtilizationSteps {
		profit, err := parseDec(s.Profit)
		if err != nil || profit.LT(arbvault.MinProfit) {
			errs = append(errs, invalid(fmt.Sprintf("arb_vault: step %d profit must be at least %s", i, arbvault.MinProfit)))
		}
		errs = append(errs, checkFraction(fmt.Sprintf("arb_vault: step %d max_utilization", i), s.MaxUtilization, sdkmath.LegacyOneDec()))
	}
	errs = append(errs,
		checkFraction("arb_vault: protocol_performance_fee", p.ProtocolPerformanceFee, arbvault.MaxPerformanceFee),
		checkFraction("arb_vault: protocol_withdraw_fee", p.ProtocolWithdrawFee, arbvault.MaxWithdrawFee),
		checkFraction("arb_vault: immediate_withdraw_fee", p.ImmediateWithdrawFee, arbvault.MaxImmediateFee),
	)
	return errors.Join(errs...)
}

func (p KeeperParams) Validate() error {
	if p.Address == "" {
		return invalid("keeper: address is required")
	}
	return nil
}

// Dec parses a fraction that Validate already accepted.
func Dec(s string) sdkmath.LegacyDec {
	d, err := parseDec(s)
	if err != nil {
		return sdkmath.LegacyZeroDec()
	}
	return d
}

func parseDec(s string) (sdkmath.LegacyDec, error) {
	if s == "" {
		return sdkmath.LegacyZeroDec(), nil
	}
	return sdkmath.LegacyNewDecFromStr(s)
}

func checkFraction(name, value string, limit sdkmath.LegacyDec) error {
	d, err := parseDec(value)
	if err != nil {
		return invalid(fmt.Sprintf("%s is not a decimal: %q", name, value))
	}
	if d.IsNegative() || d.GT(limit) {
		return invalid(fmt.Sprintf("%s must be within [0, %s], got %s", name, limit, d))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, msg)
}
