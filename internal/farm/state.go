package farm

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

var (
	// MaxFee caps the performance fee taken from compounded rewards.
	MaxFee = sdkmath.LegacyNewDecWithPrec(5, 1)

	MaxDepositProfitDelay = 7 * ledger.Day
)

type Config struct {
	Owner               string            `json:"owner"`
	NewOwner            string            `json:"new_owner,omitempty"`
	Generator           Generator         `json:"staking_contract"`
	CompoundProxy       Compounder        `json:"compound_proxy"`
	Controller          string            `json:"controller"`
	Fee                 sdkmath.LegacyDec `json:"fee"`
	FeeCollector        string            `json:"fee_collector"`
	DepositProfitDelayS uint64            `json:"deposit_profit_delay_s"`
	LPToken             types.AssetInfo   `json:"lp_token"`
	BaseRewardToken     types.AssetInfo   `json:"base_reward_token"`
}

func (c Config) Validate() error {
	if c.Owner == "" || c.Controller == "" || c.FeeCollector == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "owner, controller and fee_collector must be set")
	}
	if c.Generator == "" || c.CompoundProxy == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "staking_contract and compound_proxy must be set")
	}
	if c.Fee.IsNil() || c.Fee.IsNegative() || c.Fee.GT(MaxFee) {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "fee must be within [0, %s]", MaxFee)
	}
	if c.DepositProfitDelayS > MaxDepositProfitDelay {
		return errorsmod.Wrap(types.ErrInvalidConfig, "deposit_profit_delay_s too high")
	}
	if err := c.LPToken.Validate(); err != nil {
		return err
	}
	return c.BaseRewardToken.Validate()
}

// State tracks the amp-LP share supply against the LP held in the generator.
type State struct {
	AmpLPToken     types.AssetInfo `json:"amp_lp_token"`
	TotalBondShare sdkmath.Int     `json:"total_bond_share"`
}

// BondAmount is the LP redeemable for share out of lpBalance.
func (s State) BondAmount(lpBalance, share sdkmath.Int) (sdkmath.Int, error) {
	if utils.OrZero(s.TotalBondShare).IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return shares.UnbondAmount(s.TotalBondShare, share, lpBalance)
}

func (s State) ExchangeRate(totalLP sdkmath.Int) sdkmath.LegacyDec {
	return shares.ExchangeRate(totalLP, s.TotalBondShare)
}

var (
	config          = store.NewItem[Config]("config")
	state           = store.NewItem[State]("state")
	exchangeHistory = ledger.NewHistory("exchange_history")
)

func loadAll(kv storetypes.KVStore) (Config, State, error) {
	cfg, err := config.Load(kv)
	if err != nil {
		return cfg, State{}, err
	}
	st, err := state.Load(kv)
	return cfg, st, err
}
