package arbvault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

var (
	MinProfit      = sdkmath.LegacyNewDecWithPrec(5, 3)
	MaxUnbondTimeS = 100 * ledger.Day

	MaxPerformanceFee = sdkmath.LegacyNewDecWithPrec(2, 1)
	MaxWithdrawFee    = sdkmath.LegacyNewDecWithPrec(5, 2)
	MaxImmediateFee   = sdkmath.LegacyNewDecWithPrec(1, 1)

	// resultTolerance is the share of the wanted profit an arbitrage has to realise.
	resultTolerance = sdkmath.LegacyNewDecWithPrec(9, 1)
)

// withdrawPageSize bounds how many released unbonds one withdrawal settles.
const withdrawPageSize = 30

type Config struct {
	Owner            string            `json:"owner"`
	NewOwner         string            `json:"new_owner,omitempty"`
	Utoken           string            `json:"utoken"`
	UnbondTimeS      uint64            `json:"unbond_time_s"`
	LSDs             []LSDConfig       `json:"lsds"`
	UtilizationSteps []UtilizationStep `json:"utilization_steps"`
}

func (c Config) UtokenInfo() types.AssetInfo { return types.NativeInfo(c.Utoken) }

func (c Config) Validate() error {
	if c.Owner == "" || c.Utoken == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "owner and utoken must be set")
	}
	if c.UnbondTimeS > MaxUnbondTimeS {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "unbond_time_s above %d", MaxUnbondTimeS)
	}
	if len(c.UtilizationSteps) == 0 {
		return errorsmod.Wrap(types.ErrInvalidConfig, "at least one utilization step required")
	}
	for i, s := range c.UtilizationSteps {
		if s.Profit.IsNil() || s.Profit.LT(MinProfit) {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "step %d: profit below %s", i, MinProfit)
		}
		if s.MaxUtilization.IsNil() || !s.MaxUtilization.IsPositive() || s.MaxUtilization.GT(sdkmath.LegacyOneDec()) {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "step %d: max_utilization must be within (0, 1]", i)
		}
	}
	seen := make(map[string]bool, len(c.LSDs))
	for _, l := range c.LSDs {
		if l.Name == "" || l.HubAddr == "" || l.Denom == "" {
			return errorsmod.Wrap(types.ErrInvalidConfig, "lsd name, hub_addr and denom must be set")
		}
		if seen[l.Name] {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "duplicate lsd %s", l.Name)
		}
		seen[l.Name] = true
	}
	return nil
}

// step returns the utilization allowed for exactly profit.
func (c Config) step(profit sdkmath.LegacyDec) (UtilizationStep, error) {
	for _, s := range c.UtilizationSteps {
		if s.Profit.Equal(profit) {
			return s, nil
		}
	}
	return UtilizationStep{}, errorsmod.Wrapf(types.ErrNotSupportedProfitStep, "%s", profit)
}

func (f FeeConfig) Validate() error {
	if f.ProtocolFeeContract == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "protocol_fee_contract must be set")
	}
	checks := []struct {
		name string
		v    sdkmath.LegacyDec
		max  sdkmath.LegacyDec
	}{
		{"protocol_performance_fee", f.ProtocolPerformanceFee, MaxPerformanceFee},
		{"protocol_withdraw_fee", f.ProtocolWithdrawFee, MaxWithdrawFee},
		{"immediate_withdraw_fee", f.ImmediateWithdrawFee, MaxImmediateFee},
	}
	for _, c := range checks {
		if c.v.IsNil() || c.v.IsNegative() || c.v.GT(c.max) {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be within [0, %s]", c.name, c.max)
		}
	}
	return nil
}

// LPToken is the vault share token, minted by the vault itself.
type LPToken struct {
	Denom       string      `json:"denom"`
	TotalSupply sdkmath.Int `json:"total_supply"`
}

func (t LPToken) Info() types.AssetInfo { return types.NativeInfo(t.Denom) }

// UnbondHistory is a queued withdrawal of AmountAsset utoken, released at ReleaseTime.
type UnbondHistory struct {
	StartTime   uint64      `json:"start_time"`
	ReleaseTime uint64      `json:"release_time"`
	AmountAsset sdkmath.Int `json:"amount_asset"`
}

// Checkpoint is the vault balance taken before an arbitrage runs.
type Checkpoint struct {
	VaultAvailable sdkmath.Int  `json:"vault_available"`
	TVLUtoken      sdkmath.Int  `json:"tvl_utoken"`
	Active         ClaimBalance `json:"active"`
}

var (
	config            = store.NewItem[Config]("config")
	feeConfig         = store.NewItem[FeeConfig]("fee_config")
	lpToken           = store.NewItem[LPToken]("lp_token")
	whitelist         = store.NewItem[[]string]("whitelist")
	unbondID          = store.NewItem[uint64]("unbond_id")
	balanceLocked     = store.NewItem[sdkmath.Int]("balance_locked")
	balanceCheckpoint = store.NewItem[Checkpoint]("balance_checkpoint")
	unbondHistory     = store.NewMap[UnbondHistory]("unbond_history")
	exchangeHistory   = ledger.NewDailyHistory("exchange_history")
)

func historyKey(user string, id uint64) []byte { return store.Join(store.Str(user), store.U64(id)) }

func loadLocked(kv storetypes.KVStore) (sdkmath.Int, error) {
	v, found, err := balanceLocked.MayLoad(kv)
	if err != nil || !found {
		return sdkmath.ZeroInt(), err
	}
	return v, nil
}

// nextUnbondID hands out ids starting at one.
func nextUnbondID(kv storetypes.KVStore) (uint64, error) {
	id, err := unbondID.Update(kv, func(v uint64) (uint64, error) { return v + 1, nil })
	return id, err
}

// assertNotExecuting rejects reentry while an arbitrage is waiting for its result.
func assertNotExecuting(kv storetypes.KVStore) error {
	if _, found, err := balanceCheckpoint.MayLoad(kv); err != nil {
		return err
	} else if found {
		return types.ErrAlreadyExecuting
	}
	return nil
}

// assertWhitelisted lets anyone through while no whitelist is set.
func assertWhitelisted(kv storetypes.KVStore, sender string) error {
	list, found, err := whitelist.MayLoad(kv)
	if err != nil || !found {
		return err
	}
	for _, w := range list {
		if w == sender {
			return nil
		}
	}
	return errorsmod.Wrapf(types.ErrUnauthorizedNotWhitelisted, "%s", sender)
}
