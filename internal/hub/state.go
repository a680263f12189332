package hub

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/planner"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// MaxRewardFee caps the protocol's cut of harvested rewards.
var MaxRewardFee = sdkmath.LegacyNewDecWithPrec(1, 1)

// Config is the hub's persisted configuration.
type Config struct {
	Owner              string             `json:"owner"`
	NewOwner           string             `json:"new_owner,omitempty"`
	Operator           string             `json:"operator"`
	Utoken             string             `json:"utoken"`
	StakeDenom         string             `json:"stake_denom"`
	EpochPeriod        uint64             `json:"epoch_period"`
	UnbondPeriod       uint64             `json:"unbond_period"`
	Validators         []string           `json:"validators"`
	FeeConfig          FeeConfig          `json:"fee_config"`
	DonationsEnabled   bool               `json:"donations_enabled"`
	DelegationStrategy DelegationStrategy `json:"delegation_strategy"`
}

func (c Config) UtokenInfo() types.AssetInfo { return types.NativeInfo(c.Utoken) }

func (c Config) StakeInfo() types.AssetInfo { return types.NativeInfo(c.StakeDenom) }

// Validate checks the values a write may change.
func (c Config) Validate() error {
	if c.Owner == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "owner must be set")
	}
	if c.EpochPeriod == 0 {
		return errorsmod.Wrap(types.ErrInvalidConfig, "epoch_period can't be zero")
	}
	if c.UnbondPeriod == 0 {
		return errorsmod.Wrap(types.ErrInvalidConfig, "unbond_period can't be zero")
	}
	fee := c.FeeConfig.ProtocolRewardFee
	if fee.IsNil() || fee.IsNegative() || fee.GT(MaxRewardFee) {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "protocol_reward_fee must be within [0, %s]", MaxRewardFee)
	}
	if c.FeeConfig.ProtocolFeeContract == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "protocol_fee_contract must be set")
	}
	if len(c.Validators) == 0 {
		return types.ErrNoValidators
	}
	_, err := c.Strategy()
	return err
}

// Strategy builds the allocation strategy, validating defined weights against the validator set.
func (c Config) Strategy() (planner.Strategy, error) {
	s, err := planner.FromName(c.DelegationStrategy.Name, c.DelegationStrategy.Weights)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, err.Error())
	}
	if d, ok := s.(planner.Defined); ok {
		if err := d.Validate(c.Validators); err != nil {
			return nil, errorsmod.Wrap(types.ErrInvalidConfig, err.Error())
		}
	}
	return s, nil
}

func (c Config) Planner() (*planner.Planner, error) {
	s, err := c.Strategy()
	if err != nil {
		return nil, err
	}
	return planner.New(s), nil
}

var (
	config          = store.NewItem[Config]("config")
	totalShares     = store.NewItem[sdkmath.Int]("total_ustake")
	unlockedCoins   = store.NewItem[types.Coins]("unlocked_coins")
	pendingBatch    = store.NewItem[types.PendingBatch]("pending_batch")
	previousBatches = store.NewMap[types.Batch]("previous_batches")
	// requests are stored twice so both batch and user lookups are prefix scans
	requestsByBatch = store.NewMap[types.UnbondRequest]("unbond_requests")
	requestsByUser  = store.NewMap[types.UnbondRequest]("unbond_requests_user")
	exchangeHistory = ledger.NewHistory("exchange_history")
)

func loadSupply(kv storetypes.KVStore) (sdkmath.Int, error) {
	v, _, err := totalShares.MayLoad(kv)
	return utils.OrZero(v), err
}

func loadUnlocked(kv storetypes.KVStore) (types.Coins, error) {
	v, _, err := unlockedCoins.MayLoad(kv)
	return v, err
}

func batchKey(id uint64) []byte { return store.U64(id) }

func loadRequest(kv storetypes.KVStore, id uint64, user string) (types.UnbondRequest, bool, error) {
	return requestsByBatch.MayLoad(kv, store.Join(store.U64(id), store.Str(user)))
}

func saveRequest(kv storetypes.KVStore, req types.UnbondRequest) error {
	if err := requestsByBatch.Save(kv, store.Join(store.U64(req.ID), store.Str(req.User)), req); err != nil {
		return err
	}
	return requestsByUser.Save(kv, store.Join(store.Str(req.User), store.U64(req.ID)), req)
}

func removeRequest(kv storetypes.KVStore, id uint64, user string) {
	requestsByBatch.Remove(kv, store.Join(store.U64(id), store.Str(user)))
	requestsByUser.Remove(kv, store.Join(store.Str(user), store.U64(id)))
}

// userRequests lists the requests of user in batch order, ids strictly after startAfter.
func userRequests(kv storetypes.KVStore, user string, startAfter *uint64, limit int) ([]types.UnbondRequest, error) {
	var start []byte
	if startAfter != nil {
		start = store.After(store.U64(*startAfter))
	}
	entries, err := requestsByUser.Collect(kv, store.Str(user), start, nil, store.Ascending, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.UnbondRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}

// unreconciledBatches returns the submitted batches not yet reconciled, oldest first.
func unreconciledBatches(kv storetypes.KVStore) ([]types.Batch, error) {
	var out []types.Batch
	err := previousBatches.Range(kv, nil, nil, nil, store.Ascending, func(_ []byte, b types.Batch) (bool, error) {
		if !b.Reconciled {
			out = append(out, b)
		}
		return false, nil
	})
	return out, err
}
