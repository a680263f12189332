package chain

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

const (
	stakingNamespace = "staking"

	// Module accounts holding bonded stake and undistributed rewards.
	BondedPoolAddress   = "module/bonded_pool"
	DistributionAddress = "module/distribution"
)

// StakingParams are fixed at genesis.
type StakingParams struct {
	BondDenom       string   `json:"bond_denom"`
	UnbondingTime   uint64   `json:"unbonding_time"`
	Validators      []string `json:"validators"`
	MaxEntriesPerTx int      `json:"max_entries_per_tx,omitempty"`
}

// UnbondingEntry pays Amount to Delegator once block time reaches Completion.
type UnbondingEntry struct {
	Delegator  string      `json:"delegator"`
	Validator  string      `json:"validator"`
	Amount     sdkmath.Int `json:"amount"`
	Completion uint64      `json:"completion"`
}

var (
	stakingParams = store.NewItem[StakingParams]("params")
	delegations   = store.NewMap[sdkmath.Int]("delegations")
	rewards       = store.NewMap[sdkmath.Int]("rewards")
	unbondings    = store.NewMap[UnbondingEntry]("unbondings")
	unbondingSeq  = store.NewItem[uint64]("unbonding_seq")
)

// Staking is the delegation backend of the hub: bonding, rewards, unbonding and slashing.
type Staking struct {
	kv   storetypes.KVStore
	bank Bank
}

func NewStaking(kv storetypes.KVStore, bank Bank) Staking {
	return Staking{kv: store.Prefixed(kv, stakingNamespace), bank: bank}
}

func (s Staking) InitGenesis(params StakingParams) error {
	return stakingParams.Save(s.kv, params)
}

func (s Staking) Params() (StakingParams, error) {
	return stakingParams.Load(s.kv)
}

func (s Staking) bondInfo() (types.AssetInfo, StakingParams, error) {
	p, err := s.Params()
	if err != nil {
		return types.AssetInfo{}, p, err
	}
	return types.NativeInfo(p.BondDenom), p, nil
}

func (s Staking) assertValidator(p StakingParams, validator string) error {
	for _, v := range p.Validators {
		if v == validator {
			return nil
		}
	}
	return errorsmod.Wrapf(types.ErrNotFound, "validator %s", validator)
}

func pairKey(delegator, validator string) []byte {
	return store.Join(store.Str(delegator), store.Str(validator))
}

func (s Staking) Delegation(delegator, validator string) (sdkmath.Int, error) {
	v, _, err := delegations.MayLoad(s.kv, pairKey(delegator, validator))
	return utils.OrZero(v), err
}

// Delegations lists the non-zero delegations of delegator in validator order.
func (s Staking) Delegations(delegator string) ([]types.Delegation, error) {
	var out []types.Delegation
	err := delegations.Range(s.kv, store.Str(delegator), nil, nil, store.Ascending, func(key []byte, v sdkmath.Int) (bool, error) {
		validator, _, err := store.ParseStr(key)
		if err != nil {
			return true, err
		}
		if v.IsPositive() {
			out = append(out, types.Delegation{Validator: validator, Amount: v})
		}
		return false, nil
	})
	return out, err
}

func (s Staking) setDelegation(delegator, validator string, v sdkmath.Int) error {
	if v.IsZero() {
		delegations.Remove(s.kv, pairKey(delegator, validator))
		return nil
	}
	return delegations.Save(s.kv, pairKey(delegator, validator), v)
}

// PendingRewards returns the rewards accrued on one delegation.
func (s Staking) PendingRewards(delegator, validator string) (sdkmath.Int, error) {
	v, _, err := rewards.MayLoad(s.kv, pairKey(delegator, validator))
	return utils.OrZero(v), err
}

// AccrueRewards credits reward to a delegation, funding the distribution module with it.
func (s Staking) AccrueRewards(delegator, validator string, reward sdkmath.Int) error {
	info, _, err := s.bondInfo()
	if err != nil {
		return err
	}
	if err := s.bank.Fund(DistributionAddress, info.WithAmount(reward)); err != nil {
		return err
	}
	cur, err := s.PendingRewards(delegator, validator)
	if err != nil {
		return err
	}
	next, err := utils.CheckedAdd(cur, reward)
	if err != nil {
		return err
	}
	return rewards.Save(s.kv, pairKey(delegator, validator), next)
}

// WithdrawRewards pays out the accrued rewards of one delegation.
func (s Staking) WithdrawRewards(delegator, validator string) (sdkmath.Int, error) {
	info, _, err := s.bondInfo()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	pending, err := s.PendingRewards(delegator, validator)
	if err != nil || pending.IsZero() {
		return sdkmath.ZeroInt(), err
	}
	rewards.Remove(s.kv, pairKey(delegator, validator))
	return pending, s.bank.Send(DistributionAddress, delegator, info.WithAmount(pending))
}

// Delegate bonds amount and, as on a real chain, withdraws the delegation's pending rewards.
func (s Staking) Delegate(delegator, validator string, amount sdkmath.Int) error {
	info, p, err := s.bondInfo()
	if err != nil {
		return err
	}
	if err := s.assertValidator(p, validator); err != nil {
		return err
	}
	if _, err := s.WithdrawRewards(delegator, validator); err != nil {
		return err
	}
	if err := s.bank.Send(delegator, BondedPoolAddress, info.WithAmount(amount)); err != nil {
		return err
	}
	cur, err := s.Delegation(delegator, validator)
	if err != nil {
		return err
	}
	next, err := utils.CheckedAdd(cur, amount)
	if err != nil {
		return err
	}
	return s.setDelegation(delegator, validator, next)
}

// Undelegate starts unbonding amount; it is paid out after the unbonding time.
func (s Staking) Undelegate(now uint64, delegator, validator string, amount sdkmath.Int) error {
	_, p, err := s.bondInfo()
	if err != nil {
		return err
	}
	if _, err := s.WithdrawRewards(delegator, validator); err != nil {
		return err
	}
	cur, err := s.Delegation(delegator, validator)
	if err != nil {
		return err
	}
	next, err := utils.CheckedSub(cur, amount)
	if err != nil {
		return errorsmod.Wrapf(err, "undelegate %s from %s", amount, validator)
	}
	if err := s.setDelegation(delegator, validator, next); err != nil {
		return err
	}

	seq, err := unbondingSeq.Update(s.kv, func(n uint64) (uint64, error) { return n + 1, nil })
	if err != nil {
		return err
	}
	completion := now + p.UnbondingTime
	return unbondings.Save(s.kv, store.Join(store.U64(completion), store.U64(seq)), UnbondingEntry{
		Delegator:  delegator,
		Validator:  validator,
		Amount:     amount,
		Completion: completion,
	})
}

// Redelegate moves stake between validators without unbonding.
func (s Staking) Redelegate(delegator, src, dst string, amount sdkmath.Int) error {
	_, p, err := s.bondInfo()
	if err != nil {
		return err
	}
	if err := s.assertValidator(p, dst); err != nil {
		return err
	}
	for _, v := range []string{src, dst} {
		if _, err := s.WithdrawRewards(delegator, v); err != nil {
			return err
		}
	}
	from, err := s.Delegation(delegator, src)
	if err != nil {
		return err
	}
	rest, err := utils.CheckedSub(from, amount)
	if err != nil {
		return errorsmod.Wrapf(err, "redelegate %s from %s", amount, src)
	}
	to, err := s.Delegation(delegator, dst)
	if err != nil {
		return err
	}
	sum, err := utils.CheckedAdd(to, amount)
	if err != nil {
		return err
	}
	if err := s.setDelegation(delegator, src, rest); err != nil {
		return err
	}
	return s.setDelegation(delegator, dst, sum)
}

// Unbonding sums the entries still in flight for delegator.
func (s Staking) Unbonding(delegator string) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	err := unbondings.Range(s.kv, nil, nil, nil, store.Ascending, func(_ []byte, e UnbondingEntry) (bool, error) {
		if e.Delegator == delegator {
			total = total.Add(e.Amount)
		}
		return false, nil
	})
	return total, err
}

// ProcessMatured pays out every unbonding entry completed at or before now.
func (s Staking) ProcessMatured(now uint64) (int, error) {
	info, _, err := s.bondInfo()
	if err != nil {
		return 0, err
	}
	matured, err := unbondings.Collect(s.kv, nil, nil, store.After(store.U64(now)), store.Ascending, 0)
	if err != nil {
		return 0, err
	}
	for _, e := range matured {
		if err := s.bank.Send(BondedPoolAddress, e.Value.Delegator, info.WithAmount(e.Value.Amount)); err != nil {
			return 0, err
		}
		unbondings.Remove(s.kv, e.Key)
	}
	return len(matured), nil
}

// Slash burns fraction of every delegation and in-flight unbonding on validator.
func (s Staking) Slash(validator string, fraction sdkmath.LegacyDec) (sdkmath.Int, error) {
	info, _, err := s.bondInfo()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	slashed := sdkmath.ZeroInt()

	all, err := delegations.Collect(s.kv, nil, nil, nil, store.Ascending, 0)
	if err != nil {
		return slashed, err
	}
	for _, e := range all {
		delegator, rest, err := store.ParseStr(e.Key)
		if err != nil {
			return slashed, err
		}
		v, _, err := store.ParseStr(rest)
		if err != nil {
			return slashed, err
		}
		if v != validator {
			continue
		}
		cut, err := utils.MulDec(e.Value, fraction)
		if err != nil {
			return slashed, err
		}
		if err := s.setDelegation(delegator, v, e.Value.Sub(cut)); err != nil {
			return slashed, err
		}
		slashed = slashed.Add(cut)
	}

	entries, err := unbondings.Collect(s.kv, nil, nil, nil, store.Ascending, 0)
	if err != nil {
		return slashed, err
	}
	for _, e := range entries {
		if e.Value.Validator != validator {
			continue
		}
		cut, err := utils.MulDec(e.Value.Amount, fraction)
		if err != nil {
			return slashed, err
		}
		entry := e.Value
		entry.Amount = entry.Amount.Sub(cut)
		if err := unbondings.Save(s.kv, e.Key, entry); err != nil {
			return slashed, err
		}
		slashed = slashed.Add(cut)
	}

	if slashed.IsZero() {
		return slashed, nil
	}
	return slashed, s.bank.Destroy(BondedPoolAddress, info.WithAmount(slashed))
}
