package arbvault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// Balances is a point in time valuation of the vault in utoken. VaultTotal belongs to LP
// holders and excludes queued withdrawals, VaultTakeable is the held utoken not reserved for them.
type Balances struct {
	VaultTotal      sdkmath.Int    `json:"vault_total"`
	VaultAvailable  sdkmath.Int    `json:"vault_available"`
	VaultTakeable   sdkmath.Int    `json:"vault_takeable"`
	Locked          sdkmath.Int    `json:"locked_user_withdrawls"`
	TVLUtoken       sdkmath.Int    `json:"tvl_utoken"`
	LSDUnbonding    sdkmath.Int    `json:"lsd_unbonding"`
	LSDWithdrawable sdkmath.Int    `json:"lsd_withdrawable"`
	LSDXValue       sdkmath.Int    `json:"lsd_xvalue"`
	Details         []ClaimBalance `json:"details,omitempty"`
}

func adapters(cfg Config) []Adapter {
	out := make([]Adapter, 0, len(cfg.LSDs))
	for _, l := range cfg.LSDs {
		out = append(out, Adapter{LSDConfig: l})
	}
	return out
}

// adapterFor finds the LSD issuing asset, disabled ones included.
func adapterFor(cfg Config, asset types.AssetInfo) (Adapter, error) {
	for _, a := range adapters(cfg) {
		if a.Asset().Equal(asset) {
			return a, nil
		}
	}
	return Adapter{}, errorsmod.Wrapf(types.ErrAdapterNotFound, "%s", asset)
}

// selectAdapters filters by name, returning all when names is empty.
func selectAdapters(cfg Config, names []string) ([]Adapter, error) {
	all := adapters(cfg)
	if len(names) == 0 {
		return all, nil
	}
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		found := false
		for _, a := range all {
			if a.Name == name {
				out, found = append(out, a), true
				break
			}
		}
		if !found {
			return nil, errorsmod.Wrapf(types.ErrAdapterNotFound, "%s", name)
		}
	}
	return out, nil
}

// usedContracts collects the addresses of every configured LSD.
func usedContracts(cfg Config) map[string]bool {
	out := make(map[string]bool)
	for _, a := range adapters(cfg) {
		for _, c := range a.UsedContracts() {
			out[c] = true
		}
	}
	return out
}

func loadBalances(deps chain.Deps, env chain.Env, cfg Config) (Balances, error) {
	available, err := chain.Ops(cfg.UtokenInfo()).Balance(deps.Querier, env.Contract)
	if err != nil {
		return Balances{}, err
	}
	locked, err := loadLocked(deps.Store)
	if err != nil {
		return Balances{}, err
	}

	b := Balances{
		VaultAvailable:  available,
		Locked:          locked,
		LSDUnbonding:    sdkmath.ZeroInt(),
		LSDWithdrawable: sdkmath.ZeroInt(),
		LSDXValue:       sdkmath.ZeroInt(),
	}
	for _, a := range adapters(cfg) {
		claim, err := a.Balance(deps.Querier, env.Contract)
		if err != nil {
			return Balances{}, errorsmod.Wrapf(err, "lsd %s", a.Name)
		}
		xvalue, err := claim.XValue()
		if err != nil {
			return Balances{}, err
		}
		if b.LSDUnbonding, err = utils.CheckedAdd(b.LSDUnbonding, claim.Unbonding); err != nil {
			return Balances{}, err
		}
		if b.LSDWithdrawable, err = utils.CheckedAdd(b.LSDWithdrawable, claim.Withdrawable); err != nil {
			return Balances{}, err
		}
		if b.LSDXValue, err = utils.CheckedAdd(b.LSDXValue, xvalue); err != nil {
			return Balances{}, err
		}
		b.Details = append(b.Details, claim)
	}

	if b.TVLUtoken, err = utils.Sum(available, b.LSDUnbonding, b.LSDWithdrawable, b.LSDXValue); err != nil {
		return Balances{}, err
	}
	b.VaultTotal = utils.SaturatingSub(b.TVLUtoken, locked)
	b.VaultTakeable = utils.SaturatingSub(available, locked)
	return b, nil
}

// Claim returns the balance held in the LSD named name.
func (b Balances) Claim(name string) (ClaimBalance, bool) {
	for _, c := range b.Details {
		if c.Name == name {
			return c, true
		}
	}
	return ClaimBalance{}, false
}

// calcTakeable is how much utoken an arbitrage may use while keeping the vault at most
// maxUtilization utilized.
func calcTakeable(total, takeable sdkmath.Int, maxUtilization sdkmath.LegacyDec) (sdkmath.Int, error) {
	allowed, err := utils.MulDec(total, maxUtilization)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	inUse := utils.SaturatingSub(total, takeable)
	return utils.SaturatingSub(allowed, inUse), nil
}

func (b Balances) takeableSteps(cfg Config) ([]TakeableStep, error) {
	out := make([]TakeableStep, 0, len(cfg.UtilizationSteps))
	for _, s := range cfg.UtilizationSteps {
		v, err := calcTakeable(b.VaultTotal, b.VaultTakeable, s.MaxUtilization)
		if err != nil {
			return nil, err
		}
		out = append(out, TakeableStep{Profit: s.Profit, Takeable: v})
	}
	return out, nil
}

// poolFeeFactor is the unexpired part of an unbond period, one at its start and zero once released.
func poolFeeFactor(now, start, release uint64) sdkmath.LegacyDec {
	if release <= start || now >= release {
		return sdkmath.LegacyZeroDec()
	}
	if now <= start {
		return sdkmath.LegacyOneDec()
	}
	left := sdkmath.NewIntFromUint64(release - now)
	period := sdkmath.NewIntFromUint64(release - start)
	ratio, err := utils.RatioDec(left, period)
	if err != nil {
		return sdkmath.LegacyZeroDec()
	}
	return ratio
}

// Fees splits a withdrawal into what the receiver gets and what the protocol and the pool keep.
type Fees struct {
	Receive     sdkmath.Int
	ProtocolFee sdkmath.Int
	PoolFee     sdkmath.Int
}

func calcFees(fc FeeConfig, amount sdkmath.Int, factor sdkmath.LegacyDec) (Fees, error) {
	protocol, err := utils.MulDec(amount, fc.ProtocolWithdrawFee)
	if err != nil {
		return Fees{}, err
	}
	pool, err := utils.MulDec(amount, factor.Mul(fc.ImmediateWithdrawFee))
	if err != nil {
		return Fees{}, err
	}
	fees, err := utils.CheckedAdd(protocol, pool)
	if err != nil {
		return Fees{}, err
	}
	receive, err := utils.CheckedSub(amount, fees)
	if err != nil {
		return Fees{}, err
	}
	return Fees{Receive: receive, ProtocolFee: protocol, PoolFee: pool}, nil
}
