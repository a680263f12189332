package chain

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

const (
	bankNamespace = "bank"

	// FactoryPrefix marks native denoms created by a contract: factory/{admin}/{subdenom}.
	FactoryPrefix = "factory/"
)

var (
	balances = store.NewMap[sdkmath.Int]("balances")
	supplies = store.NewMap[sdkmath.Int]("supply")
)

// FactoryDenom builds the native denom administered by admin.
func FactoryDenom(admin, subdenom string) string {
	return FactoryPrefix + admin + "/" + subdenom
}

// FactoryAdmin returns the administering address of a factory denom.
func FactoryAdmin(denom string) (string, bool) {
	if !strings.HasPrefix(denom, FactoryPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(denom, FactoryPrefix)
	idx := strings.LastIndex(rest, "/")
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}

// Bank keeps balances and supply of both native and issued assets.
type Bank struct {
	kv storetypes.KVStore
}

// NewBank scopes the bank to its namespace within kv.
func NewBank(kv storetypes.KVStore) Bank {
	return Bank{kv: store.Prefixed(kv, bankNamespace)}
}

func balanceKey(holder string, asset types.AssetInfo) []byte {
	return store.Join(store.Str(holder), store.Str(asset.Key()))
}

func (b Bank) Balance(holder string, asset types.AssetInfo) (sdkmath.Int, error) {
	v, _, err := balances.MayLoad(b.kv, balanceKey(holder, asset))
	return utils.OrZero(v), err
}

func (b Bank) Supply(asset types.AssetInfo) (sdkmath.Int, error) {
	v, _, err := supplies.MayLoad(b.kv, store.Str(asset.Key()))
	return utils.OrZero(v), err
}

// AllBalances lists every non-zero balance of holder.
func (b Bank) AllBalances(holder string) ([]types.Asset, error) {
	var out []types.Asset
	err := balances.Range(b.kv, store.Str(holder), nil, nil, store.Ascending, func(key []byte, v sdkmath.Int) (bool, error) {
		assetKey, _, err := store.ParseStr(key)
		if err != nil {
			return true, err
		}
		info, ok := parseAssetKey(assetKey)
		if ok && v.IsPositive() {
			out = append(out, info.WithAmount(v))
		}
		return false, nil
	})
	return out, err
}

func parseAssetKey(key string) (types.AssetInfo, bool) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return types.AssetInfo{}, false
	}
	switch types.AssetKind(kind) {
	case types.AssetKindNative:
		return types.NativeInfo(id), true
	case types.AssetKindIssued:
		return types.IssuedInfo(id), true
	}
	return types.AssetInfo{}, false
}

func (b Bank) setBalance(holder string, asset types.AssetInfo, v sdkmath.Int) error {
	key := balanceKey(holder, asset)
	if v.IsZero() {
		balances.Remove(b.kv, key)
		return nil
	}
	return balances.Save(b.kv, key, v)
}

func (b Bank) sub(holder string, asset types.Asset) error {
	bal, err := b.Balance(holder, asset.Info)
	if err != nil {
		return err
	}
	if bal.LT(asset.Amount) {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s has %s%s, needs %s", holder, bal, asset.Info, asset)
	}
	return b.setBalance(holder, asset.Info, bal.Sub(asset.Amount))
}

func (b Bank) add(holder string, asset types.Asset) error {
	bal, err := b.Balance(holder, asset.Info)
	if err != nil {
		return err
	}
	next, err := utils.CheckedAdd(bal, asset.Amount)
	if err != nil {
		return err
	}
	return b.setBalance(holder, asset.Info, next)
}

func (b Bank) changeSupply(asset types.Asset, positive bool) error {
	cur, err := b.Supply(asset.Info)
	if err != nil {
		return err
	}
	var next sdkmath.Int
	if positive {
		next, err = utils.CheckedAdd(cur, asset.Amount)
	} else {
		next, err = utils.CheckedSub(cur, asset.Amount)
	}
	if err != nil {
		return err
	}
	return supplies.Save(b.kv, store.Str(asset.Info.Key()), next)
}

func validAmount(asset types.Asset) error {
	if asset.Amount.IsNil() || asset.Amount.IsNegative() {
		return errorsmod.Wrapf(types.ErrInvalidFunds, "invalid amount %s", asset)
	}
	return nil
}

// Send moves assets from one holder to another.
func (b Bank) Send(from, to string, assets ...types.Asset) error {
	for _, a := range assets {
		if err := validAmount(a); err != nil {
			return err
		}
		if a.Amount.IsZero() {
			continue
		}
		if err := b.sub(from, a); err != nil {
			return err
		}
		if err := b.add(to, a); err != nil {
			return err
		}
	}
	return nil
}

// Mint creates asset for recipient. minter must administer the asset:
// the factory admin for native denoms, the issuing contract for issued tokens.
func (b Bank) Mint(minter, recipient string, asset types.Asset) error {
	if err := b.assertAdmin(minter, asset.Info); err != nil {
		return err
	}
	return b.mint(recipient, asset)
}

// Burn destroys asset from burner's balance, subject to the same admin rule as Mint.
func (b Bank) Burn(burner string, asset types.Asset) error {
	if err := b.assertAdmin(burner, asset.Info); err != nil {
		return err
	}
	if err := validAmount(asset); err != nil {
		return err
	}
	if err := b.sub(burner, asset); err != nil {
		return err
	}
	return b.changeSupply(asset, false)
}

// Fund credits recipient with newly created tokens regardless of admin, for genesis and module rewards.
func (b Bank) Fund(recipient string, asset types.Asset) error {
	return b.mint(recipient, asset)
}

// Destroy removes tokens from holder regardless of admin. Slashing and holder burns of issued tokens use it.
func (b Bank) Destroy(holder string, asset types.Asset) error {
	if err := b.sub(holder, asset); err != nil {
		return err
	}
	return b.changeSupply(asset, false)
}

func (b Bank) mint(recipient string, asset types.Asset) error {
	if err := validAmount(asset); err != nil {
		return err
	}
	if asset.Amount.IsZero() {
		return nil
	}
	if err := b.add(recipient, asset); err != nil {
		return err
	}
	return b.changeSupply(asset, true)
}

func (b Bank) assertAdmin(sender string, info types.AssetInfo) error {
	if info.IsNative() {
		if admin, ok := FactoryAdmin(info.Denom); ok && admin == sender {
			return nil
		}
	} else if info.Contract == sender {
		return nil
	}
	return errorsmod.Wrapf(types.ErrUnauthorized, "%s does not administer %s", sender, info)
}
