/*

This file contains the asset identity union shared by every vault: a native bank denom or a
contract-issued token, plus the amount pairing used for funds, balances and transfers.

*/

package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// AssetKind tags the AssetInfo union.
type AssetKind string

const (
	AssetKindNative AssetKind = "native" // Bank module denom (uatom, factory/.../ampLP)
	AssetKindIssued AssetKind = "issued" // Token whose ledger is owned by an issuing contract
)

// AssetInfo identifies an asset. Exactly one of Denom or Contract is set, matching Kind.
type AssetInfo struct {
	Kind     AssetKind `json:"kind"`
	Denom    string    `json:"denom,omitempty"`
	Contract string    `json:"contract,omitempty"`
}

func NativeInfo(denom string) AssetInfo {
	return AssetInfo{Kind: AssetKindNative, Denom: denom}
}

func IssuedInfo(contract string) AssetInfo {
	return AssetInfo{Kind: AssetKindIssued, Contract: contract}
}

func (a AssetInfo) IsNative() bool { return a.Kind == AssetKindNative }

// Key is the canonical identity used for store keys and coin merging.
func (a AssetInfo) Key() string {
	if a.IsNative() {
		return string(AssetKindNative) + ":" + a.Denom
	}
	return string(AssetKindIssued) + ":" + a.Contract
}

func (a AssetInfo) String() string {
	if a.IsNative() {
		return a.Denom
	}
	return a.Contract
}

func (a AssetInfo) Equal(o AssetInfo) bool { return a.Key() == o.Key() }

func (a AssetInfo) Validate() error {
	switch a.Kind {
	case AssetKindNative:
		if err := sdktypes.ValidateDenom(a.Denom); err != nil {
			return errorsmod.Wrapf(ErrInvalidConfig, "native asset: %s", err)
		}
		if a.Contract != "" {
			return errorsmod.Wrap(ErrInvalidConfig, "native asset must not carry a contract")
		}
	case AssetKindIssued:
		if strings.TrimSpace(a.Contract) == "" {
			return errorsmod.Wrap(ErrInvalidConfig, "issued asset requires a contract")
		}
		if a.Denom != "" {
			return errorsmod.Wrap(ErrInvalidConfig, "issued asset must not carry a denom")
		}
	default:
		return errorsmod.Wrapf(ErrInvalidConfig, "unknown asset kind %q", a.Kind)
	}
	return nil
}

// WithAmount pairs the identity with an amount.
func (a AssetInfo) WithAmount(amount sdkmath.Int) Asset {
	return Asset{Info: a, Amount: amount}
}

// Asset is an amount of a specific asset.
type Asset struct {
	Info   AssetInfo   `json:"info"`
	Amount sdkmath.Int `json:"amount"`
}

func NativeAsset(denom string, amount sdkmath.Int) Asset {
	return NativeInfo(denom).WithAmount(amount)
}

func IssuedAsset(contract string, amount sdkmath.Int) Asset {
	return IssuedInfo(contract).WithAmount(amount)
}

func (a Asset) String() string {
	return fmt.Sprintf("%s%s", a.Amount, a.Info)
}

// ToCoin converts a native asset into an sdk coin.
func (a Asset) ToCoin() (sdktypes.Coin, error) {
	if !a.Info.IsNative() {
		return sdktypes.Coin{}, errorsmod.Wrapf(ErrInvalidFunds, "%s is not a native asset", a.Info)
	}
	return sdktypes.Coin{Denom: a.Info.Denom, Amount: a.Amount}, nil
}

// FromCoins maps bank coins onto native assets.
func FromCoins(coins sdktypes.Coins) []Asset {
	assets := make([]Asset, 0, len(coins))
	for _, c := range coins {
		assets = append(assets, NativeAsset(c.Denom, c.Amount))
	}
	return assets
}

// SingleFund returns the only asset in funds, failing when there is not exactly one.
func SingleFund(funds []Asset) (Asset, error) {
	if len(funds) != 1 {
		return Asset{}, errorsmod.Wrapf(ErrInvalidFunds, "expected exactly one asset, got %d", len(funds))
	}
	return funds[0], nil
}
