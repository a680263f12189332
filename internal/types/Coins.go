/*

This file contains the Coins accumulator used as the unlocked-coin buffer: amounts received by a
contract between two operations, kept merged per asset until they are swept.

*/

package types

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/utils"
)

// Coins holds at most one entry per asset, in insertion order.
type Coins []Asset

// Add merges an asset into the buffer. Zero amounts are ignored.
func (c Coins) Add(asset Asset) (Coins, error) {
	if asset.Amount.IsNil() || asset.Amount.IsZero() {
		return c, nil
	}
	if asset.Amount.IsNegative() {
		return c, errorsmod.Wrapf(ErrInvalidFunds, "negative amount %s", asset)
	}
	for i := range c {
		if c[i].Info.Equal(asset.Info) {
			sum, err := utils.CheckedAdd(c[i].Amount, asset.Amount)
			if err != nil {
				return c, err
			}
			c[i].Amount = sum
			return c, nil
		}
	}
	return append(c, asset), nil
}

func (c Coins) AddMany(assets ...Asset) (Coins, error) {
	var err error
	for _, a := range assets {
		if c, err = c.Add(a); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Find returns the buffered amount of info, zero when absent.
func (c Coins) Find(info AssetInfo) Asset {
	for _, a := range c {
		if a.Info.Equal(info) {
			return a
		}
	}
	return info.WithAmount(sdkmath.ZeroInt())
}

// Retain keeps only the entries keep returns true for.
func (c Coins) Retain(keep func(Asset) bool) Coins {
	out := make(Coins, 0, len(c))
	for _, a := range c {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (c Coins) IsEmpty() bool { return len(c) == 0 }

func (c Coins) String() string {
	parts := make([]string, 0, len(c))
	for _, a := range c {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ",")
}
