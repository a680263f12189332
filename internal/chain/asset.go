package chain

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/types"
)

// AssetOps is the per-kind capability set. Vault logic is written once against it.
type AssetOps interface {
	Transfer(to string, amount sdkmath.Int) Msg
	Mint(recipient string, amount sdkmath.Int) Msg
	Burn(amount sdkmath.Int) Msg
	Balance(q Querier, holder string) (sdkmath.Int, error)
}

// Ops returns the capabilities of info's kind.
func Ops(info types.AssetInfo) AssetOps {
	if info.IsNative() {
		return nativeOps{info: info}
	}
	return issuedOps{info: info}
}

// TransferMsg sends asset to the recipient using the capability of its kind.
func TransferMsg(asset types.Asset, to string) Msg {
	return Ops(asset.Info).Transfer(to, asset.Amount)
}

type nativeOps struct {
	info types.AssetInfo
}

func (o nativeOps) Transfer(to string, amount sdkmath.Int) Msg {
	return BankSend{To: to, Amount: []types.Asset{o.info.WithAmount(amount)}}
}

func (o nativeOps) Mint(recipient string, amount sdkmath.Int) Msg {
	return Mint{Denom: o.info.Denom, Amount: amount, Recipient: recipient}
}

func (o nativeOps) Burn(amount sdkmath.Int) Msg {
	return Burn{Denom: o.info.Denom, Amount: amount}
}

func (o nativeOps) Balance(q Querier, holder string) (sdkmath.Int, error) {
	return q.Balance(holder, o.info)
}

type issuedOps struct {
	info types.AssetInfo
}

func (o issuedOps) Transfer(to string, amount sdkmath.Int) Msg {
	return TokenTransfer{Contract: o.info.Contract, To: to, Amount: amount}
}

func (o issuedOps) Mint(recipient string, amount sdkmath.Int) Msg {
	return TokenMint{Contract: o.info.Contract, Recipient: recipient, Amount: amount}
}

func (o issuedOps) Burn(amount sdkmath.Int) Msg {
	return TokenBurn{Contract: o.info.Contract, Amount: amount}
}

func (o issuedOps) Balance(q Querier, holder string) (sdkmath.Int, error) {
	return q.Balance(holder, o.info)
}
