package simulations

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// ArbitrageurInstantiateMsg configures a market that sells XToken at Premium below par.
type ArbitrageurInstantiateMsg struct {
	XToken  types.AssetInfo   `json:"xtoken"`
	Premium sdkmath.LegacyDec `json:"premium"`
}

type ArbitrageurExecuteMsg struct {
	Swap *SwapMsg `json:"swap,omitempty"`
}

type SwapMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

var arbitrageurConfig = store.NewItem[ArbitrageurInstantiateMsg]("config")

// Arbitrageur pays amount×(1+premium) of its xtoken inventory for any attached funds.
type Arbitrageur struct{}

func NewArbitrageur() *Arbitrageur { return &Arbitrageur{} }

func (a *Arbitrageur) Instantiate(deps chain.Deps, _ chain.Env, _ chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[ArbitrageurInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if err := msg.XToken.Validate(); err != nil {
		return nil, err
	}
	if msg.Premium.IsNil() || msg.Premium.IsNegative() {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "premium must not be negative")
	}
	if err := arbitrageurConfig.Save(deps.Store, msg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "arbitrageur/instantiate"), nil
}

func (a *Arbitrageur) Execute(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[ArbitrageurExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Swap == nil {
		return nil, types.ErrUnknownMessage
	}
	cfg, err := arbitrageurConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil {
		return nil, err
	}

	out, err := utils.MulDec(fund.Amount, sdkmath.LegacyOneDec().Add(cfg.Premium))
	if err != nil {
		return nil, err
	}
	inventory, err := chain.Ops(cfg.XToken).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	if inventory.LT(out) {
		return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "inventory %s, owed %s", inventory, out)
	}

	receiver := msg.Swap.Receiver
	if receiver == "" {
		receiver = info.Sender
	}
	arbitrageurLogger.Debug().Str("in", fund.String()).Str("out", out.String()).Msg("Swapped")
	return chain.NewResponse().
		AddMessages(chain.Ops(cfg.XToken).Transfer(receiver, out)).
		AddAttribute("action", "arbitrageur/swap").
		AddAttribute("amount_in", fund.Amount).
		AddAttribute("amount_out", out), nil
}

func (a *Arbitrageur) Query(deps chain.Deps, _ chain.Env, _ json.RawMessage) (any, error) {
	return arbitrageurConfig.Load(deps.Store)
}
