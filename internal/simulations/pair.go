package simulations

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// PairInstantiateMsg configures a pair that issues Rate LP per unit of any accepted asset.
type PairInstantiateMsg struct {
	Rate     sdkmath.LegacyDec `json:"rate"`
	Accepted []types.AssetInfo `json:"accepted"`
}

type PairQueryMsg struct {
	Config *struct{} `json:"config,omitempty"`
}

type PairConfig struct {
	LPToken  types.AssetInfo   `json:"lp_token"`
	Rate     sdkmath.LegacyDec `json:"rate"`
	Accepted []types.AssetInfo `json:"accepted"`
}

var pairConfig = store.NewItem[PairConfig]("config")

// Pair is a liquidity pair whose LP token it issues itself. It serves as the farm's compound proxy.
type Pair struct{}

func NewPair() *Pair { return &Pair{} }

// LPToken is the LP issued by the pair deployed at addr.
func LPToken(addr string) types.AssetInfo { return types.IssuedInfo(addr) }

func (p *Pair) Instantiate(deps chain.Deps, env chain.Env, _ chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[PairInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Rate.IsNil() || !msg.Rate.IsPositive() || len(msg.Accepted) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "pair needs a positive rate and accepted assets")
	}
	cfg := PairConfig{LPToken: LPToken(env.Contract), Rate: msg.Rate, Accepted: msg.Accepted}
	if err := pairConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "pair/instantiate"), nil
}

func (p *Pair) Execute(deps chain.Deps, _ chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[farm.CompounderExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Compound == nil {
		return nil, types.ErrUnknownMessage
	}
	cfg, err := pairConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}

	minted := sdkmath.ZeroInt()
	for _, fund := range info.Funds {
		if !accepts(cfg, fund.Info) {
			return nil, errorsmod.Wrapf(types.ErrInvalidFunds, "pair does not accept %s", fund.Info)
		}
		lp, err := utils.MulDec(fund.Amount, cfg.Rate)
		if err != nil {
			return nil, err
		}
		if minted, err = utils.CheckedAdd(minted, lp); err != nil {
			return nil, err
		}
	}
	if !minted.IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}

	receiver := msg.Compound.Receiver
	if receiver == "" {
		receiver = info.Sender
	}
	pairLogger.Debug().Str("receiver", receiver).Str("lp", minted.String()).Msg("Provided liquidity")
	return chain.NewResponse().
		AddMessages(chain.Ops(cfg.LPToken).Mint(receiver, minted)).
		AddAttribute("action", "pair/compound").
		AddAttribute("lp_amount", minted), nil
}

func (p *Pair) Query(deps chain.Deps, _ chain.Env, raw json.RawMessage) (any, error) {
	msg, err := decode[PairQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Config == nil {
		return nil, types.ErrUnknownMessage
	}
	return pairConfig.Load(deps.Store)
}

func accepts(cfg PairConfig, info types.AssetInfo) bool {
	for _, a := range cfg.Accepted {
		if a.Equal(info) {
			return true
		}
	}
	return false
}
