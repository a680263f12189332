/*

Package farm is the auto-compounding LP farm: LP is deposited into a generator against amp-LP
shares and the generator rewards are periodically turned back into LP.

*/

package farm

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

type Contract struct{}

func New() *Contract { return &Contract{} }

func (c *Contract) Instantiate(deps chain.Deps, env chain.Env, _ chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	cfg := Config{
		Owner:               msg.Owner,
		Generator:           Generator(msg.Generator),
		CompoundProxy:       Compounder(msg.CompoundProxy),
		Controller:          msg.Controller,
		Fee:                 msg.Fee,
		FeeCollector:        msg.FeeCollector,
		DepositProfitDelayS: msg.DepositProfitDelayS,
		LPToken:             msg.LPToken,
		BaseRewardToken:     msg.BaseRewardToken,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ampLP := types.NativeInfo(chain.FactoryDenom(env.Contract, msg.AmpLPDenom))
	if err := ampLP.Validate(); err != nil {
		return nil, err
	}

	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	if err := state.Save(deps.Store, State{AmpLPToken: ampLP, TotalBondShare: sdkmath.ZeroInt()}); err != nil {
		return nil, err
	}

	deps.Logger.Info().Str("amp_lp", ampLP.Denom).Str("lp", cfg.LPToken.String()).Msg("Farm instantiated")
	return chain.NewResponse().
		AddAttribute("action", "farm/instantiate").
		AddAttribute("amp_lp_denom", ampLP.Denom), nil
}

func (c *Contract) Execute(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	switch {
	case msg.Bond != nil:
		return bond(deps, env, info, orSender(msg.Bond.Receiver, info))
	case msg.BondAssets != nil:
		return bondAssets(deps, env, info, *msg.BondAssets)
	case msg.Unbond != nil:
		return unbond(deps, env, info, orSender(msg.Unbond.Receiver, info))
	case msg.Compound != nil:
		return compound(deps, env, info, msg.Compound.MinimumReceive)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info.Sender, *msg.UpdateConfig)
	case msg.TransferOwnership != nil:
		return transferOwnership(deps, info.Sender, msg.TransferOwnership.NewOwner)
	case msg.AcceptOwnership != nil:
		return acceptOwnership(deps, info.Sender)
	case msg.DropOwnership != nil:
		return dropOwnershipProposal(deps, info.Sender)
	case msg.Callback != nil:
		if err := chain.AssertSelf(env, info); err != nil {
			return nil, err
		}
		switch {
		case msg.Callback.BondTo != nil:
			return bondTo(deps, env, *msg.Callback.BondTo)
		case msg.Callback.Stake != nil:
			return stake(deps, env, *msg.Callback.Stake)
		}
	}
	return nil, types.ErrUnknownMessage
}

func (c *Contract) Query(deps chain.Deps, env chain.Env, raw json.RawMessage) (any, error) {
	var msg QueryMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	switch {
	case msg.Config != nil:
		return queryConfig(deps)
	case msg.State != nil:
		return queryState(deps, env, msg.State.Addr)
	case msg.UserInfo != nil:
		return queryUserInfo(deps, env, msg.UserInfo.User)
	case msg.ExchangeRates != nil:
		return queryExchangeRates(deps, *msg.ExchangeRates)
	}
	return nil, types.ErrUnknownMessage
}

func orSender(receiver string, info chain.MessageInfo) string {
	if receiver == "" {
		return info.Sender
	}
	return receiver
}

func callbackMsg(env chain.Env, cb CallbackMsg) (chain.Msg, error) {
	return chain.ExecuteMsg(env.Contract, ExecuteMsg{Callback: &cb})
}

func assertMinimumReceive(amount sdkmath.Int, minimum *sdkmath.Int) error {
	if minimum != nil && amount.LT(utils.OrZero(*minimum)) {
		return errorsmod.Wrapf(types.ErrAssertionMinimumReceive, "assertion failed; minimum receive amount: %s, actual amount: %s", *minimum, amount)
	}
	return nil
}
