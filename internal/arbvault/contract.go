/*

Package arbvault pools utoken from depositors and lends it to arbitrageurs that buy liquid
staking shares below their redemption value. Profits are realised by unbonding the shares at
the hub, and depositors may leave early against a fee that decays over the unbond period.

*/

package arbvault

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
)

type Contract struct{}

func New() *Contract { return &Contract{} }

func (c *Contract) Instantiate(deps chain.Deps, env chain.Env, _ chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	cfg := Config{
		Owner:            msg.Owner,
		Utoken:           msg.Utoken,
		UnbondTimeS:      msg.UnbondTimeS,
		LSDs:             msg.LSDs,
		UtilizationSteps: msg.UtilizationSteps,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := msg.FeeConfig.Validate(); err != nil {
		return nil, err
	}
	lp := LPToken{Denom: chain.FactoryDenom(env.Contract, msg.LPDenom), TotalSupply: sdkmath.ZeroInt()}
	if err := lp.Info().Validate(); err != nil {
		return nil, err
	}

	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	if err := feeConfig.Save(deps.Store, msg.FeeConfig); err != nil {
		return nil, err
	}
	if err := lpToken.Save(deps.Store, lp); err != nil {
		return nil, err
	}
	if msg.Whitelist != nil {
		if err := whitelist.Save(deps.Store, msg.Whitelist); err != nil {
			return nil, err
		}
	}

	deps.Logger.Info().Str("lp_denom", lp.Denom).Str("utoken", cfg.Utoken).Int("lsds", len(cfg.LSDs)).Msg("Arb vault instantiated")
	return chain.NewResponse().
		AddAttribute("action", "arb/instantiate").
		AddAttribute("lp_denom", lp.Denom), nil
}

func (c *Contract) Execute(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	switch {
	case msg.Deposit != nil:
		return deposit(deps, env, info, *msg.Deposit)
	case msg.Unbond != nil:
		return unbond(deps, env, info, msg.Unbond.Immediate)
	case msg.WithdrawUnbonded != nil:
		return withdrawUnbonded(deps, env, info.Sender)
	case msg.WithdrawImmediate != nil:
		return withdrawImmediate(deps, env, info.Sender, msg.WithdrawImmediate.ID)
	case msg.ExecuteArbitrage != nil:
		return executeArbitrage(deps, env, info, *msg.ExecuteArbitrage)
	case msg.UnbondFromLiquidStaking != nil:
		return unbondFromLiquidStaking(deps, env, info.Sender, msg.UnbondFromLiquidStaking.Names)
	case msg.WithdrawFromLiquidStaking != nil:
		return withdrawFromLiquidStaking(deps, env, info.Sender, msg.WithdrawFromLiquidStaking.Names)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, env, info.Sender, *msg.UpdateConfig)
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
		if msg.Callback.AssertResult != nil {
			return assertResult(deps, env, *msg.Callback.AssertResult)
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
		return queryState(deps, env, msg.State.Details)
	case msg.UserInfo != nil:
		return queryUserInfo(deps, env, msg.UserInfo.Address)
	case msg.Takeable != nil:
		return queryTakeable(deps, env, msg.Takeable.WantedProfit)
	case msg.UnbondRequests != nil:
		return queryUnbondRequests(deps, env, *msg.UnbondRequests)
	case msg.ExchangeRates != nil:
		return queryExchangeRates(deps, *msg.ExchangeRates)
	}
	return nil, types.ErrUnknownMessage
}

func callbackMsg(env chain.Env, cb CallbackMsg) (chain.Msg, error) {
	return chain.ExecuteMsg(env.Contract, ExecuteMsg{Callback: &cb})
}
