package farm

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// compound claims the generator rewards, takes the fee and turns the rest back into bonded LP.
func compound(deps chain.Deps, env chain.Env, info chain.MessageInfo, minimumReceive *sdkmath.Int) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Controller {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the controller", info.Sender)
	}

	reward, err := cfg.Generator.QueryPending(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	lpBalance, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}

	claim, err := cfg.Generator.ClaimRewardsMsg()
	if err != nil {
		return nil, err
	}
	resp := chain.NewResponse().AddMessages(claim)

	commission := sdkmath.ZeroInt()
	compounded := sdkmath.ZeroInt()
	reward = utils.OrZero(reward)
	if reward.IsPositive() && lpBalance.IsPositive() {
		if commission, err = utils.MulDec(reward, cfg.Fee); err != nil {
			return nil, err
		}
		if compounded, err = utils.CheckedSub(reward, commission); err != nil {
			return nil, err
		}
		if commission.IsPositive() {
			resp.AddMessages(chain.Ops(cfg.BaseRewardToken).Transfer(cfg.FeeCollector, commission))
		}
		if compounded.IsPositive() {
			proxy, err := cfg.CompoundProxy.CompoundMsg([]types.Asset{cfg.BaseRewardToken.WithAmount(compounded)}, env.Contract)
			if err != nil {
				return nil, err
			}
			prev, err := chain.Ops(cfg.LPToken).Balance(deps.Querier, env.Contract)
			if err != nil {
				return nil, err
			}
			cb, err := callbackMsg(env, CallbackMsg{Stake: &StakeMsg{PrevBalance: prev, MinimumReceive: minimumReceive}})
			if err != nil {
				return nil, err
			}
			resp.AddMessages(proxy, cb)
		}
	}

	deps.Logger.Info().Str("reward", reward.String()).Str("commission", commission.String()).Msg("Compounding farm rewards")
	return resp.
		AddAttribute("action", "farm/compound").
		AddAttribute("token", cfg.BaseRewardToken.String()).
		AddAttribute("compound_amount", compounded).
		AddAttribute("commission_amount", commission), nil
}

// stake deposits the LP the compound proxy returned and records the new exchange rate.
func stake(deps chain.Deps, env chain.Env, msg StakeMsg) (*chain.Response, error) {
	cfg, st, err := loadAll(deps.Store)
	if err != nil {
		return nil, err
	}
	balance, err := chain.Ops(cfg.LPToken).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	amount, err := utils.CheckedSub(balance, msg.PrevBalance)
	if err != nil {
		return nil, err
	}
	if err := assertMinimumReceive(amount, msg.MinimumReceive); err != nil {
		return nil, err
	}

	deposited, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	totalLP, err := utils.CheckedAdd(deposited, amount)
	if err != nil {
		return nil, err
	}
	rate := st.ExchangeRate(totalLP)
	if err := exchangeHistory.Record(deps.Store, env.Block.Time, rate); err != nil {
		return nil, err
	}

	resp := chain.NewResponse()
	if amount.IsPositive() {
		deposit, err := cfg.Generator.DepositMsg(cfg.LPToken.WithAmount(amount))
		if err != nil {
			return nil, err
		}
		resp.AddMessages(deposit)
	}
	return resp.
		AddAttribute("action", "farm/stake").
		AddAttribute("staking_token", cfg.LPToken.String()).
		AddAttribute("amount", amount).
		AddAttribute("exchange_rate", rate), nil
}
