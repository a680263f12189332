package simulations

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

type GeneratorInstantiateMsg struct {
	LPToken     types.AssetInfo `json:"lp_token"`
	RewardToken types.AssetInfo `json:"reward_token"`
}

var (
	generatorConfig = store.NewItem[GeneratorInstantiateMsg]("config")
	deposits        = store.NewMap[sdkmath.Int]("deposits")
	pendingRewards  = store.NewMap[sdkmath.Int]("pending")
)

// Generator holds LP deposits and pays out the rewards credited to each depositor.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (g *Generator) Instantiate(deps chain.Deps, _ chain.Env, _ chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[GeneratorInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if err := msg.LPToken.Validate(); err != nil {
		return nil, err
	}
	if err := msg.RewardToken.Validate(); err != nil {
		return nil, err
	}
	if err := generatorConfig.Save(deps.Store, msg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "generator/instantiate"), nil
}

func (g *Generator) Execute(deps chain.Deps, _ chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	msg, err := decode[farm.GeneratorExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	cfg, err := generatorConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}

	switch {
	case msg.Deposit != nil:
		fund, err := types.SingleFund(info.Funds)
		if err != nil || !fund.Info.Equal(cfg.LPToken) {
			return nil, errorsmod.Wrapf(types.ErrInvalidDeposit, "expected %s", cfg.LPToken)
		}
		if err := credit(deps.Store, deposits, info.Sender, fund.Amount); err != nil {
			return nil, err
		}
		return chain.NewResponse().AddAttribute("action", "generator/deposit").AddAttribute("amount", fund.Amount), nil

	case msg.Withdraw != nil:
		if !utils.OrZero(msg.Withdraw.Amount).IsPositive() {
			return nil, types.ErrInvalidZeroAmount
		}
		held, err := balanceOf(deps.Store, deposits, info.Sender)
		if err != nil {
			return nil, err
		}
		if held.LT(msg.Withdraw.Amount) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientBalance, "deposit %s, withdraw %s", held, msg.Withdraw.Amount)
		}
		rest, err := utils.CheckedSub(held, msg.Withdraw.Amount)
		if err != nil {
			return nil, err
		}
		if err := deposits.Save(deps.Store, store.Str(info.Sender), rest); err != nil {
			return nil, err
		}
		return chain.NewResponse().
			AddMessages(chain.Ops(cfg.LPToken).Transfer(info.Sender, msg.Withdraw.Amount)).
			AddAttribute("action", "generator/withdraw").
			AddAttribute("amount", msg.Withdraw.Amount), nil

	case msg.ClaimRewards != nil:
		reward, err := balanceOf(deps.Store, pendingRewards, info.Sender)
		if err != nil {
			return nil, err
		}
		resp := chain.NewResponse().AddAttribute("action", "generator/claim_rewards").AddAttribute("amount", reward)
		if reward.IsPositive() {
			pendingRewards.Remove(deps.Store, store.Str(info.Sender))
			resp.AddMessages(chain.Ops(cfg.RewardToken).Transfer(info.Sender, reward))
		}
		generatorLogger.Debug().Str("user", info.Sender).Str("reward", reward.String()).Msg("Claimed rewards")
		return resp, nil

	case msg.AddRewards != nil:
		fund, err := types.SingleFund(info.Funds)
		if err != nil || !fund.Info.Equal(cfg.RewardToken) {
			return nil, errorsmod.Wrapf(types.ErrInvalidFunds, "expected %s", cfg.RewardToken)
		}
		if err := credit(deps.Store, pendingRewards, msg.AddRewards.Depositor, fund.Amount); err != nil {
			return nil, err
		}
		return chain.NewResponse().AddAttribute("action", "generator/add_rewards").AddAttribute("amount", fund.Amount), nil
	}
	return nil, types.ErrUnknownMessage
}

func (g *Generator) Query(deps chain.Deps, _ chain.Env, raw json.RawMessage) (any, error) {
	msg, err := decode[farm.GeneratorQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.Deposit != nil:
		return balanceOf(deps.Store, deposits, msg.Deposit.User)
	case msg.PendingToken != nil:
		pending, err := balanceOf(deps.Store, pendingRewards, msg.PendingToken.User)
		return farm.PendingTokenResponse{Pending: pending}, err
	}
	return nil, types.ErrUnknownMessage
}

func balanceOf(kv storetypes.KVStore, m store.Map[sdkmath.Int], user string) (sdkmath.Int, error) {
	v, found, err := m.MayLoad(kv, store.Str(user))
	if err != nil || !found {
		return sdkmath.ZeroInt(), err
	}
	return v, nil
}

func credit(kv storetypes.KVStore, m store.Map[sdkmath.Int], user string, amount sdkmath.Int) error {
	held, err := balanceOf(kv, m, user)
	if err != nil {
		return err
	}
	sum, err := utils.CheckedAdd(held, amount)
	if err != nil {
		return err
	}
	return m.Save(kv, store.Str(user), sum)
}
