/*

Package hub is the liquid staking hub: it bonds the underlying with validators against a share
token, queues unbond requests into epoch batches and settles them once the chain has paid out.

*/

package hub

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
)

// Contract is stateless; everything lives in the store handed to each call.
type Contract struct{}

func New() *Contract { return &Contract{} }

func (c *Contract) Instantiate(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	strategy := DelegationStrategy{}
	if msg.DelegationStrategy != nil {
		strategy = *msg.DelegationStrategy
	}
	operator := msg.Operator
	if operator == "" {
		operator = msg.Owner
	}
	cfg := Config{
		Owner:        msg.Owner,
		Operator:     operator,
		Utoken:       msg.Utoken,
		StakeDenom:   chain.FactoryDenom(env.Contract, msg.StakeDenom),
		EpochPeriod:  msg.EpochPeriod,
		UnbondPeriod: msg.UnbondPeriod,
		Validators:   dedupe(msg.Validators),
		FeeConfig: FeeConfig{
			ProtocolFeeContract: msg.ProtocolFeeContract,
			ProtocolRewardFee:   msg.ProtocolRewardFee,
		},
		DonationsEnabled:   msg.DonationsEnabled,
		DelegationStrategy: strategy,
	}
	if err := cfg.UtokenInfo().Validate(); err != nil {
		return nil, err
	}
	if err := cfg.StakeInfo().Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	if err := totalShares.Save(deps.Store, sdkmath.ZeroInt()); err != nil {
		return nil, err
	}
	if err := unlockedCoins.Save(deps.Store, types.Coins{}); err != nil {
		return nil, err
	}
	if err := pendingBatch.Save(deps.Store, types.PendingBatch{
		ID:                 1,
		SharesToBurn:       sdkmath.ZeroInt(),
		EstUnbondStartTime: env.Block.Time + cfg.EpochPeriod,
	}); err != nil {
		return nil, err
	}

	deps.Logger.Info().Str("stake_denom", cfg.StakeDenom).Strs("validators", cfg.Validators).Msg("Hub instantiated")
	return chain.NewResponse().
		AddAttribute("action", "hub/instantiate").
		AddAttribute("stake_denom", cfg.StakeDenom), nil
}

func (c *Contract) Execute(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}

	switch {
	case msg.Bond != nil:
		return bond(deps, env, info, orSender(msg.Bond.Receiver, info), false)
	case msg.Donate != nil:
		return bond(deps, env, info, info.Sender, true)
	case msg.QueueUnbond != nil:
		return queueUnbond(deps, env, info, orSender(msg.QueueUnbond.Receiver, info))
	case msg.WithdrawUnbonded != nil:
		return withdrawUnbonded(deps, env, info.Sender, orSender(msg.WithdrawUnbonded.Receiver, info))
	case msg.Harvest != nil:
		return harvest(deps, env)
	case msg.SubmitBatch != nil:
		return submitBatch(deps, env)
	case msg.Reconcile != nil:
		return reconcile(deps, env)
	case msg.Rebalance != nil:
		return rebalance(deps, env, info.Sender, msg.Rebalance.MinRedelegation)
	case msg.AddValidator != nil:
		return addValidator(deps, info.Sender, msg.AddValidator.Validator)
	case msg.RemoveValidator != nil:
		return removeValidator(deps, env, info.Sender, msg.RemoveValidator.Validator)
	case msg.TransferOwnership != nil:
		return transferOwnership(deps, info.Sender, msg.TransferOwnership.NewOwner)
	case msg.AcceptOwnership != nil:
		return acceptOwnership(deps, info.Sender)
	case msg.DropOwnership != nil:
		return dropOwnershipProposal(deps, info.Sender)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info.Sender, *msg.UpdateConfig)
	case msg.Callback != nil:
		if err := chain.AssertSelf(env, info); err != nil {
			return nil, err
		}
		return callback(deps, env, *msg.Callback)
	}
	return nil, types.ErrUnknownMessage
}

func callback(deps chain.Deps, env chain.Env, msg CallbackMsg) (*chain.Response, error) {
	switch {
	case msg.CheckReceivedCoin != nil:
		return checkReceivedCoin(deps, env, *msg.CheckReceivedCoin)
	case msg.Reinvest != nil:
		return reinvest(deps, env)
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
		return queryState(deps, env)
	case msg.PendingBatch != nil:
		return pendingBatch.Load(deps.Store)
	case msg.PreviousBatch != nil:
		return queryPreviousBatch(deps, *msg.PreviousBatch)
	case msg.PreviousBatches != nil:
		return queryPreviousBatches(deps, *msg.PreviousBatches)
	case msg.UnbondRequestsByBatch != nil:
		return queryRequestsByBatch(deps, *msg.UnbondRequestsByBatch)
	case msg.UnbondRequestsByUser != nil:
		return queryRequestsByUser(deps, *msg.UnbondRequestsByUser)
	case msg.UnbondRequestsByUserDetails != nil:
		return queryRequestsByUserDetails(deps, env, *msg.UnbondRequestsByUserDetails)
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

func dedupe(validators []string) []string {
	seen := make(map[string]bool, len(validators))
	out := make([]string, 0, len(validators))
	for _, v := range validators {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// callbackMsg wraps cb into a self-call.
func callbackMsg(env chain.Env, cb CallbackMsg) (chain.Msg, error) {
	return chain.ExecuteMsg(env.Contract, ExecuteMsg{Callback: &cb})
}
