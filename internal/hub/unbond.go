package hub

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/planner"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// queueUnbond adds the attached shares to the pending batch. Once the batch is due, the
// request also submits it.
func queueUnbond(deps chain.Deps, env chain.Env, info chain.MessageInfo, receiver string) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil || !fund.Info.Equal(cfg.StakeInfo()) {
		return nil, errorsmod.Wrapf(types.ErrExpectingShareToken, "expected %s", cfg.StakeDenom)
	}
	if !utils.OrZero(fund.Amount).IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}

	pending, err := pendingBatch.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if pending.SharesToBurn, err = utils.CheckedAdd(pending.SharesToBurn, fund.Amount); err != nil {
		return nil, err
	}
	if err := pendingBatch.Save(deps.Store, pending); err != nil {
		return nil, err
	}

	req, found, err := loadRequest(deps.Store, pending.ID, receiver)
	if err != nil {
		return nil, err
	}
	if !found {
		req = types.UnbondRequest{ID: pending.ID, User: receiver, Shares: sdkmath.ZeroInt()}
	}
	if req.Shares, err = utils.CheckedAdd(req.Shares, fund.Amount); err != nil {
		return nil, err
	}
	if err := saveRequest(deps.Store, req); err != nil {
		return nil, err
	}

	resp := chain.NewResponse()
	startTime := fmt.Sprint(pending.EstUnbondStartTime)
	if env.Block.Time > pending.EstUnbondStartTime {
		startTime = "immediate"
		submit, err := chain.ExecuteMsg(env.Contract, ExecuteMsg{SubmitBatch: &struct{}{}})
		if err != nil {
			return nil, err
		}
		resp.AddMessages(submit)
	}

	return resp.
		AddEvent(chain.NewEvent("hub/unbond_queued").
			Add("est_unbond_start_time", startTime).
			Add("id", pending.ID).
			Add("receiver", receiver).
			Add("ustake_to_burn", fund.Amount)).
		AddAttribute("action", "hub/queue_unbond"), nil
}

// submitBatch undelegates the underlying owed to the pending batch, burns its shares and opens
// the next batch.
func submitBatch(deps chain.Deps, env chain.Env) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	pending, err := pendingBatch.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	now := env.Block.Time
	if now < pending.EstUnbondStartTime {
		return nil, errorsmod.Wrapf(types.ErrSubmitBatchTooEarly, "submit batch after %d", pending.EstUnbondStartTime)
	}

	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}
	supply, err := loadSupply(deps.Store)
	if err != nil {
		return nil, err
	}
	toBurn := utils.OrZero(pending.SharesToBurn)

	toUnbond := sdkmath.ZeroInt()
	var plan []types.Delegation
	if toBurn.IsPositive() {
		if toUnbond, err = shares.UnbondAmount(supply, toBurn, types.TotalDelegated(current)); err != nil {
			return nil, err
		}
	}
	if toUnbond.IsPositive() {
		p, err := cfg.Planner()
		if err != nil {
			return nil, err
		}
		if plan, err = p.Unbond(toUnbond, current, cfg.Validators); err != nil {
			return nil, err
		}
		if err := planner.AssertTotal(plan, toUnbond); err != nil {
			return nil, err
		}
	}

	// an epoch with nothing queued leaves no batch
	if toBurn.IsPositive() {
		if err := previousBatches.Save(deps.Store, batchKey(pending.ID), types.Batch{
			ID:                  pending.ID,
			Reconciled:          false,
			TotalShares:         toBurn,
			UnderlyingUnclaimed: toUnbond,
			EstUnbondEndTime:    now + cfg.UnbondPeriod,
		}); err != nil {
			return nil, err
		}
	}
	if err := pendingBatch.Save(deps.Store, types.PendingBatch{
		ID:                 pending.ID + 1,
		SharesToBurn:       sdkmath.ZeroInt(),
		EstUnbondStartTime: now + cfg.EpochPeriod,
	}); err != nil {
		return nil, err
	}
	nextSupply, err := utils.CheckedSub(supply, toBurn)
	if err != nil {
		return nil, err
	}
	if err := totalShares.Save(deps.Store, nextSupply); err != nil {
		return nil, err
	}

	check, err := receivedCoinCheck(deps, env, cfg, sdkmath.ZeroInt())
	if err != nil {
		return nil, err
	}

	resp := chain.NewResponse()
	for _, d := range plan {
		resp.AddMessages(chain.Undelegate{Validator: d.Validator, Amount: d.Amount})
	}
	if toBurn.IsPositive() {
		resp.AddMessages(chain.Ops(cfg.StakeInfo()).Burn(toBurn))
	}
	resp.AddMessages(check)

	deps.Logger.Info().Uint64("batch_id", pending.ID).Str("amount", toUnbond.String()).Str("shares", toBurn.String()).Msg("Submitted unbond batch")
	return resp.
		AddEvent(chain.NewEvent("hub/unbond_submitted").
			Add("id", pending.ID).
			Add("utoken_unbonded", toUnbond).
			Add("ustake_burned", toBurn)).
		AddAttribute("action", "hub/unbond"), nil
}

// reconcile settles the matured batches against what actually arrived. A shortfall, e.g. from
// slashing during unbonding, is spread over them.
func reconcile(deps chain.Deps, env chain.Env) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	all, err := unreconciledBatches(deps.Store)
	if err != nil {
		return nil, err
	}
	var batches []types.Batch
	for _, b := range all {
		if b.Matured(env.Block.Time) {
			batches = append(batches, b)
		}
	}

	received := sdkmath.ZeroInt()
	ids := make([]uint64, 0, len(batches))
	for _, b := range batches {
		received = received.Add(utils.OrZero(b.UnderlyingUnclaimed))
		ids = append(ids, b.ID)
	}
	if received.IsZero() {
		return chain.NewResponse(), nil
	}

	unlocked, err := loadUnlocked(deps.Store)
	if err != nil {
		return nil, err
	}
	expected, err := utils.CheckedAdd(received, unlocked.Find(cfg.UtokenInfo()).Amount)
	if err != nil {
		return nil, err
	}
	actual, err := chain.Ops(cfg.UtokenInfo()).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}

	ev := chain.NewEvent("hub/reconciled").Add("ids", chain.JoinIDs(ids))
	if actual.GTE(expected) {
		shares.MarkReconciled(batches)
		ev = ev.Add("utoken_deducted", "0")
	} else {
		shortfall := expected.Sub(actual)
		res, err := shares.ReconcileBatches(batches, shortfall)
		if err != nil {
			return nil, err
		}
		ev = ev.Add("utoken_deducted", shortfall)
		if res.Rounds > 1 {
			ev = ev.Add("rounds", res.Rounds)
			for _, carried := range res.Carried {
				ev = ev.Add("carried", carried)
			}
		}
		if res.OldestPass.IsPositive() {
			ev = ev.Add("oldest_first", res.OldestPass)
		}
		deps.Logger.Warn().Str("shortfall", shortfall.String()).Str("ids", chain.JoinIDs(ids)).Msg("Reconciled batches with shortfall")
	}

	for _, b := range batches {
		if err := previousBatches.Save(deps.Store, batchKey(b.ID), b); err != nil {
			return nil, err
		}
	}
	return chain.NewResponse().AddEvent(ev).AddAttribute("action", "hub/reconcile"), nil
}

// withdrawUnbonded pays user's share of every reconciled, finished batch to receiver.
func withdrawUnbonded(deps chain.Deps, env chain.Env, user, receiver string) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	requests, err := userRequests(deps.Store, user, nil, 0)
	if err != nil {
		return nil, err
	}

	refund := sdkmath.ZeroInt()
	var ids []uint64
	for _, req := range requests {
		batch, found, err := previousBatches.MayLoad(deps.Store, batchKey(req.ID))
		if err != nil {
			return nil, err
		}
		if !found || !batch.Reconciled || batch.EstUnbondEndTime >= env.Block.Time {
			continue
		}

		amount, err := utils.MulRatio(batch.UnderlyingUnclaimed, req.Shares, batch.TotalShares)
		if err != nil {
			return nil, err
		}
		if batch.TotalShares, err = utils.CheckedSub(batch.TotalShares, req.Shares); err != nil {
			return nil, err
		}
		if batch.UnderlyingUnclaimed, err = utils.CheckedSub(batch.UnderlyingUnclaimed, amount); err != nil {
			return nil, err
		}
		if refund, err = utils.CheckedAdd(refund, amount); err != nil {
			return nil, err
		}
		ids = append(ids, req.ID)

		if batch.TotalShares.IsZero() {
			previousBatches.Remove(deps.Store, batchKey(req.ID))
		} else if err := previousBatches.Save(deps.Store, batchKey(req.ID), batch); err != nil {
			return nil, err
		}
		removeRequest(deps.Store, req.ID, user)
	}

	if refund.IsZero() {
		return nil, errorsmod.Wrap(types.ErrNothingWithdrawable, "withdrawable amount can't be zero")
	}

	deps.Logger.Info().Str("user", user).Str("amount", refund.String()).Str("ids", chain.JoinIDs(ids)).Msg("Withdrew unbonded")
	return chain.NewResponse().
		AddMessages(chain.Ops(cfg.UtokenInfo()).Transfer(receiver, refund)).
		AddEvent(chain.NewEvent("hub/unbonded_withdrawn").
			Add("ids", chain.JoinIDs(ids)).
			Add("user", user).
			Add("receiver", receiver).
			Add("utoken_refunded", refund)).
		AddAttribute("action", "hub/withdraw_unbonded"), nil
}
