package hub

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// Request states reported by the details query.
const (
	RequestPending      = "pending"
	RequestUnbonding    = "unbonding"
	RequestWithdrawable = "withdrawable"
)

func queryConfig(deps chain.Deps) (ConfigResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	return ConfigResponse{
		Owner:              cfg.Owner,
		NewOwner:           cfg.NewOwner,
		Operator:           cfg.Operator,
		Utoken:             cfg.Utoken,
		StakeToken:         cfg.StakeDenom,
		EpochPeriod:        cfg.EpochPeriod,
		UnbondPeriod:       cfg.UnbondPeriod,
		Validators:         cfg.Validators,
		FeeConfig:          cfg.FeeConfig,
		DonationsEnabled:   cfg.DonationsEnabled,
		DelegationStrategy: cfg.DelegationStrategy,
	}, nil
}

func queryState(deps chain.Deps, env chain.Env) (StateResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	supply, err := loadSupply(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return StateResponse{}, err
	}
	totalUtoken := types.TotalDelegated(current)

	// only batches still unbonding; matured ones are already in the balance
	batches, err := unreconciledBatches(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	unbonding := sdkmath.ZeroInt()
	for _, b := range batches {
		if b.EstUnbondEndTime > env.Block.Time {
			unbonding = unbonding.Add(utils.OrZero(b.UnderlyingUnclaimed))
		}
	}

	available, err := chain.Ops(cfg.UtokenInfo()).Balance(deps.Querier, env.Contract)
	if err != nil {
		return StateResponse{}, err
	}
	unlocked, err := loadUnlocked(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	tvl, err := utils.Sum(totalUtoken, unbonding, available)
	if err != nil {
		return StateResponse{}, err
	}

	return StateResponse{
		TotalUstake:   supply,
		TotalUtoken:   totalUtoken,
		ExchangeRate:  shares.ExchangeRate(totalUtoken, supply),
		UnlockedCoins: unlocked,
		Unbonding:     unbonding,
		Available:     available,
		TVLUtoken:     tvl,
	}, nil
}

func queryPreviousBatch(deps chain.Deps, id uint64) (types.Batch, error) {
	b, found, err := previousBatches.MayLoad(deps.Store, batchKey(id))
	if err != nil {
		return b, err
	}
	if !found {
		return b, types.ErrBatchNotFound.Wrapf("batch %d", id)
	}
	return b, nil
}

func queryPreviousBatches(deps chain.Deps, q PageQuery) ([]types.Batch, error) {
	var start []byte
	if q.StartAfter != nil {
		start = store.After(batchKey(*q.StartAfter))
	}
	entries, err := previousBatches.Collect(deps.Store, nil, start, nil, store.Ascending, ledger.ClampLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	out := make([]types.Batch, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}

func queryRequestsByBatch(deps chain.Deps, q RequestsByBatch) ([]types.UnbondRequest, error) {
	var start []byte
	if q.StartAfter != nil {
		start = store.After(store.Str(*q.StartAfter))
	}
	entries, err := requestsByBatch.Collect(deps.Store, store.U64(q.ID), start, nil, store.Ascending, ledger.ClampLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	out := make([]types.UnbondRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}

func queryRequestsByUser(deps chain.Deps, q RequestsByUser) ([]types.UnbondRequest, error) {
	return userRequests(deps.Store, q.User, q.StartAfter, ledger.ClampLimit(q.Limit))
}

// queryRequestsByUserDetails joins each request with its batch and says where it stands.
func queryRequestsByUserDetails(deps chain.Deps, env chain.Env, q RequestsByUser) ([]UnbondRequestDetails, error) {
	requests, err := userRequests(deps.Store, q.User, q.StartAfter, ledger.ClampLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	pending, err := pendingBatch.Load(deps.Store)
	if err != nil {
		return nil, err
	}

	out := make([]UnbondRequestDetails, 0, len(requests))
	for _, req := range requests {
		d := UnbondRequestDetails{ID: req.ID, User: req.User, Shares: req.Shares}
		if req.ID == pending.ID {
			p := pending
			d.State, d.Pending = RequestPending, &p
		} else if b, found, err := previousBatches.MayLoad(deps.Store, batchKey(req.ID)); err != nil {
			return nil, err
		} else if found {
			d.Batch = &b
			d.State = RequestUnbonding
			if b.Reconciled && b.EstUnbondEndTime < env.Block.Time {
				d.State = RequestWithdrawable
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func queryExchangeRates(deps chain.Deps, q ExchangeRatesQuery) (ExchangeRatesResponse, error) {
	points, err := exchangeHistory.Range(deps.Store, q.StartAfter, q.Limit)
	if err != nil {
		return ExchangeRatesResponse{}, err
	}
	return ExchangeRatesResponse{ExchangeRates: points, APR: ledger.ComputeAPR(points)}, nil
}
