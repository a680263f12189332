package arbvault

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/utils"
)

func queryConfig(deps chain.Deps) (ConfigResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	fc, err := feeConfig.Load(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	list, _, err := whitelist.MayLoad(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	return ConfigResponse{
		Owner:            cfg.Owner,
		NewOwner:         cfg.NewOwner,
		Utoken:           cfg.Utoken,
		UnbondTimeS:      cfg.UnbondTimeS,
		LSDs:             cfg.LSDs,
		UtilizationSteps: cfg.UtilizationSteps,
		FeeConfig:        fc,
		Whitelist:        list,
		LPToken:          lp,
	}, nil
}

func queryState(deps chain.Deps, env chain.Env, details bool) (StateResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return StateResponse{}, err
	}

	resp := StateResponse{
		ExchangeRate:  shares.ExchangeRate(b.VaultTotal, lp.TotalSupply),
		TotalLPSupply: lp.TotalSupply,
		Balances:      b,
	}
	if !details {
		resp.Balances.Details = nil
		return resp, nil
	}
	if resp.TakeableSteps, err = b.takeableSteps(cfg); err != nil {
		return StateResponse{}, err
	}
	return resp, nil
}

func queryUserInfo(deps chain.Deps, env chain.Env, address string) (UserInfoResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return UserInfoResponse{}, err
	}
	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return UserInfoResponse{}, err
	}
	held, err := chain.Ops(lp.Info()).Balance(deps.Querier, address)
	if err != nil {
		return UserInfoResponse{}, err
	}
	if utils.OrZero(lp.TotalSupply).IsZero() {
		return UserInfoResponse{UtokenAmount: sdkmath.ZeroInt(), LPAmount: held}, nil
	}
	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return UserInfoResponse{}, err
	}
	value, err := shares.UnbondAmount(lp.TotalSupply, held, b.VaultTotal)
	if err != nil {
		return UserInfoResponse{}, err
	}
	return UserInfoResponse{UtokenAmount: value, LPAmount: held}, nil
}

func queryTakeable(deps chain.Deps, env chain.Env, wanted *sdkmath.LegacyDec) (TakeableResponse, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return TakeableResponse{}, err
	}
	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return TakeableResponse{}, err
	}
	steps, err := b.takeableSteps(cfg)
	if err != nil {
		return TakeableResponse{}, err
	}
	resp := TakeableResponse{Steps: steps}
	if wanted == nil {
		return resp, nil
	}
	step, err := cfg.step(*wanted)
	if err != nil {
		return TakeableResponse{}, err
	}
	takeable, err := calcTakeable(b.VaultTotal, b.VaultTakeable, step.MaxUtilization)
	if err != nil {
		return TakeableResponse{}, err
	}
	resp.Takeable = &takeable
	return resp, nil
}

// queryUnbondRequests lists the queued unbonds of a user with the fees of withdrawing them now.
func queryUnbondRequests(deps chain.Deps, env chain.Env, q UnbondRequestsQuery) (UnbondRequestsResponse, error) {
	fc, err := feeConfig.Load(deps.Store)
	if err != nil {
		return UnbondRequestsResponse{}, err
	}
	var start []byte
	if q.StartAfter != nil {
		start = store.After(store.U64(*q.StartAfter))
	}
	entries, err := unbondHistory.Collect(deps.Store, store.Str(q.Address), start, nil, store.Ascending, ledger.ClampLimit(q.Limit))
	if err != nil {
		return UnbondRequestsResponse{}, err
	}

	out := make([]UnbondItem, 0, len(entries))
	for _, e := range entries {
		id, err := store.ParseU64(e.Key)
		if err != nil {
			return UnbondRequestsResponse{}, err
		}
		fees, err := calcFees(fc, e.Value.AmountAsset, poolFeeFactor(env.Block.Time, e.Value.StartTime, e.Value.ReleaseTime))
		if err != nil {
			return UnbondRequestsResponse{}, err
		}
		out = append(out, UnbondItem{
			ID:                  id,
			StartTime:           e.Value.StartTime,
			ReleaseTime:         e.Value.ReleaseTime,
			Released:            e.Value.ReleaseTime <= env.Block.Time,
			AmountAsset:         e.Value.AmountAsset,
			WithdrawProtocolFee: fees.ProtocolFee,
			WithdrawPoolFee:     fees.PoolFee,
		})
	}
	return UnbondRequestsResponse{Requests: out}, nil
}

func queryExchangeRates(deps chain.Deps, q ExchangeRatesQuery) (ExchangeRatesResponse, error) {
	points, err := exchangeHistory.Range(deps.Store, q.StartAfter, q.Limit)
	if err != nil {
		return ExchangeRatesResponse{}, err
	}
	return ExchangeRatesResponse{ExchangeRates: points, APR: ledger.ComputeAPR(points)}, nil
}
