package farm

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/ledger"
)

func queryConfig(deps chain.Deps) (ConfigResponse, error) {
	cfg, st, err := loadAll(deps.Store)
	if err != nil {
		return ConfigResponse{}, err
	}
	return ConfigResponse{
		Owner:               cfg.Owner,
		NewOwner:            cfg.NewOwner,
		AmpLPToken:          st.AmpLPToken,
		LPToken:             cfg.LPToken,
		Generator:           string(cfg.Generator),
		CompoundProxy:       string(cfg.CompoundProxy),
		Controller:          cfg.Controller,
		Fee:                 cfg.Fee,
		FeeCollector:        cfg.FeeCollector,
		BaseRewardToken:     cfg.BaseRewardToken,
		DepositProfitDelayS: cfg.DepositProfitDelayS,
	}, nil
}

// userPosition values the amp-LP user holds in LP.
func userPosition(deps chain.Deps, st State, lpBalance sdkmath.Int, user string) (UserInfo, error) {
	held, err := chain.Ops(st.AmpLPToken).Balance(deps.Querier, user)
	if err != nil {
		return UserInfo{}, err
	}
	lp, err := st.BondAmount(lpBalance, held)
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{UserAmpLPAmount: held, UserLPAmount: lp}, nil
}

func queryState(deps chain.Deps, env chain.Env, addr string) (StateResponse, error) {
	cfg, st, err := loadAll(deps.Store)
	if err != nil {
		return StateResponse{}, err
	}
	lpBalance, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return StateResponse{}, err
	}
	resp := StateResponse{
		TotalLP:      lpBalance,
		TotalAmpLP:   st.TotalBondShare,
		ExchangeRate: st.ExchangeRate(lpBalance),
	}
	if addr != "" {
		u, err := userPosition(deps, st, lpBalance, addr)
		if err != nil {
			return StateResponse{}, err
		}
		resp.UserInfo = &u
	}
	return resp, nil
}

func queryUserInfo(deps chain.Deps, env chain.Env, user string) (UserInfoResponse, error) {
	cfg, st, err := loadAll(deps.Store)
	if err != nil {
		return UserInfoResponse{}, err
	}
	lpBalance, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return UserInfoResponse{}, err
	}
	u, err := userPosition(deps, st, lpBalance, user)
	if err != nil {
		return UserInfoResponse{}, err
	}
	return UserInfoResponse{
		TotalLP:         lpBalance,
		TotalAmpLP:      st.TotalBondShare,
		UserLPAmount:    u.UserLPAmount,
		UserAmpLPAmount: u.UserAmpLPAmount,
	}, nil
}

func queryExchangeRates(deps chain.Deps, q ExchangeRatesQuery) (ExchangeRatesResponse, error) {
	points, err := exchangeHistory.Range(deps.Store, q.StartAfter, q.Limit)
	if err != nil {
		return ExchangeRatesResponse{}, err
	}
	return ExchangeRatesResponse{ExchangeRates: points, APR: ledger.ComputeAPR(points)}, nil
}
