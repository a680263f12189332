package farm

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// bond bonds LP sent along with the message.
func bond(deps chain.Deps, env chain.Env, info chain.MessageInfo, receiver string) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil || !fund.Info.Equal(cfg.LPToken) {
		return nil, errorsmod.Wrapf(types.ErrInvalidDeposit, "expected %s", cfg.LPToken)
	}
	return bondInternal(deps, env, cfg, receiver, fund.Amount)
}

// bondAssets sends the assets to the compound proxy and bonds the LP it returns.
func bondAssets(deps chain.Deps, env chain.Env, info chain.MessageInfo, msg BondAssetsMsg) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if err := assertFundsMatch(msg.Assets, info.Funds); err != nil {
		return nil, err
	}

	proxy, err := cfg.CompoundProxy.CompoundMsg(msg.Assets, env.Contract)
	if err != nil {
		return nil, err
	}
	prev, err := chain.Ops(cfg.LPToken).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	cb, err := callbackMsg(env, CallbackMsg{BondTo: &BondToMsg{
		To:             orSender(msg.Receiver, info),
		PrevBalance:    prev,
		MinimumReceive: msg.MinimumReceive,
	}})
	if err != nil {
		return nil, err
	}

	return chain.NewResponse().
		AddMessages(proxy, cb).
		AddAttribute("action", "farm/bond_assets"), nil
}

// assertFundsMatch requires assets to be unique and attached in exactly the declared amounts.
func assertFundsMatch(assets, funds []types.Asset) error {
	if len(assets) == 0 {
		return errorsmod.Wrap(types.ErrInvalidFunds, "no assets")
	}
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if seen[a.Info.Key()] {
			return errorsmod.Wrap(types.ErrDuplicateAsset, a.Info.String())
		}
		seen[a.Info.Key()] = true
	}
	if len(funds) != len(assets) {
		return errorsmod.Wrapf(types.ErrInvalidFunds, "expected %d funds, got %d", len(assets), len(funds))
	}
	sent := types.Coins(funds)
	for _, a := range assets {
		if !utils.OrZero(a.Amount).IsPositive() || !sent.Find(a.Info).Amount.Equal(a.Amount) {
			return errorsmod.Wrapf(types.ErrInvalidFunds, "%s was not sent", a)
		}
	}
	return nil
}

func bondTo(deps chain.Deps, env chain.Env, msg BondToMsg) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
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
	return bondInternal(deps, env, cfg, msg.To, amount)
}

// bondInternal mints amp-LP for amount, priced with the deposit profit delay, and deposits the LP.
func bondInternal(deps chain.Deps, env chain.Env, cfg Config, staker string, amount sdkmath.Int) (*chain.Response, error) {
	if !utils.OrZero(amount).IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}
	st, err := state.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	lpBalance, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}

	var points []ledger.Point
	if cfg.DepositProfitDelayS > 0 {
		if points, err = exchangeHistory.Latest(deps.Store, RelevantExchangeRates); err != nil {
			return nil, err
		}
	}
	share, adjusted, err := DelayedShare(points, cfg.DepositProfitDelayS, st.TotalBondShare, amount, lpBalance)
	if err != nil {
		return nil, err
	}
	if st.TotalBondShare, err = utils.CheckedAdd(st.TotalBondShare, adjusted); err != nil {
		return nil, err
	}
	if err := state.Save(deps.Store, st); err != nil {
		return nil, err
	}
	totalLP, err := utils.CheckedAdd(lpBalance, amount)
	if err != nil {
		return nil, err
	}

	deposit, err := cfg.Generator.DepositMsg(cfg.LPToken.WithAmount(amount))
	if err != nil {
		return nil, err
	}
	resp := chain.NewResponse()
	if adjusted.IsPositive() {
		resp.AddMessages(chain.Ops(st.AmpLPToken).Mint(staker, adjusted))
	}
	resp.AddMessages(deposit)

	deps.Logger.Debug().Str("staker", staker).Str("amount", amount.String()).Str("share", adjusted.String()).Msg("Bonded LP")
	return resp.
		AddAttribute("action", "farm/bond").
		AddAttribute("staker_addr", staker).
		AddAttribute("bond_amount", amount).
		AddAttribute("bond_share", share).
		AddAttribute("bond_share_adjusted", adjusted).
		AddAttribute("total_lp", totalLP).
		AddAttribute("total_amp_lp", st.TotalBondShare), nil
}

func unbond(deps chain.Deps, env chain.Env, info chain.MessageInfo, receiver string) (*chain.Response, error) {
	cfg, st, err := loadAll(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil || !fund.Info.Equal(st.AmpLPToken) {
		return nil, errorsmod.Wrapf(types.ErrExpectingShareToken, "expected %s", st.AmpLPToken)
	}
	if !utils.OrZero(fund.Amount).IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}

	lpBalance, err := cfg.Generator.QueryDeposit(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	bondAmount, err := st.BondAmount(lpBalance, fund.Amount)
	if err != nil {
		return nil, err
	}
	if st.TotalBondShare, err = utils.CheckedSub(st.TotalBondShare, fund.Amount); err != nil {
		return nil, err
	}
	if err := state.Save(deps.Store, st); err != nil {
		return nil, err
	}

	resp := chain.NewResponse().AddMessages(chain.Ops(st.AmpLPToken).Burn(fund.Amount))
	if bondAmount.IsPositive() {
		withdraw, err := cfg.Generator.WithdrawMsg(bondAmount)
		if err != nil {
			return nil, err
		}
		resp.AddMessages(withdraw, chain.Ops(cfg.LPToken).Transfer(receiver, bondAmount))
	}

	return resp.
		AddAttribute("action", "farm/unbond").
		AddAttribute("staker_addr", receiver).
		AddAttribute("amount", bondAmount), nil
}
