package arbvault

import (
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// executeArbitrage lends utoken to the call in msg and checks the outcome in a callback.
func executeArbitrage(deps chain.Deps, env chain.Env, info chain.MessageInfo, msg ExecuteArbitrageMsg) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	adapter, err := adapterFor(cfg, msg.ResultToken)
	if err != nil {
		return nil, err
	}
	if adapter.Disabled {
		return nil, errorsmod.Wrapf(types.ErrLsdDisabled, "%s", adapter.Name)
	}
	if err := assertWhitelisted(deps.Store, info.Sender); err != nil {
		return nil, err
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}

	funds := utils.OrZero(msg.Msg.FundsAmount)
	if !funds.IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}
	if msg.WantedProfit.IsNil() || msg.WantedProfit.LT(MinProfit) {
		return nil, errorsmod.Wrapf(types.ErrNotEnoughProfit, "wanted profit below %s", MinProfit)
	}
	step, err := cfg.step(msg.WantedProfit)
	if err != nil {
		return nil, err
	}

	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	takeable, err := calcTakeable(b.VaultTotal, b.VaultTakeable, step.MaxUtilization)
	if err != nil {
		return nil, err
	}
	if funds.GT(takeable) {
		return nil, errorsmod.Wrapf(types.ErrNotEnoughFundsTakeable, "wanted %s, takeable %s", funds, takeable)
	}

	target := msg.Msg.ContractAddr
	if target == "" {
		target = info.Sender
	}
	if target == env.Contract || usedContracts(cfg)[target] {
		return nil, errorsmod.Wrapf(types.ErrCannotCallLsdContract, "%s", target)
	}

	active, _ := b.Claim(adapter.Name)
	if err := balanceCheckpoint.Save(deps.Store, Checkpoint{
		VaultAvailable: b.VaultAvailable,
		TVLUtoken:      b.TVLUtoken,
		Active:         active,
	}); err != nil {
		return nil, err
	}

	call, err := chain.ExecuteMsg(target, msg.Msg.Msg, cfg.UtokenInfo().WithAmount(funds))
	if err != nil {
		return nil, err
	}
	cb, err := callbackMsg(env, CallbackMsg{AssertResult: &AssertResultMsg{
		ResultToken:  msg.ResultToken,
		WantedProfit: msg.WantedProfit,
	}})
	if err != nil {
		return nil, err
	}

	return chain.NewResponse().
		AddMessages(call, cb).
		AddAttribute("action", "arb/execute_arbitrage").
		AddAttribute("target", target).
		AddAttribute("funds_amount", funds).
		AddAttribute("lsd", adapter.Name), nil
}

func assertResult(deps chain.Deps, env chain.Env, msg AssertResultMsg) (*chain.Response, error) {
	cp, found, err := balanceCheckpoint.MayLoad(deps.Store)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, types.ErrNotExecuting
	}
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fc, err := feeConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	adapter, err := adapterFor(cfg, msg.ResultToken)
	if err != nil {
		return nil, err
	}
	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	claim, _ := b.Claim(adapter.Name)

	used, err := utils.CheckedSub(cp.VaultAvailable, b.VaultAvailable)
	if err != nil || !used.IsPositive() {
		return nil, errorsmod.Wrap(types.ErrNotEnoughProfit, "no utoken was used")
	}
	if b.TVLUtoken.LT(cp.TVLUtoken) {
		return nil, errorsmod.Wrapf(types.ErrNotEnoughProfit, "tvl fell from %s to %s", cp.TVLUtoken, b.TVLUtoken)
	}
	profit := b.TVLUtoken.Sub(cp.TVLUtoken)

	receivedX := utils.SaturatingSub(claim.XBalance, cp.Active.XBalance)
	receivedValue, err := utils.MulDec(receivedX, claim.XFactor)
	if err != nil {
		return nil, err
	}
	if profitByX := receivedValue.Sub(used); profit.LT(profitByX) {
		return nil, errorsmod.Wrapf(types.ErrProfitBalancesDoesNotMatch, "profit %s, by shares %s", profit, profitByX)
	}

	ratio, err := utils.RatioDec(profit, used)
	if err != nil {
		return nil, err
	}
	if ratio.LT(msg.WantedProfit.Mul(resultTolerance)) {
		return nil, errorsmod.Wrapf(types.ErrNotEnoughProfit, "realised %s, wanted %s", ratio, msg.WantedProfit)
	}
	if b.VaultAvailable.LT(b.Locked) {
		return nil, errorsmod.Wrapf(types.ErrDoNotTakeLockedBalance, "available %s, locked %s", b.VaultAvailable, b.Locked)
	}

	res := chain.NewResponse()
	fee, err := utils.MulDec(profit, fc.ProtocolPerformanceFee)
	if err != nil {
		return nil, err
	}
	if fee.IsPositive() {
		if b.VaultTakeable.GTE(fee) {
			res.AddMessages(chain.Ops(cfg.UtokenInfo()).Transfer(fc.ProtocolFeeContract, fee))
		} else {
			xfee, err := utils.QuoDec(fee, claim.XFactor)
			if err != nil {
				return nil, err
			}
			res.AddMessages(chain.Ops(adapter.Asset()).Transfer(fc.ProtocolFeeContract, xfee)).
				AddAttribute("fee_xamount", xfee).
				AddAttribute("fee_xfactor", claim.XFactor)
		}
	}
	balanceCheckpoint.Remove(deps.Store)

	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	rate := shares.ExchangeRate(utils.SaturatingSub(b.VaultTotal, fee), lp.TotalSupply)
	if err := exchangeHistory.Record(deps.Store, env.Block.Time, rate); err != nil {
		return nil, err
	}

	deps.Logger.Info().
		Str("lsd", adapter.Name).
		Str("used", used.String()).
		Str("profit", profit.String()).
		Str("exchange_rate", rate.String()).
		Msg("Arbitrage settled")
	return res.
		AddAttribute("action", "arb/assert_result").
		AddAttribute("type", adapter.Name).
		AddAttribute("result_token", msg.ResultToken).
		AddAttribute("received_xamount", receivedX).
		AddAttribute("old_tvl", cp.TVLUtoken).
		AddAttribute("new_tvl", b.TVLUtoken).
		AddAttribute("used_balance", used).
		AddAttribute("profit", profit).
		AddAttribute("exchange_rate", rate).
		AddAttribute("fee_amount", fee), nil
}

// unbondFromLiquidStaking queues every share the vault holds at the selected hubs.
func unbondFromLiquidStaking(deps chain.Deps, env chain.Env, sender string, names []string) (*chain.Response, error) {
	selected, err := loadLiquidityOp(deps, sender, names)
	if err != nil {
		return nil, err
	}

	res := chain.NewResponse()
	var done []string
	for _, a := range selected {
		held, err := chain.Ops(a.Asset()).Balance(deps.Querier, env.Contract)
		if err != nil {
			return nil, err
		}
		if !held.IsPositive() {
			continue
		}
		m, err := a.UnbondMsg(held)
		if err != nil {
			return nil, err
		}
		res.AddMessages(m)
		done = append(done, a.Name)
	}
	if len(done) == 0 {
		return nil, types.ErrNothingToUnbond
	}
	return res.
		AddAttribute("action", "arb/execute_unbond_liquidity").
		AddAttribute("lsds", strings.Join(done, ",")), nil
}

// withdrawFromLiquidStaking claims finished unbonds at the selected hubs.
func withdrawFromLiquidStaking(deps chain.Deps, env chain.Env, sender string, names []string) (*chain.Response, error) {
	selected, err := loadLiquidityOp(deps, sender, names)
	if err != nil {
		return nil, err
	}

	res := chain.NewResponse()
	var done []string
	for _, a := range selected {
		claim, err := a.Balance(deps.Querier, env.Contract)
		if err != nil {
			return nil, err
		}
		if !claim.Withdrawable.IsPositive() {
			continue
		}
		m, err := a.WithdrawMsg()
		if err != nil {
			return nil, err
		}
		res.AddMessages(m)
		done = append(done, a.Name)
	}
	if len(done) == 0 {
		return nil, types.ErrNothingToWithdraw
	}
	return res.
		AddAttribute("action", "arb/execute_withdraw_liquidity").
		AddAttribute("lsds", strings.Join(done, ",")), nil
}

func loadLiquidityOp(deps chain.Deps, sender string, names []string) ([]Adapter, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if err := assertWhitelisted(deps.Store, sender); err != nil {
		return nil, err
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}
	return selectAdapters(cfg, names)
}
