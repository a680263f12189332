package arbvault

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

func deposit(deps chain.Deps, env chain.Env, info chain.MessageInfo, msg DepositMsg) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil {
		return nil, err
	}
	if !fund.Info.Equal(msg.Asset.Info) || !fund.Amount.Equal(utils.OrZero(msg.Asset.Amount)) {
		return nil, errorsmod.Wrapf(types.ErrInvalidFunds, "sent %s, declared %s", fund, msg.Asset)
	}
	if !fund.Info.Equal(cfg.UtokenInfo()) {
		return nil, errorsmod.Wrapf(types.ErrInvalidDeposit, "only %s can be deposited", cfg.Utoken)
	}
	if !fund.Amount.IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}

	// the deposit is already part of the vault balance
	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	share, err := shares.MintAmount(lp.TotalSupply, fund.Amount, utils.SaturatingSub(b.VaultTotal, fund.Amount))
	if err != nil {
		return nil, err
	}
	if !share.IsPositive() {
		return nil, errorsmod.Wrap(types.ErrInvalidZeroAmount, "deposit too small to mint a share")
	}
	if lp.TotalSupply, err = utils.CheckedAdd(lp.TotalSupply, share); err != nil {
		return nil, err
	}
	if err := lpToken.Save(deps.Store, lp); err != nil {
		return nil, err
	}

	recipient := orSender(msg.Receiver, info)
	deps.Logger.Debug().Str("recipient", recipient).Str("amount", fund.Amount.String()).Str("share", share.String()).Msg("Deposit")
	return chain.NewResponse().
		AddMessages(chain.Ops(lp.Info()).Mint(recipient, share)).
		AddAttribute("action", "arb/execute_deposit").
		AddAttribute("sender", info.Sender).
		AddAttribute("recipient", recipient).
		AddAttribute("deposit_amount", fund.Amount).
		AddAttribute("share", share).
		AddAttribute("vault_utoken_new", b.VaultTotal), nil
}

func unbond(deps chain.Deps, env chain.Env, info chain.MessageInfo, immediate bool) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	lp, err := lpToken.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	fund, err := types.SingleFund(info.Funds)
	if err != nil || !fund.Info.Equal(lp.Info()) {
		return nil, errorsmod.Wrapf(types.ErrExpectingShareToken, "expected %s", lp.Denom)
	}
	if !fund.Amount.IsPositive() {
		return nil, types.ErrInvalidZeroAmount
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}

	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	amount, err := shares.UnbondAmount(lp.TotalSupply, fund.Amount, b.VaultTotal)
	if err != nil {
		return nil, err
	}
	if lp.TotalSupply, err = utils.CheckedSub(lp.TotalSupply, fund.Amount); err != nil {
		return nil, err
	}
	if err := lpToken.Save(deps.Store, lp); err != nil {
		return nil, err
	}
	res := chain.NewResponse().AddMessages(chain.Ops(lp.Info()).Burn(fund.Amount))

	if immediate {
		if err := createWithdraw(deps, env, res, b, info.Sender, amount, sdkmath.LegacyOneDec(), sdkmath.ZeroInt()); err != nil {
			return nil, err
		}
		return res.AddAttribute("burnt_amount", fund.Amount), nil
	}

	fc, err := feeConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	id, err := nextUnbondID(deps.Store)
	if err != nil {
		return nil, err
	}
	entry := UnbondHistory{StartTime: env.Block.Time, ReleaseTime: env.Block.Time + cfg.UnbondTimeS, AmountAsset: amount}
	if err := unbondHistory.Save(deps.Store, historyKey(info.Sender, id), entry); err != nil {
		return nil, err
	}
	locked, err := utils.CheckedAdd(b.Locked, amount)
	if err != nil {
		return nil, err
	}
	if err := balanceLocked.Save(deps.Store, locked); err != nil {
		return nil, err
	}
	fees, err := calcFees(fc, amount, sdkmath.LegacyZeroDec())
	if err != nil {
		return nil, err
	}

	return res.
		AddAttribute("action", "arb/execute_unbond").
		AddAttribute("from", info.Sender).
		AddAttribute("unbond_id", id).
		AddAttribute("release_time", entry.ReleaseTime).
		AddAttribute("withdraw_amount", amount).
		AddAttribute("receive_amount", fees.Receive).
		AddAttribute("protocol_fee", fees.ProtocolFee).
		AddAttribute("burnt_amount", fund.Amount), nil
}

// withdrawUnbonded settles the released unbonds of sender, oldest first.
func withdrawUnbonded(deps chain.Deps, env chain.Env, sender string) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}

	var ids []uint64
	total := sdkmath.ZeroInt()
	err = unbondHistory.Range(deps.Store, store.Str(sender), nil, nil, store.Ascending, func(key []byte, e UnbondHistory) (bool, error) {
		if e.ReleaseTime > env.Block.Time {
			return false, nil
		}
		id, err := store.ParseU64(key)
		if err != nil {
			return true, err
		}
		if total, err = utils.CheckedAdd(total, e.AmountAsset); err != nil {
			return true, err
		}
		ids = append(ids, id)
		return len(ids) >= withdrawPageSize, nil
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errorsmod.Wrapf(types.ErrNoWithdrawableAsset, "nothing released for %s", sender)
	}
	for _, id := range ids {
		unbondHistory.Remove(deps.Store, historyKey(sender, id))
	}

	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	res := chain.NewResponse()
	if err := createWithdraw(deps, env, res, b, sender, total, sdkmath.LegacyZeroDec(), total); err != nil {
		return nil, err
	}
	return res.AddAttribute("ids", chain.JoinIDs(ids)), nil
}

// withdrawImmediate settles one queued unbond before its release, paying the pool for the time left.
func withdrawImmediate(deps chain.Deps, env chain.Env, sender string, id uint64) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if err := assertNotExecuting(deps.Store); err != nil {
		return nil, err
	}
	key := historyKey(sender, id)
	entry, found, err := unbondHistory.MayLoad(deps.Store, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorsmod.Wrapf(types.ErrNotFound, "unbond %d of %s", id, sender)
	}
	unbondHistory.Remove(deps.Store, key)

	b, err := loadBalances(deps, env, cfg)
	if err != nil {
		return nil, err
	}
	factor := poolFeeFactor(env.Block.Time, entry.StartTime, entry.ReleaseTime)
	res := chain.NewResponse()
	if err := createWithdraw(deps, env, res, b, sender, entry.AmountAsset, factor, entry.AmountAsset); err != nil {
		return nil, err
	}
	return res.AddAttribute("id", id), nil
}

// createWithdraw pays amount out of the vault, releasing take from the locked balance first.
// factor scales the immediate withdraw fee kept by the pool.
func createWithdraw(
	deps chain.Deps,
	env chain.Env,
	res *chain.Response,
	b Balances,
	receiver string,
	amount sdkmath.Int,
	factor sdkmath.LegacyDec,
	take sdkmath.Int,
) error {
	if !utils.OrZero(amount).IsPositive() {
		return types.ErrNoWithdrawableAsset
	}
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return err
	}
	fc, err := feeConfig.Load(deps.Store)
	if err != nil {
		return err
	}

	locked := utils.SaturatingSub(b.Locked, take)
	takeable := utils.SaturatingSub(b.VaultAvailable, locked)
	if takeable.LT(amount) {
		return errorsmod.Wrapf(types.ErrNotEnoughAssetsInThePool, "wanted %s, takeable %s", amount, takeable)
	}
	if err := balanceLocked.Save(deps.Store, locked); err != nil {
		return err
	}

	fees, err := calcFees(fc, amount, factor)
	if err != nil {
		return err
	}
	utoken := chain.Ops(cfg.UtokenInfo())
	if fees.Receive.IsPositive() {
		res.AddMessages(utoken.Transfer(receiver, fees.Receive))
	}
	if fees.ProtocolFee.IsPositive() {
		res.AddMessages(utoken.Transfer(fc.ProtocolFeeContract, fees.ProtocolFee))
	}

	deps.Logger.Debug().
		Str("receiver", receiver).
		Str("amount", amount.String()).
		Str("pool_fee", fees.PoolFee.String()).
		Uint64("time", env.Block.Time).
		Msg("Withdraw")
	res.AddAttribute("action", "arb/execute_withdraw").
		AddAttribute("receiver", receiver).
		AddAttribute("withdraw_amount", amount).
		AddAttribute("receive_amount", fees.Receive).
		AddAttribute("protocol_fee", fees.ProtocolFee).
		AddAttribute("pool_fee", fees.PoolFee).
		AddAttribute("immediate", factor.IsPositive())
	return nil
}

func orSender(receiver string, info chain.MessageInfo) string {
	if receiver == "" {
		return info.Sender
	}
	return receiver
}
