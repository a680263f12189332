package hub

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/planner"
	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// bond stakes the deposit with the validator the strategy picks and mints shares priced against
// the delegations held before it. A donation stakes without minting.
func bond(deps chain.Deps, env chain.Env, info chain.MessageInfo, receiver string, donate bool) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	deposit, err := types.SingleFund(info.Funds)
	if err != nil || !deposit.Info.Equal(cfg.UtokenInfo()) || !utils.OrZero(deposit.Amount).IsPositive() {
		return nil, errorsmod.Wrapf(types.ErrInvalidDeposit, "expected a positive amount of %s", cfg.Utoken)
	}
	if donate && !cfg.DonationsEnabled {
		return nil, types.ErrDonationsDisabled
	}

	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}
	p, err := cfg.Planner()
	if err != nil {
		return nil, err
	}
	plan, err := p.Bond(deposit.Amount, current, cfg.Validators)
	if err != nil {
		return nil, err
	}
	if err := planner.AssertTotal(plan, deposit.Amount); err != nil {
		return nil, err
	}

	minted := sdkmath.ZeroInt()
	supply, err := loadSupply(deps.Store)
	if err != nil {
		return nil, err
	}
	if !donate {
		if minted, err = shares.MintAmount(supply, deposit.Amount, types.TotalDelegated(current)); err != nil {
			return nil, err
		}
		next, err := utils.CheckedAdd(supply, minted)
		if err != nil {
			return nil, err
		}
		if err := totalShares.Save(deps.Store, next); err != nil {
			return nil, err
		}
	}

	// the check runs after the delegation, which withdraws pending rewards into the hub
	check, err := receivedCoinCheck(deps, env, cfg, deposit.Amount)
	if err != nil {
		return nil, err
	}

	resp := chain.NewResponse()
	for _, d := range plan {
		resp.AddMessages(chain.Delegate{Validator: d.Validator, Amount: d.Amount})
	}
	if minted.IsPositive() {
		resp.AddMessages(chain.Ops(cfg.StakeInfo()).Mint(receiver, minted))
	}
	resp.AddMessages(check)

	deps.Logger.Debug().Str("receiver", receiver).Str("amount", deposit.Amount.String()).Str("minted", minted.String()).Bool("donate", donate).Msg("Bonded")
	return resp.
		AddEvent(chain.NewEvent("hub/bonded").
			Add("receiver", receiver).
			Add("token_bonded", deposit.Amount).
			Add("ustake_minted", minted)).
		AddAttribute("action", "hub/bond"), nil
}

// harvest withdraws every delegation's rewards, collects them into the unlocked buffer and
// reinvests them, all in one transaction.
func harvest(deps chain.Deps, env chain.Env) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}

	resp := chain.NewResponse()
	for _, d := range current {
		resp.AddMessages(chain.WithdrawRewards{Validator: d.Validator})
	}
	check, err := receivedCoinCheck(deps, env, cfg, sdkmath.ZeroInt())
	if err != nil {
		return nil, err
	}
	reinvestMsg, err := callbackMsg(env, CallbackMsg{Reinvest: &struct{}{}})
	if err != nil {
		return nil, err
	}
	return resp.AddMessages(check, reinvestMsg).AddAttribute("action", "hub/harvest"), nil
}

// receivedCoinCheck snapshots the hub's underlying (less offset, funds being bonded right now)
// and share token balances into a CheckReceivedCoin callback.
func receivedCoinCheck(deps chain.Deps, env chain.Env, cfg Config, offset sdkmath.Int) (chain.Msg, error) {
	utoken, err := chain.Ops(cfg.UtokenInfo()).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	if utoken, err = utils.CheckedSub(utoken, offset); err != nil {
		return nil, err
	}
	stake, err := chain.Ops(cfg.StakeInfo()).Balance(deps.Querier, env.Contract)
	if err != nil {
		return nil, err
	}
	return callbackMsg(env, CallbackMsg{CheckReceivedCoin: &CheckReceivedCoin{
		Snapshot:      cfg.UtokenInfo().WithAmount(utoken),
		SnapshotStake: cfg.StakeInfo().WithAmount(stake),
	}})
}

// checkReceivedCoin adds what arrived since the snapshots to the unlocked buffer.
func checkReceivedCoin(deps chain.Deps, env chain.Env, msg CheckReceivedCoin) (*chain.Response, error) {
	ev := chain.NewEvent("hub/received")
	var received types.Coins
	for _, snap := range []types.Asset{msg.Snapshot, msg.SnapshotStake} {
		balance, err := chain.Ops(snap.Info).Balance(deps.Querier, env.Contract)
		if err != nil {
			return nil, err
		}
		if balance.LTE(utils.OrZero(snap.Amount)) {
			continue
		}
		coin := snap.Info.WithAmount(balance.Sub(snap.Amount))
		if received, err = received.Add(coin); err != nil {
			return nil, err
		}
		ev = ev.Add("received_coin", coin)
	}

	if !received.IsEmpty() {
		if _, err := unlockedCoins.Update(deps.Store, func(c types.Coins) (types.Coins, error) {
			return c.AddMany(received...)
		}); err != nil {
			return nil, err
		}
	}
	return chain.NewResponse().AddEvent(ev).AddAttribute("action", "hub/received"), nil
}

// reinvest stakes the unlocked underlying and burns unlocked shares, each net of the protocol fee,
// then records the new exchange rate.
func reinvest(deps chain.Deps, env chain.Env) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	unlocked, err := loadUnlocked(deps.Store)
	if err != nil {
		return nil, err
	}
	utokenInfo, stakeInfo := cfg.UtokenInfo(), cfg.StakeInfo()
	toBond, toBurn := unlocked.Find(utokenInfo), unlocked.Find(stakeInfo)
	if toBond.Amount.IsZero() && toBurn.Amount.IsZero() {
		return nil, errorsmod.Wrapf(types.ErrNoTokensAvailable, "%s, %s", cfg.Utoken, cfg.StakeDenom)
	}

	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}
	supply, err := loadSupply(deps.Store)
	if err != nil {
		return nil, err
	}
	totalUtoken := types.TotalDelegated(current)

	resp := chain.NewResponse()
	ev := chain.NewEvent("hub/harvested")
	fee := cfg.FeeConfig.ProtocolRewardFee

	if toBond.Amount.IsPositive() {
		protocolFee, err := utils.MulDec(toBond.Amount, fee)
		if err != nil {
			return nil, err
		}
		remaining := utils.SaturatingSub(toBond.Amount, protocolFee)
		if remaining.IsPositive() {
			validator, err := planner.LeastDelegated(current, cfg.Validators)
			if err != nil {
				return nil, err
			}
			resp.AddMessages(chain.Delegate{Validator: validator, Amount: remaining})
			totalUtoken = totalUtoken.Add(remaining)
		}
		if protocolFee.IsPositive() {
			resp.AddMessages(chain.Ops(utokenInfo).Transfer(cfg.FeeConfig.ProtocolFeeContract, protocolFee))
		}
		ev = ev.Add("utoken_bonded", remaining).Add("utoken_protocol_fee", protocolFee)
	}

	if toBurn.Amount.IsPositive() {
		protocolFee, err := utils.MulDec(toBurn.Amount, fee)
		if err != nil {
			return nil, err
		}
		remaining := utils.SaturatingSub(toBurn.Amount, protocolFee)
		if remaining.IsPositive() {
			if supply, err = utils.CheckedSub(supply, remaining); err != nil {
				return nil, err
			}
			if err := totalShares.Save(deps.Store, supply); err != nil {
				return nil, err
			}
			resp.AddMessages(chain.Ops(stakeInfo).Burn(remaining))
		}
		if protocolFee.IsPositive() {
			resp.AddMessages(chain.Ops(stakeInfo).Transfer(cfg.FeeConfig.ProtocolFeeContract, protocolFee))
		}
		ev = ev.Add("ustake_burned", remaining).Add("ustake_protocol_fee", protocolFee)
	}

	unlocked = unlocked.Retain(func(a types.Asset) bool {
		return !a.Info.Equal(utokenInfo) && !a.Info.Equal(stakeInfo)
	})
	if err := unlockedCoins.Save(deps.Store, unlocked); err != nil {
		return nil, err
	}

	rate := shares.ExchangeRate(totalUtoken, supply)
	if err := exchangeHistory.Record(deps.Store, env.Block.Time, rate); err != nil {
		return nil, err
	}

	deps.Logger.Info().Str("exchange_rate", rate.String()).Msg("Reinvested rewards")
	return resp.
		AddEvent(ev).
		AddAttribute("action", "hub/reinvest").
		AddAttribute("exchange_rate", rate), nil
}
