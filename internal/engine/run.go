package engine

import (
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/observability/metrics"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

const contractAddressKey = "_contract_address"

// txRun is the state of one transaction: its branch, native modules and collected events.
type txRun struct {
	exec    *Executor
	kv      storetypes.KVStore
	now     uint64
	height  int64
	bank    chain.Bank
	staking chain.Staking
	logger  zerolog.Logger
	events  []chain.Event
}

var _ chain.Querier = (*txRun)(nil)

func (r *txRun) env(contract string) chain.Env {
	return chain.Env{
		Block:    chain.BlockInfo{Height: r.height, Time: r.now},
		Contract: contract,
	}
}

func (r *txRun) deps(contract string) chain.Deps {
	return chain.Deps{
		Store:   store.Prefixed(r.kv, "contract:"+contract),
		Querier: r,
		Logger:  r.logger.With().Str("contract", contract).Logger(),
	}
}

func (r *txRun) contract(addr string) (chain.Contract, error) {
	c, ok := r.exec.contracts[addr]
	if !ok {
		return nil, errorsmod.Wrap(ErrUnknownContract, addr)
	}
	return c, nil
}

// call executes msg on contract on behalf of sender, then every message it returned.
func (r *txRun) call(sender, addr string, msg json.RawMessage, funds []types.Asset, depth int) error {
	if depth > MaxCallDepth {
		return errorsmod.Wrapf(ErrCallDepth, "calling %s", addr)
	}
	c, err := r.contract(addr)
	if err != nil {
		return err
	}
	if err := r.transferFunds(sender, addr, funds); err != nil {
		return err
	}

	action := actionOf(msg)
	r.logger.Debug().Str("sender", sender).Str("target", addr).Str("action", action).Int("depth", depth).Msg("Executing contract message")

	resp, err := c.Execute(r.deps(addr), r.env(addr), chain.MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		return errorsmod.Wrapf(err, "%s: %s", addr, action)
	}
	return r.handleResponse(addr, resp, depth)
}

func (r *txRun) transferFunds(sender, addr string, funds []types.Asset) error {
	if len(funds) == 0 {
		return nil
	}
	return r.bank.Send(sender, addr, funds...)
}

func (r *txRun) handleResponse(addr string, resp *chain.Response, depth int) error {
	if resp == nil {
		return nil
	}
	if len(resp.Attributes) > 0 {
		ev := chain.NewEvent("wasm").Add(contractAddressKey, addr)
		ev.Attributes = append(ev.Attributes, resp.Attributes...)
		r.events = append(r.events, ev)
	}
	for _, e := range resp.Events {
		ev := chain.NewEvent("wasm-"+e.Type).Add(contractAddressKey, addr)
		ev.Attributes = append(ev.Attributes, e.Attributes...)
		r.events = append(r.events, ev)
	}
	for _, m := range resp.Messages {
		if err := r.dispatch(addr, m, depth); err != nil {
			return err
		}
	}
	return nil
}

// dispatch executes one message returned by sender's handler.
func (r *txRun) dispatch(sender string, msg chain.Msg, depth int) error {
	switch m := msg.(type) {
	case chain.BankSend:
		return r.bank.Send(sender, m.To, m.Amount...)
	case chain.TokenTransfer:
		return r.bank.Send(sender, m.To, types.IssuedAsset(m.Contract, m.Amount))
	case chain.Mint:
		return r.bank.Mint(sender, m.Recipient, types.NativeAsset(m.Denom, m.Amount))
	case chain.Burn:
		return r.bank.Burn(sender, types.NativeAsset(m.Denom, m.Amount))
	case chain.TokenMint:
		return r.bank.Mint(sender, m.Recipient, types.IssuedAsset(m.Contract, m.Amount))
	case chain.TokenBurn:
		// holders may burn their own issued tokens
		return r.bank.Destroy(sender, types.IssuedAsset(m.Contract, m.Amount))
	case chain.Delegate:
		return r.staking.Delegate(sender, m.Validator, m.Amount)
	case chain.Undelegate:
		return r.staking.Undelegate(r.now, sender, m.Validator, m.Amount)
	case chain.Redelegate:
		return r.staking.Redelegate(sender, m.Src, m.Dst, m.Amount)
	case chain.WithdrawRewards:
		_, err := r.staking.WithdrawRewards(sender, m.Validator)
		return err
	case chain.Execute:
		return r.call(sender, m.Contract, m.Msg, m.Funds, depth+1)
	}
	return errorsmod.Wrapf(ErrUnsupportedMsg, "%T", msg)
}

func (r *txRun) Balance(holder string, asset types.AssetInfo) (sdkmath.Int, error) {
	return r.bank.Balance(holder, asset)
}

func (r *txRun) Supply(asset types.AssetInfo) (sdkmath.Int, error) {
	return r.bank.Supply(asset)
}

func (r *txRun) Delegations(delegator string) ([]types.Delegation, error) {
	return r.staking.Delegations(delegator)
}

func (r *txRun) QueryContract(addr string, msg json.RawMessage) (json.RawMessage, error) {
	return r.queryContract(addr, msg)
}

func (r *txRun) queryContract(addr string, msg json.RawMessage) (json.RawMessage, error) {
	c, err := r.contract(addr)
	if err != nil {
		return nil, err
	}
	out, err := c.Query(r.deps(addr), r.env(addr), msg)
	if err != nil {
		return nil, err
	}
	bz, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query response of %s: %w", addr, err)
	}
	return bz, nil
}

func recordExchangeRates(events []chain.Event) {
	for _, ev := range events {
		raw, ok := ev.Get("exchange_rate")
		if !ok {
			continue
		}
		addr, _ := ev.Get(contractAddressKey)
		rate, err := sdkmath.LegacyNewDecFromStr(raw)
		if err != nil {
			continue
		}
		if f, err := utils.DecToFloat64(rate); err == nil {
			metrics.SetExchangeRate(addr, f)
		}
	}
}
