package arbvault

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// ClaimBalance is what the vault holds in one LSD, valued in utoken except XBalance.
type ClaimBalance struct {
	Name         string            `json:"name"`
	Withdrawable sdkmath.Int       `json:"withdrawable"`
	Unbonding    sdkmath.Int       `json:"unbonding"`
	XBalance     sdkmath.Int       `json:"xbalance"`
	XFactor      sdkmath.LegacyDec `json:"xfactor"`
}

// XValue is the utoken value of the share balance at the current exchange rate.
func (c ClaimBalance) XValue() (sdkmath.Int, error) {
	return utils.MulDec(c.XBalance, c.XFactor)
}

// Adapter talks to one liquid staking hub on behalf of the vault.
type Adapter struct {
	LSDConfig
}

func (a Adapter) Asset() types.AssetInfo { return types.NativeInfo(a.Denom) }

// UsedContracts are the addresses arbitrage calls may never target.
func (a Adapter) UsedContracts() []string { return []string{a.HubAddr} }

func (a Adapter) state(q chain.Querier) (hub.StateResponse, error) {
	return chain.QueryJSON[hub.StateResponse](q, a.HubAddr, hub.QueryMsg{State: &struct{}{}})
}

// requests pages through every unbond request the vault has at the hub.
func (a Adapter) requests(q chain.Querier, vault string) ([]hub.UnbondRequestDetails, error) {
	var (
		out        []hub.UnbondRequestDetails
		startAfter *uint64
		limit      = uint32(ledger.MaxLimit)
	)
	for {
		page, err := chain.QueryJSON[[]hub.UnbondRequestDetails](q, a.HubAddr, hub.QueryMsg{
			UnbondRequestsByUserDetails: &hub.RequestsByUser{User: vault, StartAfter: startAfter, Limit: &limit},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < int(limit) {
			return out, nil
		}
		last := page[len(page)-1].ID
		startAfter = &last
	}
}

// Balance values everything the vault holds in this LSD.
func (a Adapter) Balance(q chain.Querier, vault string) (ClaimBalance, error) {
	st, err := a.state(q)
	if err != nil {
		return ClaimBalance{}, err
	}
	xbalance, err := chain.Ops(a.Asset()).Balance(q, vault)
	if err != nil {
		return ClaimBalance{}, err
	}
	requests, err := a.requests(q, vault)
	if err != nil {
		return ClaimBalance{}, err
	}

	withdrawable, unbonding := sdkmath.ZeroInt(), sdkmath.ZeroInt()
	for _, r := range requests {
		value, err := requestValue(r, st.ExchangeRate)
		if err != nil {
			return ClaimBalance{}, err
		}
		if r.State == hub.RequestWithdrawable {
			withdrawable, err = utils.CheckedAdd(withdrawable, value)
		} else {
			unbonding, err = utils.CheckedAdd(unbonding, value)
		}
		if err != nil {
			return ClaimBalance{}, err
		}
	}

	return ClaimBalance{
		Name:         a.Name,
		Withdrawable: withdrawable,
		Unbonding:    unbonding,
		XBalance:     xbalance,
		XFactor:      st.ExchangeRate,
	}, nil
}

// requestValue prices a request at its batch rate, or at the live rate while it is pending.
func requestValue(r hub.UnbondRequestDetails, rate sdkmath.LegacyDec) (sdkmath.Int, error) {
	if r.Batch == nil {
		return utils.MulDec(r.Shares, rate)
	}
	if utils.OrZero(r.Batch.TotalShares).IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return utils.MulRatio(r.Batch.UnderlyingUnclaimed, r.Shares, r.Batch.TotalShares)
}

// UnbondMsg queues amount of shares for unbonding at the hub.
func (a Adapter) UnbondMsg(amount sdkmath.Int) (chain.Msg, error) {
	return chain.ExecuteMsg(a.HubAddr, hub.ExecuteMsg{QueueUnbond: &hub.QueueUnbondMsg{}}, a.Asset().WithAmount(amount))
}

// WithdrawMsg claims every finished unbond of the vault.
func (a Adapter) WithdrawMsg() (chain.Msg, error) {
	return chain.ExecuteMsg(a.HubAddr, hub.ExecuteMsg{WithdrawUnbonded: &hub.WithdrawUnbondedMsg{}})
}
