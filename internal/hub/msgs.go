package hub

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/types"
)

// DelegationStrategy selects the allocation policy. Weights are only read for "defined".
type DelegationStrategy struct {
	Name    string                       `json:"name"`
	Weights map[string]sdkmath.LegacyDec `json:"weights,omitempty"`
}

type FeeConfig struct {
	ProtocolFeeContract string            `json:"protocol_fee_contract"`
	ProtocolRewardFee   sdkmath.LegacyDec `json:"protocol_reward_fee"`
}

type InstantiateMsg struct {
	Owner               string              `json:"owner"`
	Operator            string              `json:"operator,omitempty"`
	Utoken              string              `json:"utoken"`
	StakeDenom          string              `json:"stake_denom"`
	EpochPeriod         uint64              `json:"epoch_period"`
	UnbondPeriod        uint64              `json:"unbond_period"`
	Validators          []string            `json:"validators"`
	ProtocolFeeContract string              `json:"protocol_fee_contract"`
	ProtocolRewardFee   sdkmath.LegacyDec   `json:"protocol_reward_fee"`
	DonationsEnabled    bool                `json:"donations_enabled"`
	DelegationStrategy  *DelegationStrategy `json:"delegation_strategy,omitempty"`
}

// ExecuteMsg is externally tagged: exactly one field is set.
type ExecuteMsg struct {
	Bond              *BondMsg              `json:"bond,omitempty"`
	Donate            *struct{}             `json:"donate,omitempty"`
	QueueUnbond       *QueueUnbondMsg       `json:"queue_unbond,omitempty"`
	WithdrawUnbonded  *WithdrawUnbondedMsg  `json:"withdraw_unbonded,omitempty"`
	Harvest           *struct{}             `json:"harvest,omitempty"`
	SubmitBatch       *struct{}             `json:"submit_batch,omitempty"`
	Reconcile         *struct{}             `json:"reconcile,omitempty"`
	Rebalance         *RebalanceMsg         `json:"rebalance,omitempty"`
	AddValidator      *ValidatorMsg         `json:"add_validator,omitempty"`
	RemoveValidator   *ValidatorMsg         `json:"remove_validator,omitempty"`
	TransferOwnership *TransferOwnershipMsg `json:"transfer_ownership,omitempty"`
	AcceptOwnership   *struct{}             `json:"accept_ownership,omitempty"`
	DropOwnership     *struct{}             `json:"drop_ownership_proposal,omitempty"`
	UpdateConfig      *UpdateConfigMsg      `json:"update_config,omitempty"`
	Callback          *CallbackMsg          `json:"callback,omitempty"`
}

type BondMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

type QueueUnbondMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

type WithdrawUnbondedMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

type RebalanceMsg struct {
	MinRedelegation *sdkmath.Int `json:"min_redelegation,omitempty"`
}

type ValidatorMsg struct {
	Validator string `json:"validator"`
}

type TransferOwnershipMsg struct {
	NewOwner string `json:"new_owner"`
}

// UpdateConfigMsg changes only the fields that are set.
type UpdateConfigMsg struct {
	ProtocolFeeContract *string             `json:"protocol_fee_contract,omitempty"`
	ProtocolRewardFee   *sdkmath.LegacyDec  `json:"protocol_reward_fee,omitempty"`
	Operator            *string             `json:"operator,omitempty"`
	DonationsEnabled    *bool               `json:"donations_enabled,omitempty"`
	EpochPeriod         *uint64             `json:"epoch_period,omitempty"`
	UnbondPeriod        *uint64             `json:"unbond_period,omitempty"`
	DelegationStrategy  *DelegationStrategy `json:"delegation_strategy,omitempty"`
}

// CallbackMsg continues a transaction; only the hub itself may send it.
type CallbackMsg struct {
	CheckReceivedCoin *CheckReceivedCoin `json:"check_received_coin,omitempty"`
	Reinvest          *struct{}          `json:"reinvest,omitempty"`
}

// CheckReceivedCoin carries the balances taken before the messages whose proceeds it collects.
type CheckReceivedCoin struct {
	Snapshot      types.Asset `json:"snapshot"`
	SnapshotStake types.Asset `json:"snapshot_stake"`
}

type QueryMsg struct {
	Config                      *struct{}           `json:"config,omitempty"`
	State                       *struct{}           `json:"state,omitempty"`
	PendingBatch                *struct{}           `json:"pending_batch,omitempty"`
	PreviousBatch               *uint64             `json:"previous_batch,omitempty"`
	PreviousBatches             *PageQuery          `json:"previous_batches,omitempty"`
	UnbondRequestsByBatch       *RequestsByBatch    `json:"unbond_requests_by_batch,omitempty"`
	UnbondRequestsByUser        *RequestsByUser     `json:"unbond_requests_by_user,omitempty"`
	UnbondRequestsByUserDetails *RequestsByUser     `json:"unbond_requests_by_user_details,omitempty"`
	ExchangeRates               *ExchangeRatesQuery `json:"exchange_rates,omitempty"`
}

type PageQuery struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type RequestsByBatch struct {
	ID         uint64  `json:"id"`
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type RequestsByUser struct {
	User       string  `json:"user"`
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ExchangeRatesQuery struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ConfigResponse struct {
	Owner              string             `json:"owner"`
	NewOwner           string             `json:"new_owner,omitempty"`
	Operator           string             `json:"operator"`
	Utoken             string             `json:"utoken"`
	StakeToken         string             `json:"stake_token"`
	EpochPeriod        uint64             `json:"epoch_period"`
	UnbondPeriod       uint64             `json:"unbond_period"`
	Validators         []string           `json:"validators"`
	FeeConfig          FeeConfig          `json:"fee_config"`
	DonationsEnabled   bool               `json:"donations_enabled"`
	DelegationStrategy DelegationStrategy `json:"delegation_strategy"`
}

type StateResponse struct {
	TotalUstake   sdkmath.Int       `json:"total_ustake"`
	TotalUtoken   sdkmath.Int       `json:"total_utoken"`
	ExchangeRate  sdkmath.LegacyDec `json:"exchange_rate"`
	UnlockedCoins types.Coins       `json:"unlocked_coins"`
	Unbonding     sdkmath.Int       `json:"unbonding"`
	Available     sdkmath.Int       `json:"available"`
	TVLUtoken     sdkmath.Int       `json:"tvl_utoken"`
}

// UnbondRequestDetails is a request joined with its batch, nil while the batch is still pending.
type UnbondRequestDetails struct {
	ID      uint64              `json:"id"`
	User    string              `json:"user"`
	Shares  sdkmath.Int         `json:"shares"`
	State   string              `json:"state"`
	Pending *types.PendingBatch `json:"pending,omitempty"`
	Batch   *types.Batch        `json:"batch,omitempty"`
}

type ExchangeRatesResponse struct {
	ExchangeRates []ledger.Point `json:"exchange_rates"`
	APR           *ledger.APR    `json:"apr,omitempty"`
}
