package arbvault

import (
	"encoding/json"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/types"
)

// LSDConfig points the vault at one liquid staking hub and the share denom it issues.
type LSDConfig struct {
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
	HubAddr  string `json:"hub_addr"`
	Denom    string `json:"denom"`
}

// UtilizationStep allows arbitrage of up to MaxUtilization of the vault for a wanted Profit.
type UtilizationStep struct {
	Profit         sdkmath.LegacyDec `json:"profit"`
	MaxUtilization sdkmath.LegacyDec `json:"max_utilization"`
}

type FeeConfig struct {
	ProtocolFeeContract    string            `json:"protocol_fee_contract"`
	ProtocolPerformanceFee sdkmath.LegacyDec `json:"protocol_performance_fee"`
	ProtocolWithdrawFee    sdkmath.LegacyDec `json:"protocol_withdraw_fee"`
	ImmediateWithdrawFee   sdkmath.LegacyDec `json:"immediate_withdraw_fee"`
}

type InstantiateMsg struct {
	Owner            string            `json:"owner"`
	Utoken           string            `json:"utoken"`
	LPDenom          string            `json:"lp_denom"`
	UnbondTimeS      uint64            `json:"unbond_time_s"`
	LSDs             []LSDConfig       `json:"lsds"`
	UtilizationSteps []UtilizationStep `json:"utilization_steps"`
	FeeConfig        FeeConfig         `json:"fee_config"`
	// Whitelist restricts who may run arbitrage. Nil lets anyone.
	Whitelist []string `json:"whitelist,omitempty"`
}

type ExecuteMsg struct {
	Deposit                   *DepositMsg           `json:"deposit,omitempty"`
	Unbond                    *UnbondMsg            `json:"unbond,omitempty"`
	WithdrawUnbonded          *struct{}             `json:"withdraw_unbonded,omitempty"`
	WithdrawImmediate         *WithdrawImmediateMsg `json:"withdraw_immediate,omitempty"`
	ExecuteArbitrage          *ExecuteArbitrageMsg  `json:"execute_arbitrage,omitempty"`
	WithdrawFromLiquidStaking *NamesMsg             `json:"withdraw_from_liquid_staking,omitempty"`
	UnbondFromLiquidStaking   *NamesMsg             `json:"unbond_from_liquid_staking,omitempty"`
	UpdateConfig              *UpdateConfigMsg      `json:"update_config,omitempty"`
	TransferOwnership         *TransferOwnershipMsg `json:"transfer_ownership,omitempty"`
	AcceptOwnership           *struct{}             `json:"accept_ownership,omitempty"`
	DropOwnership             *struct{}             `json:"drop_ownership_proposal,omitempty"`
	Callback                  *CallbackMsg          `json:"callback,omitempty"`
}

type DepositMsg struct {
	Asset    types.Asset `json:"asset"`
	Receiver string      `json:"receiver,omitempty"`
}

type UnbondMsg struct {
	Immediate bool `json:"immediate,omitempty"`
}

type WithdrawImmediateMsg struct {
	ID uint64 `json:"id"`
}

// ExecuteSubMsg is the call the vault funds with FundsAmount of utoken. An empty
// ContractAddr calls the sender.
type ExecuteSubMsg struct {
	ContractAddr string          `json:"contract_addr,omitempty"`
	Msg          json.RawMessage `json:"msg"`
	FundsAmount  sdkmath.Int     `json:"funds_amount"`
}

type ExecuteArbitrageMsg struct {
	Msg          ExecuteSubMsg     `json:"msg"`
	ResultToken  types.AssetInfo   `json:"result_token"`
	WantedProfit sdkmath.LegacyDec `json:"wanted_profit"`
}

// NamesMsg selects LSDs by name; empty selects all.
type NamesMsg struct {
	Names []string `json:"names,omitempty"`
}

type UpdateConfigMsg struct {
	UtilizationSteps []UtilizationStep `json:"utilization_steps,omitempty"`
	UnbondTimeS      *uint64           `json:"unbond_time_s,omitempty"`
	InsertLSD        *LSDConfig        `json:"insert_lsd,omitempty"`
	DisableLSD       *string           `json:"disable_lsd,omitempty"`
	RemoveLSD        *string           `json:"remove_lsd,omitempty"`
	ForceRemoveLSD   *string           `json:"force_remove_lsd,omitempty"`
	FeeConfig        *FeeConfig        `json:"fee_config,omitempty"`
	SetWhitelist     []string          `json:"set_whitelist,omitempty"`
	RemoveWhitelist  bool              `json:"remove_whitelist,omitempty"`
}

type TransferOwnershipMsg struct {
	NewOwner string `json:"new_owner"`
}

type CallbackMsg struct {
	AssertResult *AssertResultMsg `json:"assert_result,omitempty"`
}

type AssertResultMsg struct {
	ResultToken  types.AssetInfo   `json:"result_token"`
	WantedProfit sdkmath.LegacyDec `json:"wanted_profit"`
}

type QueryMsg struct {
	Config         *struct{}            `json:"config,omitempty"`
	State          *StateQuery          `json:"state,omitempty"`
	UserInfo       *UserQuery           `json:"user_info,omitempty"`
	Takeable       *TakeableQuery       `json:"takeable,omitempty"`
	UnbondRequests *UnbondRequestsQuery `json:"unbond_requests,omitempty"`
	ExchangeRates  *ExchangeRatesQuery  `json:"exchange_rates,omitempty"`
}

type StateQuery struct {
	Details bool `json:"details,omitempty"`
}

type UserQuery struct {
	Address string `json:"address"`
}

type TakeableQuery struct {
	WantedProfit *sdkmath.LegacyDec `json:"wanted_profit,omitempty"`
}

type UnbondRequestsQuery struct {
	Address    string  `json:"address"`
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

// ExchangeRatesQuery pages the day keyed history; StartAfter is a day number.
type ExchangeRatesQuery struct {
	StartAfter *uint64 `json:"start_after_d,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ConfigResponse struct {
	Owner            string            `json:"owner"`
	NewOwner         string            `json:"new_owner,omitempty"`
	Utoken           string            `json:"utoken"`
	UnbondTimeS      uint64            `json:"unbond_time_s"`
	LSDs             []LSDConfig       `json:"lsds"`
	UtilizationSteps []UtilizationStep `json:"utilization_steps"`
	FeeConfig        FeeConfig         `json:"fee_config"`
	Whitelist        []string          `json:"whitelist,omitempty"`
	LPToken          LPToken           `json:"lp_token"`
}

// TakeableStep is how much utoken arbitrage at Profit may use right now.
type TakeableStep struct {
	Profit   sdkmath.LegacyDec `json:"profit"`
	Takeable sdkmath.Int       `json:"takeable"`
}

type StateResponse struct {
	ExchangeRate  sdkmath.LegacyDec `json:"exchange_rate"`
	TotalLPSupply sdkmath.Int       `json:"total_lp_supply"`
	Balances      Balances          `json:"balances"`
	TakeableSteps []TakeableStep    `json:"takeable_steps,omitempty"`
}

type UserInfoResponse struct {
	UtokenAmount sdkmath.Int `json:"utoken_amount"`
	LPAmount     sdkmath.Int `json:"lp_amount"`
}

type TakeableResponse struct {
	Takeable *sdkmath.Int   `json:"takeable,omitempty"`
	Steps    []TakeableStep `json:"steps"`
}

// UnbondItem is a queued withdrawal with the fees of withdrawing it now.
type UnbondItem struct {
	ID                  uint64      `json:"id"`
	StartTime           uint64      `json:"start_time"`
	ReleaseTime         uint64      `json:"release_time"`
	Released            bool        `json:"released"`
	AmountAsset         sdkmath.Int `json:"amount_asset"`
	WithdrawProtocolFee sdkmath.Int `json:"withdraw_protocol_fee"`
	WithdrawPoolFee     sdkmath.Int `json:"withdraw_pool_fee"`
}

type UnbondRequestsResponse struct {
	Requests []UnbondItem `json:"requests"`
}

type ExchangeRatesResponse struct {
	ExchangeRates []ledger.Point `json:"exchange_rates"`
	APR           *ledger.APR    `json:"apr,omitempty"`
}
