package farm

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/ledger"
	"github.com/elys-network/lstvault/internal/types"
)

type InstantiateMsg struct {
	Owner               string            `json:"owner"`
	Controller          string            `json:"controller"`
	LPToken             types.AssetInfo   `json:"lp_token"`
	AmpLPDenom          string            `json:"amp_lp_denom"`
	Generator           string            `json:"staking_contract"`
	CompoundProxy       string            `json:"compound_proxy"`
	Fee                 sdkmath.LegacyDec `json:"fee"`
	FeeCollector        string            `json:"fee_collector"`
	DepositProfitDelayS uint64            `json:"deposit_profit_delay_s"`
	BaseRewardToken     types.AssetInfo   `json:"base_reward_token"`
}

type ExecuteMsg struct {
	Bond              *BondMsg              `json:"bond,omitempty"`
	BondAssets        *BondAssetsMsg        `json:"bond_assets,omitempty"`
	Unbond            *UnbondMsg            `json:"unbond,omitempty"`
	Compound          *CompoundRewardsMsg   `json:"compound,omitempty"`
	UpdateConfig      *UpdateConfigMsg      `json:"update_config,omitempty"`
	TransferOwnership *TransferOwnershipMsg `json:"transfer_ownership,omitempty"`
	AcceptOwnership   *struct{}             `json:"accept_ownership,omitempty"`
	DropOwnership     *struct{}             `json:"drop_ownership_proposal,omitempty"`
	Callback          *CallbackMsg          `json:"callback,omitempty"`
}

// BondMsg bonds the attached LP.
type BondMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

// BondAssetsMsg converts the attached assets into LP through the compound proxy and bonds the result.
type BondAssetsMsg struct {
	Assets         []types.Asset `json:"assets"`
	MinimumReceive *sdkmath.Int  `json:"minimum_receive,omitempty"`
	Receiver       string        `json:"receiver,omitempty"`
}

type UnbondMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

type CompoundRewardsMsg struct {
	MinimumReceive *sdkmath.Int `json:"minimum_receive,omitempty"`
}

type UpdateConfigMsg struct {
	CompoundProxy       *string            `json:"compound_proxy,omitempty"`
	Controller          *string            `json:"controller,omitempty"`
	Fee                 *sdkmath.LegacyDec `json:"fee,omitempty"`
	FeeCollector        *string            `json:"fee_collector,omitempty"`
	DepositProfitDelayS *uint64            `json:"deposit_profit_delay_s,omitempty"`
}

type TransferOwnershipMsg struct {
	NewOwner string `json:"new_owner"`
}

type CallbackMsg struct {
	BondTo *BondToMsg `json:"bond_to,omitempty"`
	Stake  *StakeMsg  `json:"stake,omitempty"`
}

// BondToMsg bonds whatever LP arrived since PrevBalance on behalf of To.
type BondToMsg struct {
	To             string       `json:"to"`
	PrevBalance    sdkmath.Int  `json:"prev_balance"`
	MinimumReceive *sdkmath.Int `json:"minimum_receive,omitempty"`
}

// StakeMsg deposits the compounded LP that arrived since PrevBalance.
type StakeMsg struct {
	PrevBalance    sdkmath.Int  `json:"prev_balance"`
	MinimumReceive *sdkmath.Int `json:"minimum_receive,omitempty"`
}

type QueryMsg struct {
	Config        *struct{}           `json:"config,omitempty"`
	State         *StateQuery         `json:"state,omitempty"`
	UserInfo      *UserQuery          `json:"user_info,omitempty"`
	ExchangeRates *ExchangeRatesQuery `json:"exchange_rates,omitempty"`
}

type StateQuery struct {
	Addr string `json:"addr,omitempty"`
}

type ExchangeRatesQuery struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ConfigResponse struct {
	Owner               string            `json:"owner"`
	NewOwner            string            `json:"new_owner,omitempty"`
	AmpLPToken          types.AssetInfo   `json:"amp_lp_token"`
	LPToken             types.AssetInfo   `json:"lp_token"`
	Generator           string            `json:"staking_contract"`
	CompoundProxy       string            `json:"compound_proxy"`
	Controller          string            `json:"controller"`
	Fee                 sdkmath.LegacyDec `json:"fee"`
	FeeCollector        string            `json:"fee_collector"`
	BaseRewardToken     types.AssetInfo   `json:"base_reward_token"`
	DepositProfitDelayS uint64            `json:"deposit_profit_delay_s"`
}

type StateResponse struct {
	TotalLP      sdkmath.Int       `json:"total_lp"`
	TotalAmpLP   sdkmath.Int       `json:"total_amp_lp"`
	ExchangeRate sdkmath.LegacyDec `json:"exchange_rate"`
	UserInfo     *UserInfo         `json:"user_info,omitempty"`
}

type UserInfo struct {
	UserAmpLPAmount sdkmath.Int `json:"user_amp_lp_amount"`
	UserLPAmount    sdkmath.Int `json:"user_lp_amount"`
}

type UserInfoResponse struct {
	TotalLP         sdkmath.Int `json:"total_lp"`
	TotalAmpLP      sdkmath.Int `json:"total_amp_lp"`
	UserLPAmount    sdkmath.Int `json:"user_lp_amount"`
	UserAmpLPAmount sdkmath.Int `json:"user_amp_lp_amount"`
}

type ExchangeRatesResponse struct {
	ExchangeRates []ledger.Point `json:"exchange_rates"`
	APR           *ledger.APR    `json:"apr,omitempty"`
}
