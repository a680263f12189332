package farm

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
)

// Generator is the staking contract the farm deposits its LP into and claims rewards from.
type Generator string

type GeneratorExecuteMsg struct {
	Deposit      *struct{}        `json:"deposit,omitempty"`
	Withdraw     *GeneratorAmount `json:"withdraw,omitempty"`
	ClaimRewards *struct{}        `json:"claim_rewards,omitempty"`
	AddRewards   *AddRewardsMsg   `json:"add_rewards,omitempty"`
}

type GeneratorAmount struct {
	Amount sdkmath.Int `json:"amount"`
}

// AddRewardsMsg credits the attached reward funds to depositor.
type AddRewardsMsg struct {
	Depositor string `json:"depositor"`
}

type GeneratorQueryMsg struct {
	Deposit      *UserQuery `json:"deposit,omitempty"`
	PendingToken *UserQuery `json:"pending_token,omitempty"`
}

type UserQuery struct {
	User string `json:"user"`
}

type PendingTokenResponse struct {
	Pending sdkmath.Int `json:"pending"`
}

func (g Generator) DepositMsg(lp types.Asset) (chain.Msg, error) {
	return chain.ExecuteMsg(string(g), GeneratorExecuteMsg{Deposit: &struct{}{}}, lp)
}

func (g Generator) WithdrawMsg(amount sdkmath.Int) (chain.Msg, error) {
	return chain.ExecuteMsg(string(g), GeneratorExecuteMsg{Withdraw: &GeneratorAmount{Amount: amount}})
}

func (g Generator) ClaimRewardsMsg() (chain.Msg, error) {
	return chain.ExecuteMsg(string(g), GeneratorExecuteMsg{ClaimRewards: &struct{}{}})
}

// QueryDeposit returns the LP user has deposited.
func (g Generator) QueryDeposit(q chain.Querier, user string) (sdkmath.Int, error) {
	return chain.QueryJSON[sdkmath.Int](q, string(g), GeneratorQueryMsg{Deposit: &UserQuery{User: user}})
}

// QueryPending returns the base rewards user can claim.
func (g Generator) QueryPending(q chain.Querier, user string) (sdkmath.Int, error) {
	res, err := chain.QueryJSON[PendingTokenResponse](q, string(g), GeneratorQueryMsg{PendingToken: &UserQuery{User: user}})
	return res.Pending, err
}

// Compounder turns arbitrary assets into the farm's LP token.
type Compounder string

type CompounderExecuteMsg struct {
	Compound *CompoundMsg `json:"compound,omitempty"`
}

// CompoundMsg provides liquidity with the attached funds and sends the LP to Receiver.
type CompoundMsg struct {
	Receiver string `json:"receiver,omitempty"`
}

func (c Compounder) CompoundMsg(assets []types.Asset, receiver string) (chain.Msg, error) {
	return chain.ExecuteMsg(string(c), CompounderExecuteMsg{Compound: &CompoundMsg{Receiver: receiver}}, assets...)
}
