package chain

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/types"
)

// Msg is a follow-up action returned by a handler. The engine executes them in order
// once the handler has returned, with the handler's contract as sender.
type Msg interface {
	Type() string
}

// BankSend transfers native assets.
type BankSend struct {
	To     string        `json:"to"`
	Amount []types.Asset `json:"amount"`
}

// TokenTransfer moves an issued token on its contract ledger.
type TokenTransfer struct {
	Contract string      `json:"contract"`
	To       string      `json:"to"`
	Amount   sdkmath.Int `json:"amount"`
}

// Mint creates native tokens of a factory denom administered by the sender.
type Mint struct {
	Denom     string      `json:"denom"`
	Amount    sdkmath.Int `json:"amount"`
	Recipient string      `json:"recipient"`
}

// Burn destroys native tokens from the sender's balance.
type Burn struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}

// TokenMint creates issued tokens; only the issuing contract may send it.
type TokenMint struct {
	Contract  string      `json:"contract"`
	Recipient string      `json:"recipient"`
	Amount    sdkmath.Int `json:"amount"`
}

// TokenBurn destroys issued tokens held by the sender.
type TokenBurn struct {
	Contract string      `json:"contract"`
	Amount   sdkmath.Int `json:"amount"`
}

type Delegate struct {
	Validator string      `json:"validator"`
	Amount    sdkmath.Int `json:"amount"`
}

type Undelegate struct {
	Validator string      `json:"validator"`
	Amount    sdkmath.Int `json:"amount"`
}

type Redelegate struct {
	Src    string      `json:"src"`
	Dst    string      `json:"dst"`
	Amount sdkmath.Int `json:"amount"`
}

type WithdrawRewards struct {
	Validator string `json:"validator"`
}

// Execute calls another contract, or the sender itself for a callback continuation.
type Execute struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []types.Asset   `json:"funds,omitempty"`
}

func (BankSend) Type() string        { return "bank/send" }
func (TokenTransfer) Type() string   { return "token/transfer" }
func (Mint) Type() string            { return "bank/mint" }
func (Burn) Type() string            { return "bank/burn" }
func (TokenMint) Type() string       { return "token/mint" }
func (TokenBurn) Type() string       { return "token/burn" }
func (Delegate) Type() string        { return "staking/delegate" }
func (Undelegate) Type() string      { return "staking/undelegate" }
func (Redelegate) Type() string      { return "staking/redelegate" }
func (WithdrawRewards) Type() string { return "distribution/withdraw_rewards" }
func (Execute) Type() string         { return "wasm/execute" }

// ExecuteMsg marshals msg into an Execute against contract.
func ExecuteMsg(contract string, msg any, funds ...types.Asset) (Execute, error) {
	bz, err := json.Marshal(msg)
	if err != nil {
		return Execute{}, fmt.Errorf("failed to encode message for %s: %w", contract, err)
	}
	return Execute{Contract: contract, Msg: bz, Funds: funds}, nil
}
