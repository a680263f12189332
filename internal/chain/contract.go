package chain

import (
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/types"
)

// BlockInfo is the block a transaction executes in. Time is in unix seconds.
type BlockInfo struct {
	Height int64  `json:"height"`
	Time   uint64 `json:"time"`
}

type Env struct {
	Block    BlockInfo `json:"block"`
	Contract string    `json:"contract"`
}

type MessageInfo struct {
	Sender string        `json:"sender"`
	Funds  []types.Asset `json:"funds"`
}

// Querier reads chain state within the running transaction.
type Querier interface {
	Balance(holder string, asset types.AssetInfo) (sdkmath.Int, error)
	Supply(asset types.AssetInfo) (sdkmath.Int, error)
	Delegations(delegator string) ([]types.Delegation, error)
	QueryContract(contract string, msg json.RawMessage) (json.RawMessage, error)
}

// Deps is what a contract handler may touch: its own store and read access to everything else.
type Deps struct {
	Store   storetypes.KVStore
	Querier Querier
	Logger  zerolog.Logger
}

// Contract is a deterministic state machine driven by JSON messages.
type Contract interface {
	Execute(deps Deps, env Env, info MessageInfo, msg json.RawMessage) (*Response, error)
	Query(deps Deps, env Env, msg json.RawMessage) (any, error)
}

// QueryJSON runs a smart query against contract and decodes the answer into T.
func QueryJSON[T any](q Querier, contract string, req any) (T, error) {
	var out T
	bz, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("failed to encode query for %s: %w", contract, err)
	}
	res, err := q.QueryContract(contract, bz)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(res, &out); err != nil {
		return out, fmt.Errorf("failed to decode query response from %s: %w", contract, err)
	}
	return out, nil
}

// AssertSelf rejects callbacks not sent by the contract itself.
func AssertSelf(env Env, info MessageInfo) error {
	if info.Sender != env.Contract {
		return errorsmod.Wrapf(types.ErrCallbackOnlyByContract, "sender %s", info.Sender)
	}
	return nil
}
