// Package simulations provides in-process counterparty contracts for the vaults: a liquidity
// pair acting as compound proxy, a reward generator and an arbitrage market. They back the
// end-to-end tests and the simulate command.
package simulations

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/types"
)

var (
	pairLogger        = logger.GetForComponent("pair_simulator")
	generatorLogger   = logger.GetForComponent("generator_simulator")
	arbitrageurLogger = logger.GetForComponent("arbitrage_simulator")
)

func decode[T any](raw json.RawMessage) (T, error) {
	var msg T
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, errorsmod.Wrap(types.ErrUnknownMessage, err.Error())
	}
	return msg, nil
}
