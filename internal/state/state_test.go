package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/engine"
)

func record() engine.TxRecord {
	return engine.TxRecord{
		TxID:     "5f0c7a4e-6a55-4f57-9e38-2a4c3b4b8f10",
		Height:   7,
		Time:     time.Unix(1000, 0).UTC(),
		Sender:   "keeper",
		Contract: "hub",
		Action:   "harvest",
		Events: []chain.Event{
			chain.NewEvent("wasm").Add("_contract_address", "hub").Add("action", "hub/harvest").Add("exchange_rate", "1.05"),
			chain.NewEvent("transfer").Add("amount", "10uluna"),
			chain.NewEvent("wasm").Add("_contract_address", "arb_vault").Add("exchange_rate", "1.01"),
		},
	}
}

func TestRatePoints(t *testing.T) {
	assert.Equal(t, []RatePoint{
		{Contract: "arb_vault", Rate: "1.01"},
		{Contract: "hub", Rate: "1.05"},
	}, ratePoints(record()))

	assert.Empty(t, ratePoints(engine.TxRecord{}))
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, []string{"wasm", "transfer"}, eventTypes(record()))
}

func TestClampListLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, ClampListLimit(0))
	assert.Equal(t, defaultListLimit, ClampListLimit(-3))
	assert.Equal(t, 5, ClampListLimit(5))
	assert.Equal(t, maxListLimit, ClampListLimit(1000))
}

func TestRequiresDatabase(t *testing.T) {
	DB = nil
	ctx := context.Background()

	require.ErrorIs(t, Sink{}.Publish(ctx, record()), ErrDBNotInitialized)
	require.ErrorIs(t, EnsureSchema(), ErrDBNotInitialized)
	require.ErrorIs(t, DropSchema(), ErrDBNotInitialized)
	require.ErrorIs(t, TestDBConnection(), ErrDBNotInitialized)

	_, err := GetRecentTransactions(ctx, "", 10)
	require.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = GetExchangeRateHistory(ctx, "hub", 10)
	require.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = GetActionCounts(ctx)
	require.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = SaveDeployment(ctx, config.DefaultParameters())
	require.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = LoadActiveDeployment(ctx)
	require.ErrorIs(t, err, ErrDBNotInitialized)
	_, err = CycleCounter{}.Next(ctx)
	require.ErrorIs(t, err, ErrDBNotInitialized)
}
