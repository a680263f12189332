package operator

import (
	"context"
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/types"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) ExecuteJSON(ctx context.Context, sender, contract string, msg any, now uint64, funds ...types.Asset) (*engine.Result, error) {
	args := m.Called(ctx, sender, contract, msg, now)
	res, _ := args.Get(0).(*engine.Result)
	return res, args.Error(1)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Next(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func fixedClock() uint64 { return 1200 }

func TestNewKeeperValidates(t *testing.T) {
	_, err := NewKeeper(Config{Sender: "keeper", Hub: "hub"})
	require.Error(t, err)
	_, err = NewKeeper(Config{Executor: new(mockExecutor), Hub: "hub"})
	require.Error(t, err)
	_, err = NewKeeper(Config{Executor: new(mockExecutor), Sender: "keeper"})
	require.Error(t, err)
}

func TestTasksFollowConfiguredContracts(t *testing.T) {
	k, err := NewKeeper(Config{Executor: new(mockExecutor), Sender: "keeper", Hub: "hub", Farm: "farm", ArbVault: "arb"})
	require.NoError(t, err)

	var names []string
	for _, task := range k.Tasks() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{
		"hub/harvest", "hub/submit_batch", "hub/reconcile",
		"farm/compound",
		"arb/withdraw_liquidity", "arb/unbond_liquidity",
	}, names)

	k, err = NewKeeper(Config{Executor: new(mockExecutor), Sender: "keeper", Farm: "farm"})
	require.NoError(t, err)
	require.Len(t, k.Tasks(), 1)
	assert.Equal(t, "farm", k.Tasks()[0].Contract)
}

func TestRunCycleClassifiesOutcomes(t *testing.T) {
	exec := new(mockExecutor)
	exec.On("ExecuteJSON", mock.Anything, "keeper", "hub", hub.ExecuteMsg{Harvest: &struct{}{}}, uint64(1200)).
		Return(&engine.Result{TxID: "tx-harvest"}, nil).Once()
	exec.On("ExecuteJSON", mock.Anything, "keeper", "hub", hub.ExecuteMsg{SubmitBatch: &struct{}{}}, uint64(1200)).
		Return(nil, errorsmod.Wrap(types.ErrSubmitBatchTooEarly, "hub: submit_batch")).Once()
	exec.On("ExecuteJSON", mock.Anything, "keeper", "hub", hub.ExecuteMsg{Reconcile: &struct{}{}}, uint64(1200)).
		Return(nil, errorsmod.Wrap(types.ErrReconcileShortfall, "hub: reconcile")).Once()

	k, err := NewKeeper(Config{Executor: exec, Sender: "keeper", Hub: "hub", Clock: fixedClock})
	require.NoError(t, err)

	report := k.RunCycle(context.Background())
	exec.AssertExpectations(t)

	assert.Equal(t, 1, report.Cycle)
	assert.Equal(t, uint64(1200), report.Time)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, Outcome{Task: "hub/harvest", Status: StatusExecuted, TxID: "tx-harvest"}, report.Outcomes[0])
	assert.Equal(t, StatusSkipped, report.Outcomes[1].Status)
	assert.Equal(t, StatusFailed, report.Outcomes[2].Status)
	require.ErrorIs(t, report.Outcomes[2].Err, types.ErrReconcileShortfall)
	assert.Equal(t, 1, report.Count(StatusExecuted))
}

func TestRunCycleUsesPersistentCounter(t *testing.T) {
	exec := new(mockExecutor)
	exec.On("ExecuteJSON", mock.Anything, "keeper", "farm", mock.Anything, uint64(1200)).
		Return(&engine.Result{TxID: "tx"}, nil)

	counter := new(mockCounter)
	counter.On("Next", mock.Anything).Return(41, nil).Once()
	counter.On("Next", mock.Anything).Return(0, errors.New("database down")).Once()

	k, err := NewKeeper(Config{Executor: exec, Sender: "keeper", Farm: "farm", Counter: counter, Clock: fixedClock})
	require.NoError(t, err)

	assert.Equal(t, 41, k.RunCycle(context.Background()).Cycle)
	assert.Equal(t, 2, k.RunCycle(context.Background()).Cycle)
	counter.AssertExpectations(t)
}

func TestRunCycleStopsOnCancelledContext(t *testing.T) {
	exec := new(mockExecutor)
	k, err := NewKeeper(Config{Executor: exec, Sender: "keeper", Hub: "hub", Clock: fixedClock})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := k.RunCycle(ctx)
	assert.Empty(t, report.Outcomes)
	exec.AssertNotCalled(t, "ExecuteJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
