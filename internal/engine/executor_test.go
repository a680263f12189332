package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

var errBoom = errors.New("boom")

// counter increments a stored value and can chain follow-up messages.
type counter struct{}

type counterMsg struct {
	Incr *struct {
		Fail   bool   `json:"fail"`
		Payout string `json:"payout,omitempty"`
	} `json:"incr,omitempty"`
	Fail *struct{} `json:"fail,omitempty"`
}

var count = store.NewItem[uint64]("count")

func (counter) Instantiate(deps chain.Deps, _ chain.Env, _ chain.MessageInfo, _ json.RawMessage) (*chain.Response, error) {
	return chain.NewResponse().AddAttribute("action", "instantiate"), count.Save(deps.Store, 0)
}

func (counter) Execute(deps chain.Deps, env chain.Env, info chain.MessageInfo, raw json.RawMessage) (*chain.Response, error) {
	var msg counterMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Fail != nil {
		if err := chain.AssertSelf(env, info); err != nil {
			return nil, err
		}
		return nil, errBoom
	}
	if msg.Incr == nil {
		return nil, types.ErrUnknownMessage
	}
	n, err := count.Update(deps.Store, func(n uint64) (uint64, error) { return n + 1, nil })
	if err != nil {
		return nil, err
	}
	res := chain.NewResponse().
		AddAttribute("action", "incr").
		AddEvent(chain.NewEvent("counted").Add("n", n).Add("exchange_rate", "1.5"))
	if msg.Incr.Payout != "" {
		res.AddMessages(chain.BankSend{To: msg.Incr.Payout, Amount: info.Funds})
	}
	if msg.Incr.Fail {
		m, err := chain.ExecuteMsg(env.Contract, map[string]any{"fail": struct{}{}})
		if err != nil {
			return nil, err
		}
		res.AddMessages(m)
	}
	return res, nil
}

func (counter) Query(deps chain.Deps, _ chain.Env, _ json.RawMessage) (any, error) {
	return count.Load(deps.Store)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Publish(ctx context.Context, record TxRecord) error {
	return m.Called(record.Contract, record.Action).Error(0)
}

func setup(t *testing.T, sinks ...EventSink) *Executor {
	t.Helper()
	exec := NewExecutor(store.NewMemory(), sinks...)
	_, err := exec.Instantiate(context.Background(), "owner", "counter", counter{}, struct{}{}, 1)
	require.NoError(t, err)
	require.NoError(t, exec.Sudo(context.Background(), 1, func(m Modules) error {
		return m.Bank.Fund("alice", types.NativeAsset("uluna", sdkmath.NewInt(100)))
	}))
	return exec
}

func TestExecuteCommitsAndPublishes(t *testing.T) {
	sink := &mockSink{}
	sink.On("Publish", "counter", "instantiate").Return(nil).Once()
	sink.On("Publish", "", "sudo").Return(nil).Once()
	sink.On("Publish", "counter", "incr").Return(errBoom).Once()

	exec := setup(t, sink)
	res, err := exec.ExecuteJSON(context.Background(), "alice", "counter",
		map[string]any{"incr": map[string]any{"payout": "bob"}}, 2,
		types.NativeAsset("uluna", sdkmath.NewInt(40)))
	require.NoError(t, err)
	assert.NotEmpty(t, res.TxID)
	assert.Equal(t, int64(3), res.Height)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "wasm", res.Events[0].Type)
	assert.Equal(t, "wasm-counted", res.Events[1].Type)

	n, err := QueryJSON[uint64](exec, "counter", struct{}{}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	require.NoError(t, exec.View(2, func(q chain.Querier, _ Modules) error {
		bob, err := q.Balance("bob", types.NativeInfo("uluna"))
		require.NoError(t, err)
		assert.Equal(t, int64(40), bob.Int64())
		return nil
	}))
	sink.AssertExpectations(t)
}

func TestFailedCallbackRollsBackEverything(t *testing.T) {
	exec := setup(t)
	_, err := exec.ExecuteJSON(context.Background(), "alice", "counter",
		map[string]any{"incr": map[string]any{"fail": true, "payout": "bob"}}, 2,
		types.NativeAsset("uluna", sdkmath.NewInt(40)))
	require.ErrorIs(t, err, errBoom)

	n, err := QueryJSON[uint64](exec, "counter", struct{}{}, 2)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, exec.View(2, func(q chain.Querier, _ Modules) error {
		alice, err := q.Balance("alice", types.NativeInfo("uluna"))
		require.NoError(t, err)
		assert.Equal(t, int64(100), alice.Int64())
		return nil
	}))
	assert.Equal(t, int64(2), exec.Height())
}

func TestCallbacksMustComeFromSelf(t *testing.T) {
	exec := setup(t)
	_, err := exec.ExecuteJSON(context.Background(), "alice", "counter", map[string]any{"fail": struct{}{}}, 2)
	require.ErrorIs(t, err, types.ErrCallbackOnlyByContract)
}

func TestUnknownContractAndDuplicates(t *testing.T) {
	exec := setup(t)
	_, err := exec.ExecuteJSON(context.Background(), "alice", "nobody", struct{}{}, 2)
	require.ErrorIs(t, err, ErrUnknownContract)

	_, err = exec.Instantiate(context.Background(), "owner", "counter", counter{}, struct{}{}, 2)
	require.ErrorIs(t, err, ErrContractExists)
	assert.Equal(t, []string{"counter"}, exec.Contracts())
}

func TestCancelledContext(t *testing.T) {
	exec := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.ExecuteJSON(ctx, "alice", "counter", map[string]any{"incr": map[string]any{}}, 2)
	require.ErrorIs(t, err, context.Canceled)
}
