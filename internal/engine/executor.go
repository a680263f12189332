package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/observability/metrics"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

const (
	Codespace = "lstvault_engine"

	// MaxCallDepth bounds nested contract calls within one transaction.
	MaxCallDepth = 16
)

var (
	ErrUnknownContract = errorsmod.Register(Codespace, 2, "unknown contract")
	ErrContractExists  = errorsmod.Register(Codespace, 3, "contract already registered")
	ErrCallDepth       = errorsmod.Register(Codespace, 4, "maximum call depth exceeded")
	ErrUnsupportedMsg  = errorsmod.Register(Codespace, 5, "unsupported message")
	ErrNotInstantiable = errorsmod.Register(Codespace, 6, "contract cannot be instantiated")
)

// Instantiable contracts initialise their store in the transaction that registers them.
type Instantiable interface {
	Instantiate(deps chain.Deps, env chain.Env, info chain.MessageInfo, msg json.RawMessage) (*chain.Response, error)
}

// Tx is one inbound message.
type Tx struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []types.Asset   `json:"funds,omitempty"`
	Time     uint64          `json:"time"`
}

// Result describes a committed transaction.
type Result struct {
	TxID   string        `json:"tx_id"`
	Height int64         `json:"height"`
	Time   uint64        `json:"time"`
	Events []chain.Event `json:"events"`
}

// Modules gives privileged access to the native modules within one transaction.
type Modules struct {
	Bank    chain.Bank
	Staking chain.Staking
}

// Executor runs transactions one at a time against a branch of the root store.
type Executor struct {
	mu        sync.Mutex
	root      *store.Root
	contracts map[string]chain.Contract
	sinks     []EventSink
	logger    zerolog.Logger
	height    int64
}

func NewExecutor(root *store.Root, sinks ...EventSink) *Executor {
	return &Executor{
		root:      root,
		contracts: make(map[string]chain.Contract),
		sinks:     sinks,
		logger:    logger.GetForComponent("engine"),
	}
}

// Height is the number of committed transactions.
func (e *Executor) Height() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// Contracts lists registered addresses in order.
func (e *Executor) Contracts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.contracts))
	for addr := range e.contracts {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Register makes contract callable at addr without instantiating it.
func (e *Executor) Register(addr string, contract chain.Contract) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.contracts[addr]; ok {
		return errorsmod.Wrap(ErrContractExists, addr)
	}
	e.contracts[addr] = contract
	return nil
}

// Instantiate registers contract at addr and runs its Instantiate in a fresh transaction.
// The registration is undone when instantiation fails.
func (e *Executor) Instantiate(ctx context.Context, sender, addr string, contract chain.Contract, msg any, now uint64, funds ...types.Asset) (*Result, error) {
	init, ok := contract.(Instantiable)
	if !ok {
		return nil, errorsmod.Wrap(ErrNotInstantiable, addr)
	}
	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode instantiate message for %s: %w", addr, err)
	}
	if err := e.Register(addr, contract); err != nil {
		return nil, err
	}

	tx := Tx{Sender: sender, Contract: addr, Msg: bz, Funds: funds, Time: now}
	res, err := e.run(ctx, tx, "instantiate", func(r *txRun) error {
		if err := r.transferFunds(sender, addr, funds); err != nil {
			return err
		}
		info := chain.MessageInfo{Sender: sender, Funds: funds}
		resp, err := init.Instantiate(r.deps(addr), r.env(addr), info, bz)
		if err != nil {
			return err
		}
		return r.handleResponse(addr, resp, 0)
	})
	if err != nil {
		e.mu.Lock()
		delete(e.contracts, addr)
		e.mu.Unlock()
	}
	return res, err
}

// Execute runs tx and commits its writes only when every dispatched message succeeded.
func (e *Executor) Execute(ctx context.Context, tx Tx) (*Result, error) {
	return e.run(ctx, tx, actionOf(tx.Msg), func(r *txRun) error {
		return r.call(tx.Sender, tx.Contract, tx.Msg, tx.Funds, 0)
	})
}

// ExecuteJSON marshals msg and executes it.
func (e *Executor) ExecuteJSON(ctx context.Context, sender, contract string, msg any, now uint64, funds ...types.Asset) (*Result, error) {
	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message for %s: %w", contract, err)
	}
	return e.Execute(ctx, Tx{Sender: sender, Contract: contract, Msg: bz, Funds: funds, Time: now})
}

// Sudo runs fn with privileged module access as one atomic transaction.
// Genesis funding, reward accrual and slashing go through it.
func (e *Executor) Sudo(ctx context.Context, now uint64, fn func(m Modules) error) error {
	_, err := e.run(ctx, Tx{Sender: "sudo", Time: now}, "sudo", func(r *txRun) error {
		return fn(Modules{Bank: r.bank, Staking: r.staking})
	})
	return err
}

// Query runs a smart query against the committed state. Writes made by the query are discarded.
func (e *Executor) Query(contract string, msg json.RawMessage, now uint64) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	branch := e.root.Branch()
	r := e.newRun(branch.KV(), now, e.logger)
	return r.queryContract(contract, msg)
}

// QueryJSON is Query with typed request and response.
func QueryJSON[T any](e *Executor, contract string, req any, now uint64) (T, error) {
	var out T
	bz, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("failed to encode query for %s: %w", contract, err)
	}
	res, err := e.Query(contract, bz, now)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(res, &out); err != nil {
		return out, fmt.Errorf("failed to decode query response from %s: %w", contract, err)
	}
	return out, nil
}

// View reads the committed native modules.
func (e *Executor) View(now uint64, fn func(q chain.Querier, m Modules) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.newRun(e.root.Branch().KV(), now, e.logger)
	return fn(r, Modules{Bank: r.bank, Staking: r.staking})
}

func (e *Executor) run(ctx context.Context, tx Tx, action string, body func(r *txRun) error) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	txID := uuid.New().String()
	txLogger := e.logger.With().Str("tx_id", txID).Str("contract", tx.Contract).Str("msg", action).Logger()
	done := metrics.StartMessageTimer(tx.Contract, action)

	branch := e.root.Branch()
	r := e.newRun(branch.KV(), tx.Time, txLogger)

	err := func() error {
		if _, err := r.staking.ProcessMatured(tx.Time); err != nil && !errorsmod.IsOf(err, store.ErrNotFound) {
			return err
		}
		return body(r)
	}()
	if err != nil {
		done(metrics.Error)
		metrics.RecordFailedTx(tx.Contract)
		txLogger.Debug().Err(err).Msg("Transaction rolled back")
		return nil, err
	}

	branch.Write()
	e.height++
	done(metrics.Success)

	res := &Result{TxID: txID, Height: e.height, Time: tx.Time, Events: r.events}
	txLogger.Info().Int64("height", e.height).Int("events", len(r.events)).Msg("Transaction committed")

	recordExchangeRates(r.events)
	e.publish(ctx, tx, action, res)
	return res, nil
}

func (e *Executor) newRun(kv storetypes.KVStore, now uint64, l zerolog.Logger) *txRun {
	bank := chain.NewBank(kv)
	return &txRun{
		exec:    e,
		kv:      kv,
		now:     now,
		height:  e.height + 1,
		bank:    bank,
		staking: chain.NewStaking(kv, bank),
		logger:  l,
	}
}

func (e *Executor) publish(ctx context.Context, tx Tx, action string, res *Result) {
	if len(e.sinks) == 0 {
		return
	}
	record := TxRecord{
		TxID:     res.TxID,
		Height:   res.Height,
		Time:     time.Unix(int64(res.Time), 0).UTC(),
		Sender:   tx.Sender,
		Contract: tx.Contract,
		Action:   action,
		Events:   res.Events,
	}
	for _, sink := range e.sinks {
		if err := sink.Publish(ctx, record); err != nil {
			e.logger.Warn().Err(err).Str("tx_id", res.TxID).Msg("Failed to publish transaction events")
		}
	}
}

// actionOf returns the variant name of an externally tagged message.
func actionOf(msg json.RawMessage) string {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(msg, &tagged); err != nil || len(tagged) != 1 {
		return "unknown"
	}
	for k := range tagged {
		return k
	}
	return "unknown"
}
