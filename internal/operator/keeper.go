package operator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/arbvault"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/types"
)

// Executor runs keeper messages. *engine.Executor implements it.
type Executor interface {
	ExecuteJSON(ctx context.Context, sender, contract string, msg any, now uint64, funds ...types.Asset) (*engine.Result, error)
}

// CycleCounter numbers cycles across restarts. state.CycleCounter implements it.
type CycleCounter interface {
	Next(ctx context.Context) (int, error)
}

// Config holds the dependencies of a Keeper. Empty contract addresses skip that contract's tasks.
type Config struct {
	Executor Executor
	Sender   string
	Hub      string
	Farm     string
	ArbVault string
	// LSDs restricts the arb vault liquidity tasks; nil acts on every enabled LSD.
	LSDs    []string
	Counter CycleCounter
	Clock   func() uint64
}

// Task is one message the keeper sends every cycle.
type Task struct {
	Name     string
	Contract string
	Msg      any
}

type Status string

const (
	StatusExecuted Status = "executed"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

type Outcome struct {
	Task   string
	Status Status
	TxID   string
	Err    error
}

// Report summarises one cycle.
type Report struct {
	Cycle    int
	Time     uint64
	Outcomes []Outcome
}

func (r Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Keeper drives the periodic maintenance messages: harvesting and batching at the hub,
// compounding at the farm and moving the arb vault's liquid staking positions.
type Keeper struct {
	logger     zerolog.Logger
	cfg        Config
	tasks      []Task
	cycleCount int
}

func NewKeeper(cfg Config) (*Keeper, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("keeper configuration validation failed: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint64 { return uint64(time.Now().Unix()) }
	}

	k := &Keeper{
		logger: logger.GetForComponent("keeper"),
		cfg:    cfg,
		tasks:  buildTasks(cfg),
	}
	k.logger.Info().
		Str("sender", cfg.Sender).
		Int("tasks", len(k.tasks)).
		Msg("Keeper created")
	return k, nil
}

func validateConfig(cfg Config) error {
	if cfg.Executor == nil {
		return errors.New("executor cannot be nil")
	}
	if cfg.Sender == "" {
		return errors.New("sender cannot be empty")
	}
	if cfg.Hub == "" && cfg.Farm == "" && cfg.ArbVault == "" {
		return errors.New("at least one contract is required")
	}
	return nil
}

// buildTasks orders the hub first so the arb vault sees the batches it just reconciled.
func buildTasks(cfg Config) []Task {
	var tasks []Task
	if cfg.Hub != "" {
		tasks = append(tasks,
			Task{Name: "hub/harvest", Contract: cfg.Hub, Msg: hub.ExecuteMsg{Harvest: &struct{}{}}},
			Task{Name: "hub/submit_batch", Contract: cfg.Hub, Msg: hub.ExecuteMsg{SubmitBatch: &struct{}{}}},
			Task{Name: "hub/reconcile", Contract: cfg.Hub, Msg: hub.ExecuteMsg{Reconcile: &struct{}{}}},
		)
	}
	if cfg.Farm != "" {
		tasks = append(tasks, Task{Name: "farm/compound", Contract: cfg.Farm, Msg: farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}}})
	}
	if cfg.ArbVault != "" {
		names := &arbvault.NamesMsg{Names: cfg.LSDs}
		tasks = append(tasks,
			Task{Name: "arb/withdraw_liquidity", Contract: cfg.ArbVault, Msg: arbvault.ExecuteMsg{WithdrawFromLiquidStaking: names}},
			Task{Name: "arb/unbond_liquidity", Contract: cfg.ArbVault, Msg: arbvault.ExecuteMsg{UnbondFromLiquidStaking: names}},
		)
	}
	return tasks
}

func (k *Keeper) Tasks() []Task { return k.tasks }

// RunLoop runs a cycle immediately and then every interval until ctx is done.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	k.logger.Info().
		Dur("interval", interval).
		Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Keeper loop stopped due to context cancellation")
			return
		case <-ticker.C:
			k.RunCycle(ctx)
		}
	}
}

// RunCycle sends every task once. Timing errors mean there was nothing to do and are skipped.
func (k *Keeper) RunCycle(ctx context.Context) Report {
	report := Report{Cycle: k.nextCycle(ctx), Time: k.cfg.Clock()}
	cycleLogger := k.logger.With().
		Int("cycle", report.Cycle).
		Str("cycle_id", uuid.New().String()).
		Uint64("time", report.Time).
		Logger()
	cycleLogger.Info().Msg("Initiating keeper cycle")

	for _, task := range k.tasks {
		if ctx.Err() != nil {
			cycleLogger.Warn().Msg("Keeper cycle interrupted")
			break
		}
		report.Outcomes = append(report.Outcomes, k.runTask(ctx, cycleLogger, task, report.Time))
	}

	cycleLogger.Info().
		Int("executed", report.Count(StatusExecuted)).
		Int("skipped", report.Count(StatusSkipped)).
		Int("failed", report.Count(StatusFailed)).
		Msg("Keeper cycle completed")
	return report
}

func (k *Keeper) runTask(ctx context.Context, l zerolog.Logger, task Task, now uint64) Outcome {
	res, err := k.cfg.Executor.ExecuteJSON(ctx, k.cfg.Sender, task.Contract, task.Msg, now)
	switch {
	case err == nil:
		l.Info().Str("task", task.Name).Str("tx_id", res.TxID).Msg("Keeper task executed")
		return Outcome{Task: task.Name, Status: StatusExecuted, TxID: res.TxID}
	case types.KindOf(err) == types.KindTiming:
		l.Debug().Str("task", task.Name).Err(err).Msg("Keeper task skipped")
		return Outcome{Task: task.Name, Status: StatusSkipped, Err: err}
	default:
		l.Error().Str("task", task.Name).Err(err).Msg("Keeper task failed")
		return Outcome{Task: task.Name, Status: StatusFailed, Err: err}
	}
}

// nextCycle prefers the persistent counter and falls back to the in-process one.
func (k *Keeper) nextCycle(ctx context.Context) int {
	k.cycleCount++
	if k.cfg.Counter == nil {
		return k.cycleCount
	}
	n, err := k.cfg.Counter.Next(ctx)
	if err != nil {
		k.logger.Error().Err(err).Msg("Failed to increment cycle number, using fallback")
		return k.cycleCount
	}
	return n
}
