package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/arbvault"
	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/simulations"
	"github.com/elys-network/lstvault/internal/types"
)

// Accounts used by the simulation.
const (
	Alice       = "alice"
	Bob         = "bob"
	Carol       = "carol"
	Distributor = "distributor"
)

var (
	simBond        = sdkmath.NewInt(1_000_000)
	simUnbond      = sdkmath.NewInt(500_000)
	simLiquidity   = sdkmath.NewInt(200_000)
	simFarmReward  = sdkmath.NewInt(5_000)
	simArbDeposit  = sdkmath.NewInt(300_000)
	simSlash       = sdkmath.LegacyNewDecWithPrec(5, 2)
	simRewardShare = int64(100) // 1% of each delegation
)

// Step is one line of simulation output.
type Step struct {
	Name   string        `json:"step"`
	Time   uint64        `json:"time"`
	TxID   string        `json:"tx_id,omitempty"`
	Height int64         `json:"height"`
	Events []chain.Event `json:"events,omitempty"`
}

// SimulationReport collects the steps and the hub state at the end.
type SimulationReport struct {
	Steps []Step            `json:"steps"`
	Hub   hub.StateResponse `json:"hub"`
}

type simStep struct {
	name string
	at   uint64
	run  func(ctx context.Context, now uint64) (*engine.Result, error)
}

// Simulate drives a full unbonding cycle against a deployment made by Genesis at start:
// bonding, reward harvesting, a batch submitted after one epoch, a slash on every validator
// while the batch unbonds, reconciliation and the final withdrawal. The farm and the arb vault
// take a deposit each. Every step is written to w as one JSON line.
func (a *App) Simulate(ctx context.Context, start uint64, w io.Writer) (*SimulationReport, error) {
	p := a.Params
	utoken := types.NativeInfo(p.Hub.Utoken)
	stake := types.NativeInfo(StakeDenom(p))
	lp := simulations.LPToken(PairAddr)
	reward := types.NativeInfo(p.Farm.RewardDenom)
	submitAt := start + p.Hub.EpochPeriod + 1
	maturedAt := submitAt + p.Hub.UnbondPeriod + 1

	sudo := func(fn func(m engine.Modules) error) func(context.Context, uint64) (*engine.Result, error) {
		return func(ctx context.Context, now uint64) (*engine.Result, error) {
			return nil, a.Executor.Sudo(ctx, now, fn)
		}
	}
	execute := func(sender, contract string, msg any, funds ...types.Asset) func(context.Context, uint64) (*engine.Result, error) {
		return func(ctx context.Context, now uint64) (*engine.Result, error) {
			return a.Executor.ExecuteJSON(ctx, sender, contract, msg, now, funds...)
		}
	}
	keeper := p.Keeper.Address

	steps := []simStep{
		{name: "fund", at: start + 1, run: sudo(func(m engine.Modules) error {
			for addr, amount := range map[string]sdkmath.Int{Alice: simBond, Bob: simBond, Carol: simLiquidity.Add(simArbDeposit)} {
				if err := m.Bank.Fund(addr, utoken.WithAmount(amount)); err != nil {
					return err
				}
			}
			return m.Bank.Fund(Distributor, reward.WithAmount(simFarmReward))
		})},
		{name: "alice_bond", at: start + 2, run: execute(Alice, HubAddr, hub.ExecuteMsg{Bond: &hub.BondMsg{}}, utoken.WithAmount(simBond))},
		{name: "bob_bond", at: start + 2, run: execute(Bob, HubAddr, hub.ExecuteMsg{Bond: &hub.BondMsg{}}, utoken.WithAmount(simBond))},
		{name: "accrue_rewards", at: start + 3, run: sudo(func(m engine.Modules) error {
			delegations, err := m.Staking.Delegations(HubAddr)
			if err != nil {
				return err
			}
			for _, d := range delegations {
				amount := d.Amount.QuoRaw(simRewardShare)
				if !amount.IsPositive() {
					continue
				}
				if err := m.Staking.AccrueRewards(HubAddr, d.Validator, amount); err != nil {
					return err
				}
			}
			return nil
		})},
		{name: "harvest", at: start + 4, run: execute(keeper, HubAddr, hub.ExecuteMsg{Harvest: &struct{}{}})},
		{name: "alice_queue_unbond", at: start + 5, run: execute(Alice, HubAddr, hub.ExecuteMsg{QueueUnbond: &hub.QueueUnbondMsg{}}, stake.WithAmount(simUnbond))},
		{name: "carol_provide_liquidity", at: start + 6, run: execute(Carol, PairAddr,
			farm.CompounderExecuteMsg{Compound: &farm.CompoundMsg{}}, utoken.WithAmount(simLiquidity))},
		{name: "carol_farm_bond", at: start + 7, run: execute(Carol, FarmAddr, farm.ExecuteMsg{Bond: &farm.BondMsg{}}, lp.WithAmount(simLiquidity))},
		{name: "farm_rewards", at: start + 8, run: execute(Distributor, GeneratorAddr,
			farm.GeneratorExecuteMsg{AddRewards: &farm.AddRewardsMsg{Depositor: FarmAddr}}, reward.WithAmount(simFarmReward))},
		{name: "farm_compound", at: start + 9, run: execute(keeper, FarmAddr, farm.ExecuteMsg{Compound: &farm.CompoundRewardsMsg{}})},
		{name: "carol_arb_deposit", at: start + 10, run: execute(Carol, ArbVaultAddr,
			arbvault.ExecuteMsg{Deposit: &arbvault.DepositMsg{Asset: utoken.WithAmount(simArbDeposit)}}, utoken.WithAmount(simArbDeposit))},
		{name: "submit_batch", at: submitAt, run: execute(keeper, HubAddr, hub.ExecuteMsg{SubmitBatch: &struct{}{}})},
		{name: "slash", at: submitAt + 1, run: sudo(func(m engine.Modules) error {
			for _, v := range p.Hub.Validators {
				if _, err := m.Staking.Slash(v, simSlash); err != nil {
					return err
				}
			}
			return nil
		})},
		{name: "reconcile", at: maturedAt, run: execute(keeper, HubAddr, hub.ExecuteMsg{Reconcile: &struct{}{}})},
		{name: "alice_withdraw", at: maturedAt + 1, run: execute(Alice, HubAddr, hub.ExecuteMsg{WithdrawUnbonded: &hub.WithdrawUnbondedMsg{}})},
	}

	enc := json.NewEncoder(w)
	report := &SimulationReport{}
	for _, s := range steps {
		res, err := s.run(ctx, s.at)
		if err != nil {
			return report, fmt.Errorf("simulation step %s failed: %w", s.name, err)
		}
		step := Step{Name: s.name, Time: s.at, Height: a.Executor.Height()}
		if res != nil {
			step.TxID, step.Events = res.TxID, res.Events
		}
		report.Steps = append(report.Steps, step)
		if err := enc.Encode(step); err != nil {
			return report, fmt.Errorf("failed to write simulation step: %w", err)
		}
		a.logger.Debug().Str("step", s.name).Uint64("time", s.at).Msg("Simulation step done")
	}

	st, err := engine.QueryJSON[hub.StateResponse](a.Executor, HubAddr, hub.QueryMsg{State: &struct{}{}}, maturedAt+1)
	if err != nil {
		return report, err
	}
	report.Hub = st
	a.logger.Info().
		Int("steps", len(report.Steps)).
		Str("exchange_rate", st.ExchangeRate.String()).
		Str("total_utoken", st.TotalUtoken.String()).
		Msg("Simulation completed")
	return report, nil
}
