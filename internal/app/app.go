package app

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/arbvault"
	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/farm"
	"github.com/elys-network/lstvault/internal/hub"
	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/operator"
	"github.com/elys-network/lstvault/internal/planner"
	"github.com/elys-network/lstvault/internal/simulations"
	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

// Contract addresses of a deployment.
const (
	HubAddr       = "hub"
	FarmAddr      = "farm"
	ArbVaultAddr  = "arb_vault"
	PairAddr      = "pair"
	GeneratorAddr = "generator"

	// LSDName is the name the arb vault knows the hub by.
	LSDName = "hub"
)

// GenesisInfo marks a store that already holds a deployment.
type GenesisInfo struct {
	Time    uint64            `json:"time"`
	Params  config.Parameters `json:"params"`
	Version int               `json:"version"`
}

var genesisMarker = store.NewItem[GenesisInfo]("app:genesis")

// App is one deployment of the hub, the farm and the arb vault on a shared executor.
type App struct {
	Executor *engine.Executor
	Params   config.Parameters

	root   *store.Root
	logger zerolog.Logger
}

func New(root *store.Root, params config.Parameters, sinks ...engine.EventSink) *App {
	return &App{
		Executor: engine.NewExecutor(root, sinks...),
		Params:   params,
		root:     root,
		logger:   logger.GetForComponent("app"),
	}
}

// Genesis deploys every contract at now. A store that was deployed before only has its
// contracts registered again and keeps its state. It reports whether contracts were instantiated.
func (a *App) Genesis(ctx context.Context, now uint64) (bool, error) {
	info, ok, err := genesisMarker.MayLoad(a.root.KV())
	if err != nil {
		return false, fmt.Errorf("failed to read genesis marker: %w", err)
	}
	if ok {
		a.logger.Info().Uint64("genesis_time", info.Time).Msg("Existing deployment found, registering contracts")
		return false, a.register()
	}

	a.logger.Info().Uint64("time", now).Msg("Deploying contracts")
	if err := a.Executor.Sudo(ctx, now, func(m engine.Modules) error {
		return m.Staking.InitGenesis(chain.StakingParams{
			BondDenom:     a.Params.Hub.Utoken,
			UnbondingTime: a.Params.Hub.UnbondPeriod,
			Validators:    a.Params.Hub.Validators,
		})
	}); err != nil {
		return false, fmt.Errorf("failed to initialise staking: %w", err)
	}

	for _, d := range a.deployments() {
		if _, err := a.Executor.Instantiate(ctx, d.owner, d.addr, d.contract, d.msg, now); err != nil {
			return false, fmt.Errorf("failed to instantiate %s: %w", d.addr, err)
		}
		a.logger.Info().Str("contract", d.addr).Msg("Contract instantiated")
	}

	if err := genesisMarker.Save(a.root.KV(), GenesisInfo{Time: now, Params: a.Params, Version: 1}); err != nil {
		return false, fmt.Errorf("failed to write genesis marker: %w", err)
	}
	return true, nil
}

func (a *App) register() error {
	var errs []error
	for _, d := range a.deployments() {
		errs = append(errs, a.Executor.Register(d.addr, d.contract))
	}
	return errors.Join(errs...)
}

type deployment struct {
	addr     string
	owner    string
	contract chain.Contract
	msg      any
}

// deployments is in instantiation order: the farm needs its pair and generator, the arb vault the hub.
func (a *App) deployments() []deployment {
	p := a.Params
	return []deployment{
		{addr: HubAddr, owner: p.Hub.Owner, contract: hub.New(), msg: hubInstantiateMsg(p)},
		{addr: PairAddr, owner: p.Farm.Owner, contract: simulations.NewPair(), msg: simulations.PairInstantiateMsg{
			Rate:     sdkmath.LegacyOneDec(),
			Accepted: nativeInfos(p.Farm.PairAssets),
		}},
		{addr: GeneratorAddr, owner: p.Farm.Owner, contract: simulations.NewGenerator(), msg: simulations.GeneratorInstantiateMsg{
			LPToken:     simulations.LPToken(PairAddr),
			RewardToken: types.NativeInfo(p.Farm.RewardDenom),
		}},
		{addr: FarmAddr, owner: p.Farm.Owner, contract: farm.New(), msg: farmInstantiateMsg(p)},
		{addr: ArbVaultAddr, owner: p.ArbVault.Owner, contract: arbvault.New(), msg: arbVaultInstantiateMsg(p)},
	}
}

func hubInstantiateMsg(p config.Parameters) hub.InstantiateMsg {
	msg := hub.InstantiateMsg{
		Owner:               p.Hub.Owner,
		Operator:            p.Keeper.Address,
		Utoken:              p.Hub.Utoken,
		StakeDenom:          p.Hub.StakeDenom,
		EpochPeriod:         p.Hub.EpochPeriod,
		UnbondPeriod:        p.Hub.UnbondPeriod,
		Validators:          p.Hub.Validators,
		ProtocolFeeContract: p.Hub.ProtocolFeeContract,
		ProtocolRewardFee:   config.Dec(p.Hub.ProtocolRewardFee),
		DonationsEnabled:    p.Hub.DonationsEnabled,
	}
	if p.Hub.Strategy == planner.StrategyDefined {
		weights := make(map[string]sdkmath.LegacyDec, len(p.Hub.Weights))
		for _, w := range p.Hub.Weights {
			weights[w.Validator] = config.Dec(w.Weight)
		}
		msg.DelegationStrategy = &hub.DelegationStrategy{Name: planner.StrategyDefined, Weights: weights}
	}
	return msg
}

func farmInstantiateMsg(p config.Parameters) farm.InstantiateMsg {
	return farm.InstantiateMsg{
		Owner:               p.Farm.Owner,
		Controller:          p.Keeper.Address,
		LPToken:             simulations.LPToken(PairAddr),
		AmpLPDenom:          p.Farm.AmpLPDenom,
		Generator:           GeneratorAddr,
		CompoundProxy:       PairAddr,
		Fee:                 config.Dec(p.Farm.Fee),
		FeeCollector:        p.Farm.FeeCollector,
		DepositProfitDelayS: p.Farm.DepositProfitDelayS,
		BaseRewardToken:     types.NativeInfo(p.Farm.RewardDenom),
	}
}

func arbVaultInstantiateMsg(p config.Parameters) arbvault.InstantiateMsg {
	steps := make([]arbvault.UtilizationStep, 0, len(p.ArbVault.UtilizationSteps))
	for _, s := range p.ArbVault.UtilizationSteps {
		steps = append(steps, arbvault.UtilizationStep{
			Profit:         config.Dec(s.Profit),
			MaxUtilization: config.Dec(s.MaxUtilization),
		})
	}
	return arbvault.InstantiateMsg{
		Owner:       p.ArbVault.Owner,
		Utoken:      p.Hub.Utoken,
		LPDenom:     p.ArbVault.LPDenom,
		UnbondTimeS: p.ArbVault.UnbondTimeS,
		LSDs: []arbvault.LSDConfig{{
			Name:    LSDName,
			HubAddr: HubAddr,
			Denom:   StakeDenom(p),
		}},
		UtilizationSteps: steps,
		FeeConfig: arbvault.FeeConfig{
			ProtocolFeeContract:    p.ArbVault.ProtocolFeeContract,
			ProtocolPerformanceFee: config.Dec(p.ArbVault.ProtocolPerformanceFee),
			ProtocolWithdrawFee:    config.Dec(p.ArbVault.ProtocolWithdrawFee),
			ImmediateWithdrawFee:   config.Dec(p.ArbVault.ImmediateWithdrawFee),
		},
		Whitelist: whitelist(p),
	}
}

// whitelist adds the keeper to a configured whitelist. An empty one stays open to everyone.
func whitelist(p config.Parameters) []string {
	if len(p.ArbVault.Whitelist) == 0 {
		return nil
	}
	for _, addr := range p.ArbVault.Whitelist {
		if addr == p.Keeper.Address {
			return p.ArbVault.Whitelist
		}
	}
	return append(append([]string(nil), p.ArbVault.Whitelist...), p.Keeper.Address)
}

// StakeDenom is the share denom the hub issues.
func StakeDenom(p config.Parameters) string {
	return chain.FactoryDenom(HubAddr, p.Hub.StakeDenom)
}

// AmpLPDenom is the share denom the farm issues.
func AmpLPDenom(p config.Parameters) string {
	return chain.FactoryDenom(FarmAddr, p.Farm.AmpLPDenom)
}

func nativeInfos(denoms []string) []types.AssetInfo {
	out := make([]types.AssetInfo, 0, len(denoms))
	for _, d := range denoms {
		out = append(out, types.NativeInfo(d))
	}
	return out
}

// KeeperConfig points a keeper at every contract of the deployment.
func (a *App) KeeperConfig(counter operator.CycleCounter) operator.Config {
	return operator.Config{
		Executor: a.Executor,
		Sender:   a.Params.Keeper.Address,
		Hub:      HubAddr,
		Farm:     FarmAddr,
		ArbVault: ArbVaultAddr,
		Counter:  counter,
	}
}
