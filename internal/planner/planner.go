package planner

import (
	"errors"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNoValidators      = errors.New("validator set is empty")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientStake = errors.New("not enough stake to unbond the requested amount")
	ErrInvalidWeights    = errors.New("delegation weights are invalid")
	ErrUnknownStrategy   = errors.New("unknown delegation strategy")
)

const (
	StrategyUniform = "uniform"
	StrategyDefined = "defined"
)

// Strategy decides which validators a bond or an unbond is drawn from.
// It never decides the aggregate amount; callers verify that with AssertTotal.
type Strategy interface {
	Name() string
	// Targets is the wanted delegation per validator for a total stake.
	Targets(total sdkmath.Int, validators []string) (map[string]sdkmath.Int, error)
}

// Uniform spreads stake evenly over the validator set.
type Uniform struct{}

func (Uniform) Name() string { return StrategyUniform }

func (Uniform) Targets(total sdkmath.Int, validators []string) (map[string]sdkmath.Int, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	per := total.QuoRaw(int64(len(validators)))
	out := make(map[string]sdkmath.Int, len(validators))
	for _, v := range validators {
		out[v] = per
	}
	return out, nil
}

// Defined weighs the validator set by fixed shares summing to at most one.
type Defined struct {
	Weights map[string]sdkmath.LegacyDec `json:"weights"`
}

func (Defined) Name() string { return StrategyDefined }

func (d Defined) Validate(validators []string) error {
	known := make(map[string]bool, len(validators))
	for _, v := range validators {
		known[v] = true
	}
	sum := sdkmath.LegacyZeroDec()
	for v, w := range d.Weights {
		if !known[v] {
			return fmt.Errorf("%w: %s is not a validator", ErrInvalidWeights, v)
		}
		if w.IsNil() || w.IsNegative() {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidWeights, v)
		}
		sum = sum.Add(w)
	}
	if len(d.Weights) == 0 || sum.GT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("%w: weights sum to %s", ErrInvalidWeights, sum)
	}
	return nil
}

func (d Defined) Targets(total sdkmath.Int, validators []string) (map[string]sdkmath.Int, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	if err := d.Validate(validators); err != nil {
		return nil, err
	}
	out := make(map[string]sdkmath.Int, len(validators))
	for _, v := range validators {
		amount, err := utils.MulDec(total, d.Weights[v])
		if err != nil {
			return nil, err
		}
		out[v] = amount
	}
	return out, nil
}

// FromName builds a strategy from its configured name.
func FromName(name string, weights map[string]sdkmath.LegacyDec) (Strategy, error) {
	switch name {
	case "", StrategyUniform:
		return Uniform{}, nil
	case StrategyDefined:
		return Defined{Weights: weights}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
}

// Planner turns a strategy into delegate, undelegate and redelegate plans.
type Planner struct {
	strategy Strategy
	logger   zerolog.Logger
}

func New(strategy Strategy) *Planner {
	if strategy == nil {
		strategy = Uniform{}
	}
	return &Planner{strategy: strategy, logger: logger.GetForComponent("allocation_planner")}
}

func (p *Planner) Strategy() Strategy { return p.strategy }

// merge lists current delegations first, then validators without a delegation at zero.
func merge(current []types.Delegation, validators []string) []types.Delegation {
	seen := make(map[string]bool, len(current))
	out := make([]types.Delegation, 0, len(current)+len(validators))
	for _, d := range current {
		seen[d.Validator] = true
		out = append(out, types.Delegation{Validator: d.Validator, Amount: utils.OrZero(d.Amount)})
	}
	for _, v := range validators {
		if !seen[v] {
			out = append(out, types.Delegation{Validator: v, Amount: sdkmath.ZeroInt()})
		}
	}
	return out
}

// targetsFor computes per-validator targets for total. Rounding dust goes to the first
// delegation of the merged list, an excess over total comes off the first that can carry it.
func (p *Planner) targetsFor(total sdkmath.Int, merged []types.Delegation, validators []string) (map[string]sdkmath.Int, error) {
	targets, err := p.strategy.Targets(total, validators)
	if err != nil {
		return nil, err
	}
	sum := sdkmath.ZeroInt()
	for _, t := range targets {
		sum = sum.Add(t)
	}
	add := utils.SaturatingSub(total, sum)
	remove := utils.SaturatingSub(sum, total)

	out := make(map[string]sdkmath.Int, len(merged))
	for _, d := range merged {
		t, ok := targets[d.Validator]
		if !ok {
			t = sdkmath.ZeroInt()
		}
		if add.IsPositive() {
			t = t.Add(add)
			add = sdkmath.ZeroInt()
		}
		if remove.IsPositive() && t.GTE(remove) {
			t = t.Sub(remove)
			remove = sdkmath.ZeroInt()
		}
		out[d.Validator] = t
	}
	return out, nil
}

// Bond picks the single validator furthest below its target once amount is added.
func (p *Planner) Bond(amount sdkmath.Int, current []types.Delegation, validators []string) ([]types.Delegation, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	merged := merge(current, validators)
	staked := types.TotalDelegated(current)
	targets, err := p.targetsFor(staked.Add(amount), merged, validators)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(validators))
	for _, v := range validators {
		allowed[v] = true
	}
	var best string
	bestGap := sdkmath.Int{}
	for _, d := range merged {
		if !allowed[d.Validator] {
			continue
		}
		gap := targets[d.Validator].Sub(d.Amount)
		if bestGap.IsNil() || gap.GT(bestGap) {
			best, bestGap = d.Validator, gap
		}
	}

	p.logger.Debug().Str("validator", best).Str("amount", amount.String()).Str("strategy", p.strategy.Name()).Msg("Planned delegation")
	return []types.Delegation{{Validator: best, Amount: amount}}, nil
}

// Unbond draws amount from the delegations standing above their target for the remaining stake.
func (p *Planner) Unbond(amount sdkmath.Int, current []types.Delegation, validators []string) ([]types.Delegation, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	staked := types.TotalDelegated(current)
	if staked.LT(amount) {
		return nil, fmt.Errorf("%w: staked %s, requested %s", ErrInsufficientStake, staked, amount)
	}
	merged := merge(current, validators)
	targets, err := p.targetsFor(staked.Sub(amount), merged, validators)
	if err != nil {
		return nil, err
	}

	var plan []types.Delegation
	available := amount
	for _, d := range merged {
		surplus := utils.SaturatingSub(d.Amount, targets[d.Validator])
		take := utils.MinInt(surplus, available)
		if take.IsPositive() {
			plan = append(plan, types.Delegation{Validator: d.Validator, Amount: take})
			available = available.Sub(take)
		}
		if available.IsZero() {
			break
		}
	}

	// targets may exceed a delegation when weights skip validators; drain the rest in order
	for i := 0; available.IsPositive() && i < len(merged); i++ {
		d := merged[i]
		already := sdkmath.ZeroInt()
		for _, u := range plan {
			if u.Validator == d.Validator {
				already = already.Add(u.Amount)
			}
		}
		take := utils.MinInt(utils.SaturatingSub(d.Amount, already), available)
		if take.IsPositive() {
			plan = appendTo(plan, d.Validator, take)
			available = available.Sub(take)
		}
	}

	p.logger.Debug().Int("undelegations", len(plan)).Str("amount", amount.String()).Msg("Planned undelegations")
	return plan, nil
}

func appendTo(plan []types.Delegation, validator string, amount sdkmath.Int) []types.Delegation {
	for i := range plan {
		if plan[i].Validator == validator {
			plan[i].Amount = plan[i].Amount.Add(amount)
			return plan
		}
	}
	return append(plan, types.Delegation{Validator: validator, Amount: amount})
}

// Redelegations moves the stake of a removed validator onto the remaining set.
func (p *Planner) Redelegations(removed types.Delegation, current []types.Delegation, validators []string) ([]types.Redelegation, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	removedAmount := utils.OrZero(removed.Amount)
	merged := merge(current, validators)
	targets, err := p.targetsFor(types.TotalDelegated(current).Add(removedAmount), merged, validators)
	if err != nil {
		return nil, err
	}

	var plan []types.Redelegation
	available := removedAmount
	for _, d := range merged {
		if available.IsZero() {
			break
		}
		move := utils.MinInt(utils.SaturatingSub(targets[d.Validator], d.Amount), available)
		if move.IsPositive() {
			plan = append(plan, types.Redelegation{Src: removed.Validator, Dst: d.Validator, Amount: move})
			available = available.Sub(move)
		}
	}
	if available.IsPositive() && len(merged) > 0 {
		dst := validators[0]
		plan = append(plan, types.Redelegation{Src: removed.Validator, Dst: dst, Amount: available})
	}
	return plan, nil
}

// Rebalance computes moves bringing every delegation to its target.
func (p *Planner) Rebalance(current []types.Delegation, validators []string) ([]types.Redelegation, error) {
	merged := merge(current, validators)
	targets, err := p.targetsFor(types.TotalDelegated(current), merged, validators)
	if err != nil {
		return nil, err
	}

	var src, dst []types.Delegation
	for _, d := range merged {
		t := targets[d.Validator]
		switch {
		case d.Amount.GT(t):
			src = append(src, types.Delegation{Validator: d.Validator, Amount: d.Amount.Sub(t)})
		case d.Amount.LT(t):
			dst = append(dst, types.Delegation{Validator: d.Validator, Amount: t.Sub(d.Amount)})
		}
	}

	var plan []types.Redelegation
	for len(src) > 0 && len(dst) > 0 {
		move := utils.MinInt(src[0].Amount, dst[0].Amount)
		plan = append(plan, types.Redelegation{Src: src[0].Validator, Dst: dst[0].Validator, Amount: move})
		src[0].Amount = src[0].Amount.Sub(move)
		dst[0].Amount = dst[0].Amount.Sub(move)
		if src[0].Amount.IsZero() {
			src = src[1:]
		}
		if dst[0].Amount.IsZero() {
			dst = dst[1:]
		}
	}
	return plan, nil
}

// AssertTotal fails unless plan sums to exactly amount.
func AssertTotal(plan []types.Delegation, amount sdkmath.Int) error {
	total := types.TotalDelegated(plan)
	if !total.Equal(utils.OrZero(amount)) {
		return errorsmod.Wrapf(types.ErrAllocationMismatch, "planned %s, expected %s", total, amount)
	}
	return nil
}

// LeastDelegated returns the validator with the smallest delegation, ties broken by name.
func LeastDelegated(current []types.Delegation, validators []string) (string, error) {
	if len(validators) == 0 {
		return "", ErrNoValidators
	}
	merged := merge(current, validators)
	allowed := make(map[string]bool, len(validators))
	for _, v := range validators {
		allowed[v] = true
	}
	candidates := make([]types.Delegation, 0, len(validators))
	for _, d := range merged {
		if allowed[d.Validator] {
			candidates = append(candidates, d)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Amount.Equal(candidates[j].Amount) {
			return candidates[i].Validator < candidates[j].Validator
		}
		return candidates[i].Amount.LT(candidates[j].Amount)
	})
	return candidates[0].Validator, nil
}
