package hub

import (
	"slices"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

func loadOwned(deps chain.Deps, sender string) (Config, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return cfg, err
	}
	if sender != cfg.Owner {
		return cfg, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the owner", sender)
	}
	return cfg, nil
}

func updateConfig(deps chain.Deps, sender string, msg UpdateConfigMsg) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	if msg.ProtocolFeeContract != nil {
		cfg.FeeConfig.ProtocolFeeContract = *msg.ProtocolFeeContract
	}
	if msg.ProtocolRewardFee != nil {
		cfg.FeeConfig.ProtocolRewardFee = *msg.ProtocolRewardFee
	}
	if msg.Operator != nil {
		cfg.Operator = *msg.Operator
	}
	if msg.DonationsEnabled != nil {
		cfg.DonationsEnabled = *msg.DonationsEnabled
	}
	if msg.EpochPeriod != nil {
		cfg.EpochPeriod = *msg.EpochPeriod
	}
	if msg.UnbondPeriod != nil {
		cfg.UnbondPeriod = *msg.UnbondPeriod
	}
	if msg.DelegationStrategy != nil {
		cfg.DelegationStrategy = *msg.DelegationStrategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "hub/update_config"), nil
}

func transferOwnership(deps chain.Deps, sender, newOwner string) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	if newOwner == "" {
		return nil, errorsmod.Wrap(types.ErrInvalidConfig, "new owner must be set")
	}
	cfg.NewOwner = newOwner
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "hub/transfer_ownership").AddAttribute("new_owner", newOwner), nil
}

func dropOwnershipProposal(deps chain.Deps, sender string) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	cfg.NewOwner = ""
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "hub/drop_ownership_proposal"), nil
}

func acceptOwnership(deps chain.Deps, sender string) (*chain.Response, error) {
	cfg, err := config.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if cfg.NewOwner == "" || sender != cfg.NewOwner {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the proposed owner", sender)
	}
	previous := cfg.Owner
	cfg.Owner, cfg.NewOwner = sender, ""
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddEvent(chain.NewEvent("hub/ownership_transferred").Add("new_owner", sender).Add("previous_owner", previous)).
		AddAttribute("action", "hub/accept_ownership"), nil
}

func addValidator(deps chain.Deps, sender, validator string) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	if validator == "" || slices.Contains(cfg.Validators, validator) {
		return nil, errorsmod.Wrapf(types.ErrInvalidConfig, "validator %q is empty or already whitelisted", validator)
	}
	cfg.Validators = append(cfg.Validators, validator)
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddEvent(chain.NewEvent("hub/validator_added").Add("validator", validator)).
		AddAttribute("action", "hub/add_validator"), nil
}

// removeValidator drops validator from the set and moves its stake onto the remaining ones.
func removeValidator(deps chain.Deps, env chain.Env, sender, validator string) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	idx := slices.Index(cfg.Validators, validator)
	if idx < 0 {
		return nil, errorsmod.Wrapf(types.ErrInvalidConfig, "validator %s is not whitelisted", validator)
	}
	cfg.Validators = slices.Delete(slices.Clone(cfg.Validators), idx, idx+1)
	if len(cfg.Validators) == 0 {
		return nil, types.ErrNoValidators
	}
	if _, err := cfg.Strategy(); err != nil {
		return nil, err
	}

	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}
	removed := types.Delegation{Validator: validator, Amount: sdkmath.ZeroInt()}
	rest := make([]types.Delegation, 0, len(current))
	for _, d := range current {
		if d.Validator == validator {
			removed = d
		} else {
			rest = append(rest, d)
		}
	}

	resp := chain.NewResponse()
	if removed.Amount.IsPositive() {
		p, err := cfg.Planner()
		if err != nil {
			return nil, err
		}
		plan, err := p.Redelegations(removed, rest, cfg.Validators)
		if err != nil {
			return nil, err
		}
		for _, rd := range plan {
			resp.AddMessages(chain.Redelegate{Src: rd.Src, Dst: rd.Dst, Amount: rd.Amount})
		}
		// redelegating withdraws the pending rewards of the moved delegation
		check, err := receivedCoinCheck(deps, env, cfg, sdkmath.ZeroInt())
		if err != nil {
			return nil, err
		}
		resp.AddMessages(check)
	}

	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return resp.
		AddEvent(chain.NewEvent("hub/validator_removed").Add("validator", validator).Add("utoken_moved", removed.Amount)).
		AddAttribute("action", "hub/remove_validator"), nil
}

// rebalance redelegates toward the strategy's targets, skipping moves below minRedelegation.
func rebalance(deps chain.Deps, env chain.Env, sender string, minRedelegation *sdkmath.Int) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	current, err := deps.Querier.Delegations(env.Contract)
	if err != nil {
		return nil, err
	}
	p, err := cfg.Planner()
	if err != nil {
		return nil, err
	}
	plan, err := p.Rebalance(current, cfg.Validators)
	if err != nil {
		return nil, err
	}

	threshold := sdkmath.ZeroInt()
	if minRedelegation != nil {
		threshold = utils.OrZero(*minRedelegation)
	}
	resp := chain.NewResponse()
	moved := sdkmath.ZeroInt()
	for _, rd := range plan {
		if rd.Amount.LT(threshold) {
			continue
		}
		resp.AddMessages(chain.Redelegate{Src: rd.Src, Dst: rd.Dst, Amount: rd.Amount})
		moved = moved.Add(rd.Amount)
	}
	if len(resp.Messages) > 0 {
		check, err := receivedCoinCheck(deps, env, cfg, sdkmath.ZeroInt())
		if err != nil {
			return nil, err
		}
		resp.AddMessages(check)
	}

	return resp.
		AddEvent(chain.NewEvent("hub/rebalanced").Add("utoken_moved", moved)).
		AddAttribute("action", "hub/rebalance"), nil
}
