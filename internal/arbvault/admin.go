package arbvault

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/types"
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

func updateConfig(deps chain.Deps, env chain.Env, sender string, msg UpdateConfigMsg) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}

	if msg.UtilizationSteps != nil {
		cfg.UtilizationSteps = msg.UtilizationSteps
	}
	if msg.UnbondTimeS != nil {
		cfg.UnbondTimeS = *msg.UnbondTimeS
	}
	if msg.InsertLSD != nil {
		cfg.LSDs = append(cfg.LSDs, *msg.InsertLSD)
	}
	if msg.DisableLSD != nil {
		i, err := lsdIndex(cfg, *msg.DisableLSD)
		if err != nil {
			return nil, err
		}
		cfg.LSDs[i].Disabled = true
	}
	if msg.RemoveLSD != nil {
		if cfg, err = removeLSD(deps, env, cfg, *msg.RemoveLSD, false); err != nil {
			return nil, err
		}
	}
	if msg.ForceRemoveLSD != nil {
		if cfg, err = removeLSD(deps, env, cfg, *msg.ForceRemoveLSD, true); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}

	if msg.FeeConfig != nil {
		if err := msg.FeeConfig.Validate(); err != nil {
			return nil, err
		}
		if err := feeConfig.Save(deps.Store, *msg.FeeConfig); err != nil {
			return nil, err
		}
	}
	if msg.RemoveWhitelist {
		whitelist.Remove(deps.Store)
	} else if msg.SetWhitelist != nil {
		if err := whitelist.Save(deps.Store, msg.SetWhitelist); err != nil {
			return nil, err
		}
	}
	return chain.NewResponse().AddAttribute("action", "arb/update_config"), nil
}

func lsdIndex(cfg Config, name string) (int, error) {
	for i, l := range cfg.LSDs {
		if l.Name == name {
			return i, nil
		}
	}
	return -1, errorsmod.Wrapf(types.ErrAdapterNotFound, "%s", name)
}

// removeLSD drops an LSD the vault holds nothing in, or any LSD when forced.
func removeLSD(deps chain.Deps, env chain.Env, cfg Config, name string, force bool) (Config, error) {
	i, err := lsdIndex(cfg, name)
	if err != nil {
		return cfg, err
	}
	if !force {
		claim, err := (Adapter{LSDConfig: cfg.LSDs[i]}).Balance(deps.Querier, env.Contract)
		if err != nil {
			return cfg, err
		}
		if claim.XBalance.IsPositive() || claim.Unbonding.IsPositive() || claim.Withdrawable.IsPositive() {
			return cfg, errorsmod.Wrapf(types.ErrInvalidConfig, "lsd %s still holds vault funds", name)
		}
	}
	cfg.LSDs = append(cfg.LSDs[:i:i], cfg.LSDs[i+1:]...)
	return cfg, nil
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
	return chain.NewResponse().AddAttribute("action", "arb/transfer_ownership").AddAttribute("new_owner", newOwner), nil
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
	return chain.NewResponse().AddAttribute("action", "arb/drop_ownership_proposal"), nil
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
		AddEvent(chain.NewEvent("arb/ownership_transferred").Add("new_owner", sender).Add("previous_owner", previous)).
		AddAttribute("action", "arb/accept_ownership"), nil
}
