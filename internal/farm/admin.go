package farm

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

func updateConfig(deps chain.Deps, sender string, msg UpdateConfigMsg) (*chain.Response, error) {
	cfg, err := loadOwned(deps, sender)
	if err != nil {
		return nil, err
	}
	if msg.CompoundProxy != nil {
		cfg.CompoundProxy = Compounder(*msg.CompoundProxy)
	}
	if msg.Controller != nil {
		cfg.Controller = *msg.Controller
	}
	if msg.Fee != nil {
		cfg.Fee = *msg.Fee
	}
	if msg.FeeCollector != nil {
		cfg.FeeCollector = *msg.FeeCollector
	}
	if msg.DepositProfitDelayS != nil {
		cfg.DepositProfitDelayS = *msg.DepositProfitDelayS
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "farm/update_config"), nil
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
	return chain.NewResponse().AddAttribute("action", "farm/transfer_ownership").AddAttribute("new_owner", newOwner), nil
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
	return chain.NewResponse().AddAttribute("action", "farm/drop_ownership_proposal"), nil
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
		AddEvent(chain.NewEvent("farm/ownership_transferred").Add("new_owner", sender).Add("previous_owner", previous)).
		AddAttribute("action", "farm/accept_ownership"), nil
}
