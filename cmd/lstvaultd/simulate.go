package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/lstvault/internal/app"
	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/store"
)

const flagStart = "start-time"

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a full bond, slash and unbond cycle on an in-memory deployment",
		Long: `Deploys the contracts on an in-memory store and drives one unbonding cycle:
bonds, rewards, a submitted batch, a slash while it unbonds, reconciliation and
the withdrawal. Every step is printed to stdout as one JSON line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime, err := cmd.Flags().GetUint64(flagStart)
			if err != nil {
				return err
			}
			params, err := config.LoadParameters(config.ParamsFile)
			if err != nil {
				return err
			}

			sim := app.New(store.NewMemory(), params)
			if _, err := sim.Genesis(cmd.Context(), startTime); err != nil {
				return err
			}
			report, err := sim.Simulate(cmd.Context(), startTime, os.Stdout)
			if err != nil {
				return err
			}
			log.Info().
				Str("exchange_rate", report.Hub.ExchangeRate.String()).
				Str("total_utoken", report.Hub.TotalUtoken.String()).
				Msg("Simulation finished")
			return nil
		},
	}
	cmd.Flags().Uint64(flagStart, 1_700_000_000, "Block time of the deployment")
	return cmd
}
