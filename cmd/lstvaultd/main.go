package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/logger"
)

const (
	flagParams  = "params"
	flagLogJSON = "log-json"
)

// main is the entry point of the lstvault daemon.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lstvaultd",
		Short: "Liquid staking hub, LP farm and arbitrage vault daemon",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(); err != nil {
				return err
			}
			if file := viper.GetString(flagParams); file != "" {
				config.ParamsFile = file
			}
			return logger.InitializeWith(logger.Options{
				Level: config.LogLevel,
				JSON:  viper.GetBool(flagLogJSON),
				File:  config.LogFile,
			})
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().String(flagParams, "", "Parameters yaml file (overrides PARAMS_FILE)")
	root.PersistentFlags().Bool(flagLogJSON, false, "Log JSON lines instead of console output")
	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind flags")
	}

	root.AddCommand(startCmd(), simulateCmd())
	return root
}
