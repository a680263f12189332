package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lstvault/internal/config"
	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/state"
)

func main() {
	cycle := flag.Int("cycle", -1, "only set the keeper cycle counter to this value, keeping every table")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Initialize(config.LogLevel)
	log.Info().Msg("Starting database reset script...")

	if config.DB == nil {
		log.Fatal().Msg("DB_HOST environment variable not set.")
	}
	dbCfg := *config.DB

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB()

	if *cycle >= 0 {
		if err := state.ResetCycleNumber(context.Background(), *cycle); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset keeper cycle counter")
		}
		log.Info().Int("cycle", *cycle).Msg("Keeper cycle counter reset")
		return
	}

	log.Info().Strs("tables", state.Tables).Msg("Connected to database. Attempting to drop all tables...")
	if err := state.DropSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}
	log.Info().Msg("Successfully dropped all tables")

	// Recreate the schema
	log.Info().Msg("Recreating database schema...")
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate database schema")
	}
	log.Info().Msg("Database reset complete!")
}
