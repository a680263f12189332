// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lstvault/internal/config"
)

// DB is a global database connection pool.
var DB *sql.DB

var ErrDBNotInitialized = errors.New("database not initialized")

// InitDB initializes the database connection pool.
func InitDB(cfg config.DBConfig) error {
	var err error
	DB, err = sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

// Tables lists every table EnsureSchema creates, children first.
var Tables = []string{"exchange_rates", "transactions", "deployments", "keeper_cycles"}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return ErrDBNotInitialized
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS transactions (
			tx_id UUID PRIMARY KEY,
			height BIGINT NOT NULL,
			tx_time TIMESTAMPTZ NOT NULL,
			sender VARCHAR(255) NOT NULL,
			contract VARCHAR(255) NOT NULL,
			action VARCHAR(100) NOT NULL,
			event_types TEXT[],
			events JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_height ON transactions(height DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_contract_action ON transactions(contract, action);

		CREATE TABLE IF NOT EXISTS exchange_rates (
			rate_id SERIAL PRIMARY KEY,
			tx_id UUID NOT NULL REFERENCES transactions(tx_id) ON DELETE CASCADE,
			contract VARCHAR(255) NOT NULL,
			rate DECIMAL(38, 18) NOT NULL,
			tx_time TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_exchange_rates_contract_time ON exchange_rates(contract, tx_time DESC);

		CREATE TABLE IF NOT EXISTS deployments (
			deployment_id SERIAL PRIMARY KEY,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			params JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_deployments_active ON deployments(is_active, created_at DESC);

		-- Single row counter of keeper cycles, kept across restarts
		CREATE TABLE IF NOT EXISTS keeper_cycles (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_cycle INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);
		INSERT INTO keeper_cycles (id, current_cycle)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// DropSchema removes every table EnsureSchema creates.
func DropSchema() error {
	if DB == nil {
		return ErrDBNotInitialized
	}
	for _, table := range Tables {
		if _, err := DB.Exec("DROP TABLE IF EXISTS " + table + " CASCADE;"); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return ErrDBNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
