// ./internal/state/parameters_store.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/lstvault/internal/config"
)

var ErrNoDeployment = errors.New("no active deployment")

// Deployment is a recorded genesis: the parameters the contracts were instantiated with.
type Deployment struct {
	ID        int64             `json:"deployment_id"`
	Params    config.Parameters `json:"params"`
	CreatedAt time.Time         `json:"created_at"`
}

// SaveDeployment records params as the active deployment.
func SaveDeployment(ctx context.Context, params config.Parameters) (id int64, err error) {
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE deployments SET is_active = FALSE WHERE is_active = TRUE;`); err != nil {
		return 0, fmt.Errorf("failed to deactivate previous deployments: %w", err)
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO deployments (is_active, params) VALUES (TRUE, $1) RETURNING deployment_id;`,
		paramsJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save deployment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit deployment: %w", err)
	}

	log.Info().Int64("deployment_id", id).Msg("Deployment parameters saved to database")
	return id, nil
}

// LoadActiveDeployment returns the latest active deployment or ErrNoDeployment.
func LoadActiveDeployment(ctx context.Context) (*Deployment, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	var d Deployment
	var paramsJSON []byte
	err := DB.QueryRowContext(ctx, `
		SELECT deployment_id, params, created_at
		FROM deployments
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1;`).Scan(&d.ID, &paramsJSON, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDeployment
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active deployment: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &d.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment parameters: %w", err)
	}
	return &d, nil
}
