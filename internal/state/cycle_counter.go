/*

This file manages the persistent keeper cycle counter.
The counter is stored in the database to ensure continuity across restarts.

*/

package state

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// CycleCounter numbers keeper cycles in the keeper_cycles table.
type CycleCounter struct{}

// Next increments the cycle counter and returns the new value.
func (CycleCounter) Next(ctx context.Context) (int, error) {
	if DB == nil {
		return 0, ErrDBNotInitialized
	}

	updateQuery := `
		UPDATE keeper_cycles
		SET current_cycle = current_cycle + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_cycle;`

	var newCycle int
	if err := DB.QueryRowContext(ctx, updateQuery).Scan(&newCycle); err != nil {
		return 0, fmt.Errorf("failed to increment cycle number: %w", err)
	}

	log.Debug().Int("newCycle", newCycle).Msg("Incremented keeper cycle counter")
	return newCycle, nil
}

// ResetCycleNumber resets the cycle counter to a specific value (for maintenance).
func ResetCycleNumber(ctx context.Context, cycleNumber int) error {
	if DB == nil {
		return ErrDBNotInitialized
	}
	if cycleNumber < 0 {
		return fmt.Errorf("cycle number cannot be negative: %d", cycleNumber)
	}

	result, err := DB.ExecContext(ctx, `
		UPDATE keeper_cycles
		SET current_cycle = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`, cycleNumber)
	if err != nil {
		return fmt.Errorf("failed to reset cycle number to %d: %w", cycleNumber, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows updated when resetting cycle number")
	}

	log.Warn().Int("cycleNumber", cycleNumber).Msg("Reset keeper cycle counter")
	return nil
}
