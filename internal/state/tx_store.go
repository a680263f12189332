// ./internal/state/tx_store.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lstvault/internal/engine"
)

// Sink stores committed transactions in postgres.
type Sink struct{}

var _ engine.EventSink = Sink{}

func (Sink) Publish(ctx context.Context, record engine.TxRecord) error {
	return SaveTransaction(ctx, record)
}

// RatePoint is one exchange rate recorded by a transaction.
type RatePoint struct {
	Contract string
	Rate     string
}

// ratePoints lists the exchange rates of record ordered by contract.
func ratePoints(record engine.TxRecord) []RatePoint {
	points := record.ExchangeRatePoints()
	out := make([]RatePoint, 0, len(points))
	for contract, rate := range points {
		out = append(out, RatePoint{Contract: contract, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contract < out[j].Contract })
	return out
}

// eventTypes lists the distinct event types of record in emission order.
func eventTypes(record engine.TxRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range record.Events {
		if !seen[ev.Type] {
			seen[ev.Type] = true
			out = append(out, ev.Type)
		}
	}
	return out
}

// SaveTransaction saves a committed transaction and the exchange rates it recorded.
func SaveTransaction(ctx context.Context, record engine.TxRecord) (err error) {
	if DB == nil {
		return ErrDBNotInitialized
	}

	eventsJSON, err := json.Marshal(record.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (tx_id, height, tx_time, sender, contract, action, event_types, events)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tx_id) DO NOTHING;`,
		record.TxID, record.Height, record.Time, record.Sender, record.Contract, record.Action,
		pq.Array(eventTypes(record)), eventsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", record.TxID, err)
	}

	for _, p := range ratePoints(record) {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exchange_rates (tx_id, contract, rate, tx_time) VALUES ($1, $2, $3, $4);`,
			record.TxID, p.Contract, p.Rate, record.Time,
		)
		if err != nil {
			return fmt.Errorf("failed to save exchange rate of %s: %w", p.Contract, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction %s: %w", record.TxID, err)
	}

	log.Debug().
		Str("tx_id", record.TxID).
		Int64("height", record.Height).
		Str("action", record.Action).
		Int("events", len(record.Events)).
		Msg("Transaction saved to database")
	return nil
}
