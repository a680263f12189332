package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lstvault/internal/chain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Transaction is a stored committed transaction.
type Transaction struct {
	TxID       string        `json:"tx_id"`
	Height     int64         `json:"height"`
	Time       time.Time     `json:"time"`
	Sender     string        `json:"sender"`
	Contract   string        `json:"contract"`
	Action     string        `json:"action"`
	EventTypes []string      `json:"event_types"`
	Events     []chain.Event `json:"events"`
}

// RateRecord is one stored exchange rate observation.
type RateRecord struct {
	TxID     string    `json:"tx_id"`
	Contract string    `json:"contract"`
	Rate     string    `json:"rate"`
	Time     time.Time `json:"time"`
}

// ActionCount aggregates committed transactions per contract and action.
type ActionCount struct {
	Contract string    `json:"contract"`
	Action   string    `json:"action"`
	Count    int64     `json:"count"`
	Last     time.Time `json:"last"`
}

// ClampListLimit maps non-positive limits to the default and caps the rest.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// GetRecentTransactions lists the latest transactions, optionally filtered by contract.
func GetRecentTransactions(ctx context.Context, contract string, limit int) ([]Transaction, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	query := `
		SELECT tx_id, height, tx_time, sender, contract, action, event_types, events
		FROM transactions
		WHERE $1 = '' OR contract = $1
		ORDER BY height DESC
		LIMIT $2
	`
	rows, err := DB.QueryContext(ctx, query, contract, ClampListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var eventsJSON []byte
		if err := rows.Scan(&t.TxID, &t.Height, &t.Time, &t.Sender, &t.Contract, &t.Action, pq.Array(&t.EventTypes), &eventsJSON); err != nil {
			log.Error().Err(err).Msg("Failed to scan transaction row")
			continue
		}
		if err := json.Unmarshal(eventsJSON, &t.Events); err != nil {
			log.Error().Err(err).Str("tx_id", t.TxID).Msg("Failed to unmarshal transaction events")
			continue
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// GetExchangeRateHistory lists the latest exchange rates of contract, newest first.
func GetExchangeRateHistory(ctx context.Context, contract string, limit int) ([]RateRecord, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT tx_id, contract, rate::TEXT, tx_time
		FROM exchange_rates
		WHERE contract = $1
		ORDER BY tx_time DESC, rate_id DESC
		LIMIT $2`, contract, ClampListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange rates of %s: %w", contract, err)
	}
	defer rows.Close()

	var out []RateRecord
	for rows.Next() {
		var r RateRecord
		if err := rows.Scan(&r.TxID, &r.Contract, &r.Rate, &r.Time); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetActionCounts aggregates the stored transactions per contract and action.
func GetActionCounts(ctx context.Context) ([]ActionCount, error) {
	if DB == nil {
		return nil, ErrDBNotInitialized
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT contract, action, COUNT(*), MAX(tx_time)
		FROM transactions
		GROUP BY contract, action
		ORDER BY contract, action`)
	if err != nil {
		return nil, fmt.Errorf("failed to query action counts: %w", err)
	}
	defer rows.Close()

	var out []ActionCount
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Contract, &c.Action, &c.Count, &c.Last); err != nil {
			return nil, fmt.Errorf("failed to scan action count row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// History reads the stored transactions of the global connection pool.
type History struct{}

func (History) RecentTransactions(ctx context.Context, contract string, limit int) ([]Transaction, error) {
	return GetRecentTransactions(ctx, contract, limit)
}

func (History) ExchangeRates(ctx context.Context, contract string, limit int) ([]RateRecord, error) {
	return GetExchangeRateHistory(ctx, contract, limit)
}

func (History) ActionCounts(ctx context.Context) ([]ActionCount, error) {
	return GetActionCounts(ctx)
}

func (History) Healthy() error {
	return TestDBConnection()
}
