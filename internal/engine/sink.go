package engine

import (
	"context"
	"time"

	"github.com/elys-network/lstvault/internal/chain"
)

// TxRecord is the published form of a committed transaction.
type TxRecord struct {
	TxID     string        `json:"tx_id"`
	Height   int64         `json:"height"`
	Time     time.Time     `json:"time"`
	Sender   string        `json:"sender"`
	Contract string        `json:"contract"`
	Action   string        `json:"action"`
	Events   []chain.Event `json:"events"`
}

// EventSink receives every committed transaction. A failing sink never rolls back the transaction.
type EventSink interface {
	Publish(ctx context.Context, record TxRecord) error
}

// ExchangeRatePoints extracts (contract, rate) pairs from the record's events.
func (r TxRecord) ExchangeRatePoints() map[string]string {
	out := make(map[string]string)
	for _, ev := range r.Events {
		rate, ok := ev.Get("exchange_rate")
		if !ok {
			continue
		}
		addr, _ := ev.Get(contractAddressKey)
		out[addr] = rate
	}
	return out
}
