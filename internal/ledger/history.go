// Package ledger keeps the exchange rate history of a vault and derives yield figures from it.
package ledger

import (
	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/elys-network/lstvault/internal/shares"
	"github.com/elys-network/lstvault/internal/store"
)

const (
	DefaultLimit = 10
	MaxLimit     = 30

	Day uint64 = 24 * 60 * 60
)

// Point is one recorded exchange rate. Key is the storage key, the time or the day it falls in.
type Point struct {
	Key  uint64            `json:"key"`
	Time uint64            `json:"time_s"`
	Rate sdkmath.LegacyDec `json:"exchange_rate"`
}

// ComputeExchangeRate is underlying per share, exactly one when there are no shares.
func ComputeExchangeRate(totalUnderlying, totalShares sdkmath.Int) sdkmath.LegacyDec {
	return shares.ExchangeRate(totalUnderlying, totalShares)
}

// History is a time keyed series of exchange rates in a contract store.
type History struct {
	points store.Map[Point]
	bucket uint64
}

// NewHistory keys points by their time in seconds.
func NewHistory(name string) History {
	return History{points: store.NewMap[Point](name), bucket: 1}
}

// NewDailyHistory keeps one point per day, the latest recorded wins.
func NewDailyHistory(name string) History {
	return History{points: store.NewMap[Point](name), bucket: Day}
}

func (h History) Record(kv storetypes.KVStore, time uint64, rate sdkmath.LegacyDec) error {
	key := time / h.bucket
	return h.points.Save(kv, store.U64(key), Point{Key: key, Time: time, Rate: rate})
}

// Range returns points older than startAfter, newest first.
func (h History) Range(kv storetypes.KVStore, startAfter *uint64, limit *uint32) ([]Point, error) {
	var end []byte
	if startAfter != nil {
		end = store.U64(*startAfter)
	}
	entries, err := h.points.Collect(kv, nil, nil, end, store.Descending, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}

// Latest returns up to n newest points, newest first.
func (h History) Latest(kv storetypes.KVStore, n int) ([]Point, error) {
	entries, err := h.points.Collect(kv, nil, nil, nil, store.Descending, n)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}

// ClampLimit applies the default and maximum page size of list queries.
func ClampLimit(limit *uint32) int {
	if limit == nil {
		return DefaultLimit
	}
	if *limit > MaxLimit {
		return MaxLimit
	}
	return int(*limit)
}
