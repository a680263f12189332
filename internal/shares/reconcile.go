package shares

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lstvault/internal/types"
	"github.com/elys-network/lstvault/internal/utils"
)

// maxEvenRounds bounds the redistribution rounds before the carry is applied oldest-first.
const maxEvenRounds = 8

// Reconciliation reports how a shortfall was spread over the batches.
type Reconciliation struct {
	Deducted   []sdkmath.Int // per batch, aligned with the input
	Rounds     int           // even-split rounds that were needed
	Carried    []sdkmath.Int // carry entering each round after the first
	OldestPass sdkmath.Int   // amount applied oldest-first after the even rounds
}

// Total is the sum deducted over all batches.
func (r Reconciliation) Total() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, d := range r.Deducted {
		total = total.Add(d)
	}
	return total
}

// MarkReconciled flags every batch reconciled without touching amounts.
func MarkReconciled(batches []types.Batch) {
	for i := range batches {
		batches[i].Reconciled = true
	}
}

// ReconcileBatches deducts shortfall from the unclaimed underlying of batches and marks them reconciled.
//
// The shortfall is split evenly and the first shortfall%n batches take one extra unit. A batch never
// goes below zero: what it cannot absorb is carried into another even split over the batches that
// still have funds. Whatever is left after maxEvenRounds is taken oldest-first.
// The batches are left untouched when they cannot absorb the whole shortfall.
func ReconcileBatches(batches []types.Batch, shortfall sdkmath.Int) (Reconciliation, error) {
	shortfall = utils.OrZero(shortfall)
	res := Reconciliation{Deducted: make([]sdkmath.Int, len(batches)), OldestPass: sdkmath.ZeroInt()}
	for i := range res.Deducted {
		res.Deducted[i] = sdkmath.ZeroInt()
	}
	if len(batches) == 0 {
		if shortfall.IsPositive() {
			return res, errorsmod.Wrapf(types.ErrReconcileShortfall, "no batches to absorb %s", shortfall)
		}
		return res, nil
	}

	owed := sdkmath.ZeroInt()
	for _, b := range batches {
		owed = owed.Add(utils.OrZero(b.UnderlyingUnclaimed))
	}
	if shortfall.GT(owed) {
		return res, errorsmod.Wrapf(types.ErrReconcileShortfall, "shortfall %s exceeds unclaimed %s", shortfall, owed)
	}

	remaining := make([]sdkmath.Int, len(batches))
	for i, b := range batches {
		remaining[i] = utils.OrZero(b.UnderlyingUnclaimed)
	}

	// the first round covers every batch, later rounds only those with funds left
	carry := shortfall
	active := make([]int, len(batches))
	for i := range batches {
		active[i] = i
	}
	for carry.IsPositive() && len(active) > 0 && res.Rounds < maxEvenRounds {
		if res.Rounds > 0 {
			res.Carried = append(res.Carried, carry)
		}
		res.Rounds++

		n := sdkmath.NewInt(int64(len(active)))
		per := carry.Quo(n)
		rem := carry.Mod(n).Int64()
		next := sdkmath.ZeroInt()
		for pos, i := range active {
			due := per
			if int64(pos) < rem {
				due = due.AddRaw(1)
			}
			take := utils.MinInt(remaining[i], due)
			remaining[i] = remaining[i].Sub(take)
			res.Deducted[i] = res.Deducted[i].Add(take)
			next = next.Add(due.Sub(take))
		}
		carry = next

		funded := active[:0]
		for _, i := range active {
			if remaining[i].IsPositive() {
				funded = append(funded, i)
			}
		}
		active = funded
	}

	for i := range batches {
		if carry.IsZero() {
			break
		}
		take := utils.MinInt(remaining[i], carry)
		remaining[i] = remaining[i].Sub(take)
		res.Deducted[i] = res.Deducted[i].Add(take)
		res.OldestPass = res.OldestPass.Add(take)
		carry = carry.Sub(take)
	}

	for i := range batches {
		batches[i].UnderlyingUnclaimed = remaining[i]
		batches[i].Reconciled = true
	}
	return res, nil
}
