/*

This file contains the records of the batched unbonding lifecycle: the accumulating pending batch,
the submitted batches awaiting settlement and the per-user requests pointing at them.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// PendingBatch is the epoch currently accumulating unbond requests.
type PendingBatch struct {
	ID                 uint64      `json:"id"`
	SharesToBurn       sdkmath.Int `json:"shares_to_burn"`        // Running total of requested shares
	EstUnbondStartTime uint64      `json:"est_unbond_start_time"` // Eligible for submission once block time passes this
}

// Batch is a submitted epoch. UnderlyingUnclaimed shrinks with reconciliation and withdrawals.
type Batch struct {
	ID                  uint64      `json:"id"`
	Reconciled          bool        `json:"reconciled"`
	TotalShares         sdkmath.Int `json:"total_shares"`
	UnderlyingUnclaimed sdkmath.Int `json:"utoken_unclaimed"`
	EstUnbondEndTime    uint64      `json:"est_unbond_end_time"`
}

// Matured reports whether the batch's unbonding period has elapsed at now.
func (b Batch) Matured(now uint64) bool {
	return now > b.EstUnbondEndTime
}

// UnbondRequest is one user's accumulated shares in one batch.
type UnbondRequest struct {
	ID     uint64      `json:"id"`
	User   string      `json:"user"`
	Shares sdkmath.Int `json:"shares"`
}
