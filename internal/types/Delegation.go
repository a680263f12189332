/*

This file contains the staking position types exchanged between the staking backend, the
allocation planner and the hub.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Delegation is the amount bonded to one validator (or drawn from it, in an undelegation plan).
type Delegation struct {
	Validator string      `json:"validator"`
	Amount    sdkmath.Int `json:"amount"`
}

// Redelegation moves Amount from Src to Dst.
type Redelegation struct {
	Src    string      `json:"src"`
	Dst    string      `json:"dst"`
	Amount sdkmath.Int `json:"amount"`
}

// TotalDelegated sums the delegated amounts.
func TotalDelegated(delegations []Delegation) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, d := range delegations {
		if !d.Amount.IsNil() {
			total = total.Add(d.Amount)
		}
	}
	return total
}
