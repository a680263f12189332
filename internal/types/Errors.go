/*

This file contains the registered error taxonomy of the vault contracts and its classification
into the kinds callers act on (validation, timing, arithmetic, consistency, ...).

*/

package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/utils"
)

const Codespace = "lstvault"

// Validation
var (
	ErrInvalidDeposit             = errorsmod.Register(Codespace, 2, "invalid deposit")
	ErrDonationsDisabled          = errorsmod.Register(Codespace, 3, "donations are disabled")
	ErrExpectingShareToken        = errorsmod.Register(Codespace, 4, "expecting share token")
	ErrInvalidZeroAmount          = errorsmod.Register(Codespace, 5, "amount must not be zero")
	ErrInvalidFunds               = errorsmod.Register(Codespace, 6, "invalid funds")
	ErrInvalidConfig              = errorsmod.Register(Codespace, 7, "invalid config")
	ErrUnauthorized               = errorsmod.Register(Codespace, 8, "unauthorized")
	ErrUnauthorizedNotWhitelisted = errorsmod.Register(Codespace, 9, "sender is not whitelisted")
	ErrCallbackOnlyByContract     = errorsmod.Register(Codespace, 10, "callbacks can only be invoked by the contract itself")
	ErrUnknownMessage             = errorsmod.Register(Codespace, 11, "unknown message")
	ErrAssertionMinimumReceive    = errorsmod.Register(Codespace, 12, "received less than minimum")
	ErrDuplicateAsset             = errorsmod.Register(Codespace, 13, "duplicate asset")
	ErrNotEnoughProfit            = errorsmod.Register(Codespace, 14, "not enough profit")
	ErrNotEnoughFundsTakeable     = errorsmod.Register(Codespace, 15, "not enough funds takeable for the wanted profit")
	ErrNotSupportedProfitStep     = errorsmod.Register(Codespace, 16, "profit step not supported")
	ErrCannotCallLsdContract      = errorsmod.Register(Codespace, 17, "cannot call an lsd contract")
	ErrLsdDisabled                = errorsmod.Register(Codespace, 18, "lsd is disabled")
	ErrNoValidators               = errorsmod.Register(Codespace, 19, "no validators configured")
)

// Timing and nothing-to-do
var (
	ErrSubmitBatchTooEarly      = errorsmod.Register(Codespace, 30, "submit batch too early")
	ErrNothingWithdrawable      = errorsmod.Register(Codespace, 31, "nothing withdrawable")
	ErrNoWithdrawableAsset      = errorsmod.Register(Codespace, 32, "no withdrawable asset")
	ErrNotEnoughAssetsInThePool = errorsmod.Register(Codespace, 33, "not enough assets in the pool")
	ErrNoTokensAvailable        = errorsmod.Register(Codespace, 34, "no tokens available")
	ErrNothingToWithdraw        = errorsmod.Register(Codespace, 35, "nothing to withdraw")
	ErrNothingToUnbond          = errorsmod.Register(Codespace, 36, "nothing to unbond")
	ErrAlreadyExecuting         = errorsmod.Register(Codespace, 37, "already executing")
	ErrNotExecuting             = errorsmod.Register(Codespace, 38, "not executing")
	ErrDoNotTakeLockedBalance   = errorsmod.Register(Codespace, 39, "do not take locked balance")
)

// Consistency
var (
	ErrNotFound                   = errorsmod.Register(Codespace, 50, "not found")
	ErrBatchNotFound              = errorsmod.Register(Codespace, 51, "batch not found")
	ErrReconcileShortfall         = errorsmod.Register(Codespace, 52, "shortfall exceeds what matured batches are owed")
	ErrAllocationMismatch         = errorsmod.Register(Codespace, 53, "allocation does not match the requested amount")
	ErrProfitBalancesDoesNotMatch = errorsmod.Register(Codespace, 54, "profit balances do not match")
	ErrAdapterNotFound            = errorsmod.Register(Codespace, 55, "adapter not found")
	ErrInsufficientBalance        = errorsmod.Register(Codespace, 56, "insufficient balance")
)

// ErrorKind groups errors by how a caller recovers from them.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindTiming       ErrorKind = "timing"
	KindArithmetic   ErrorKind = "arithmetic"
	KindNotFound     ErrorKind = "not_found"
	KindConsistency  ErrorKind = "consistency"
	KindInternal     ErrorKind = "internal"
)

var kindTable = []struct {
	kind ErrorKind
	errs []error
}{
	{KindUnauthorized, []error{ErrUnauthorized, ErrUnauthorizedNotWhitelisted, ErrCallbackOnlyByContract}},
	{KindValidation, []error{
		ErrInvalidDeposit, ErrDonationsDisabled, ErrExpectingShareToken, ErrInvalidZeroAmount,
		ErrInvalidFunds, ErrInvalidConfig, ErrUnknownMessage, ErrAssertionMinimumReceive,
		ErrDuplicateAsset, ErrNotEnoughProfit, ErrNotEnoughFundsTakeable, ErrNotSupportedProfitStep,
		ErrCannotCallLsdContract, ErrLsdDisabled, ErrNoValidators,
	}},
	{KindTiming, []error{
		ErrSubmitBatchTooEarly, ErrNothingWithdrawable, ErrNoWithdrawableAsset, ErrNotEnoughAssetsInThePool,
		ErrNoTokensAvailable, ErrNothingToWithdraw, ErrNothingToUnbond, ErrAlreadyExecuting, ErrNotExecuting,
		ErrDoNotTakeLockedBalance,
	}},
	{KindArithmetic, []error{utils.ErrOverflow, utils.ErrUnderflow, utils.ErrDivideByZero}},
	{KindNotFound, []error{ErrNotFound, ErrBatchNotFound, ErrAdapterNotFound, store.ErrNotFound}},
	{KindConsistency, []error{ErrReconcileShortfall, ErrAllocationMismatch, ErrProfitBalancesDoesNotMatch, ErrInsufficientBalance}},
}

// KindOf classifies err. Unregistered errors are internal.
func KindOf(err error) ErrorKind {
	for _, row := range kindTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.kind
			}
		}
	}
	return KindInternal
}

// ErrorCode returns the registered code of err, or 1 (internal) when it has none.
func ErrorCode(err error) uint32 {
	_, code, _ := errorsmod.ABCIInfo(err, false)
	return code
}
