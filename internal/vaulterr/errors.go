// Package vaulterr defines the error taxonomy shared by every vault
// operation. All failures are discriminable via errors.Is against one
// of these sentinels; a failed operation always leaves state unchanged.
package vaulterr

import "errors"

var (
	// ErrUnauthorized: caller lacks the required role or is not the
	// adapter's authorized caller.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrInvalidArgument: null/zero identifier, recipient, or amount.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound: adapter id or asset not registered/held.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds: requested amount exceeds the custodied
	// balance or granted allowance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSlippage: realized swap output below the requested minimum.
	ErrSlippage = errors.New("insufficient output")

	// ErrExternalCall: a forwarded adapter or venue call failed.
	ErrExternalCall = errors.New("external call failed")

	// ErrAlreadyExists: duplicate adapter registration.
	ErrAlreadyExists = errors.New("already exists")

	// ErrReentrant: a state-mutating entry point was re-entered while
	// an operation was in flight.
	ErrReentrant = errors.New("reentrant call")
)

// Reason maps an error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrSlippage):
		return "slippage"
	case errors.Is(err, ErrExternalCall):
		return "external_call"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrReentrant):
		return "reentrant"
	default:
		return "internal"
	}
}
