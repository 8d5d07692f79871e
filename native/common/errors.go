package common

import "errors"

// The ledger surfaces every failure as one of four kinds. Module packages wrap
// these sentinels with a more specific cause so callers can branch on either
// level with errors.Is.
var (
	// ErrValidation covers malformed or unknown inputs: unsupported tokens,
	// unknown providers or payments, non-positive amounts.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized covers callers lacking the required identity: non-admin
	// registry mutation, non-provider refund.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrState covers operations illegal in the current ledger state: double
	// refunds, insufficient loyalty balances.
	ErrState = errors.New("invalid state")
	// ErrTransfer covers failures reported by the external transfer
	// capability. The ledger never retries; the operation unwinds and the
	// caller decides.
	ErrTransfer = errors.New("transfer failed")
)
