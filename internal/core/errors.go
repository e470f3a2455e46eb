package core

import "errors"

// Subscription operation errors. Every rejected precondition maps to one of
// these so callers can distinguish retriable outcomes (interval not yet
// elapsed) from permanent ones (cancelled, account mismatch).
var (
	// ErrNotActive rejects charge/update on a cancelled record.
	ErrNotActive = errors.New("subscription is not active")
	// ErrExpired rejects a charge at or past the record's expiry.
	ErrExpired = errors.New("subscription has expired")
	// ErrIntervalNotElapsed rejects a charge before interval_seconds have
	// passed since the last successful charge.
	ErrIntervalNotElapsed = errors.New("charge interval has not elapsed")
	// ErrAlreadyCancelled rejects a second cancel.
	ErrAlreadyCancelled = errors.New("subscription already cancelled")
	// ErrStillActive rejects cleanup of a record that was never cancelled.
	ErrStillActive = errors.New("subscription is still active")
	// ErrAccountMismatch rejects a charge whose presented funds accounts do
	// not match the ones recorded at initialization.
	ErrAccountMismatch = errors.New("funds account does not match subscription")
	// ErrTransferFailed wraps a ledger failure during a charge; the whole
	// operation rolls back, so no schedule state advances.
	ErrTransferFailed = errors.New("funds transfer failed")

	// ErrNotOwner rejects cancel/update from anyone but the record's owner.
	ErrNotOwner = errors.New("caller is not the subscription owner")
	// ErrAlreadyExists rejects initialize when a record already occupies the
	// derived (owner, recipient) address.
	ErrAlreadyExists = errors.New("subscription already exists for this owner and recipient")
	// ErrNotFound is returned for lookups of unknown records or accounts.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument rejects malformed initialize/update parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)
