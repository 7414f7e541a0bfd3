package errors

import "errors"

var (
	ErrNotFound = errors.New("hold not found")

	ErrInvalidID = errors.New("invalid hold ID format")

	ErrHoldExpired = errors.New("hold has expired")

	ErrHoldNotPending = errors.New("hold is not pending")

	ErrLockBusy = errors.New("range lock is held by another writer")

	ErrLockNotHeld = errors.New("range lock is not held by this token")

	ErrInsufficientCapacity = errors.New("insufficient capacity for requested dates")

	ErrWindowNotOpen = errors.New("one or more dates are outside the selling window")

	ErrInvariantViolation = errors.New("ledger counters would violate the capacity invariant")
)
