package errors

import "errors"

var (
	ErrSlotUnavailable = errors.New("slot is not available")

	ErrDuplicateBooking = errors.New("slot already has an active booking")

	ErrIllegalTransition = errors.New("booking status transition is not allowed")
)
