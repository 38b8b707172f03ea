package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrDuplicateBooking = errors.New("an active booking already exists for this slot")

	ErrInvalidStatus = errors.New("invalid booking status")

	ErrStatusChanged = errors.New("booking status changed concurrently")
)
