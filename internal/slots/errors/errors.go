package errors

import "errors"

var (
	ErrIncompleteKey = errors.New("slot key requires expert id, date and time")

	ErrInvalidState = errors.New("slot has an unknown state")
)
