package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrAlreadyExists = errors.New("slot already provisioned")

	ErrVersionMismatch = errors.New("slot version mismatch")

	ErrStoreUnavailable = errors.New("slot store unavailable")
)
