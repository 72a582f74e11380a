package storage

import "errors"

// Storage errors.
var (
	// ErrUnavailable is returned (wrapped) when the database cannot be
	// reached or a query fails.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
