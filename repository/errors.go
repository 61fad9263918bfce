package repository

import "errors"

// Sentinel errors surfaced to the request boundary.
var (
	// ErrDuplicateUsername reports a registration with a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail reports a registration with a taken email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyPurchased reports a second purchase of the same beat.
	ErrAlreadyPurchased = errors.New("beat already purchased")
)
