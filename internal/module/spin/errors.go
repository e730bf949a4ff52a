package spin

import "errors"

// Module errors.
var (
	ErrUserNotFound     = errors.New("user record not found")
	ErrNoSpinsRemaining = errors.New("no spins remaining")
	ErrEmptyUserID      = errors.New("user id is required")
)
