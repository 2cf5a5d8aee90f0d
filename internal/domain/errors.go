package domain

import "errors"

// Validation errors shared across repositories and services.
var (
	ErrInvalidEmail    = errors.New("contact email is invalid")
	ErrScoreOutOfRange = errors.New("engagement score outside [0, 100]")
)
