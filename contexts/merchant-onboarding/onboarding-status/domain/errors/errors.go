package errors

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNoStore             = errors.New("no store for user")
	ErrDatabase            = errors.New("database error")
	ErrInvalidStatus       = errors.New("invalid onboarding status")
	ErrIdempotencyConflict = errors.New("event id reused with different payload")
)
