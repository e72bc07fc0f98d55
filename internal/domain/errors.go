package domain

import "errors"

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotSettled         = errors.New("booking not settled")
	ErrAlreadyReleased    = errors.New("payment already released")
	ErrValidation         = errors.New("validation error")

	ErrNotFound  = errors.New("booking not found")
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a concurrent writer changed the booking first.
	ErrConflict = errors.New("concurrent update")
)
