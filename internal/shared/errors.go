package shared

import "errors"

var (
	// ErrNotFound indicates a referenced document, client or product is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus indicates a lifecycle precondition failed.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrValidation indicates invalid input, such as a payment amount out of bounds.
	ErrValidation = errors.New("validation failed")
	// ErrIntegration indicates the remote commerce API is unreachable or returned an error.
	ErrIntegration = errors.New("integration error")
	// ErrForbidden indicates the actor lacks the required permission.
	ErrForbidden = errors.New("forbidden")
)
