// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
	"time"
)

// Service errors.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrQuotaExceeded  = errors.New("rate limit exceeded")
	ErrNoteNotFound   = errors.New("note not found")
	ErrForbidden      = errors.New("forbidden")
)

// ValidationError is an invalid request with a caller-facing message.
// It matches ErrInvalidRequest.
type ValidationError struct {
	Message string
	Detail  string // for logs only
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

// Is reports whether target is ErrInvalidRequest.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// QuotaExceededError carries the daily limit and the instant it resets.
// It matches ErrQuotaExceeded.
type QuotaExceededError struct {
	Limit   int
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily limit of %d reached, resets at %s", e.Limit, e.ResetAt.Format(time.RFC3339))
}

// Is reports whether target is ErrQuotaExceeded.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
