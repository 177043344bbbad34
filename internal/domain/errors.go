// Package domain contains the core business entities and interfaces for the booking service.
package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrValidation is returned when a booking request carries bad input.
	// It is never retried and surfaces to the caller as a 4xx.
	ErrValidation = errors.New("invalid booking data")

	// ErrNotFound is returned when a reservation (or admin) does not exist.
	// Benign in the webhook path, an error in the admin-lookup path.
	ErrNotFound = errors.New("not found")

	// ErrGatewayUnavailable is returned when the payment provider cannot be
	// reached or answers with a transient failure.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected is returned when the payment provider refuses the request.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")

	// ErrUnauthorized is returned when admin credentials are invalid.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrConflict is returned when a request replays work that already
	// completed, e.g. an idempotency key whose reservation already has a
	// checkout attached.
	ErrConflict = errors.New("conflicting state")
)

// BookingError wraps a domain error with additional context.
type BookingError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *BookingError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with BookingError.
func (e *BookingError) Unwrap() error {
	return e.Err
}

// NewBookingError creates a new BookingError with the given error and message.
func NewBookingError(err error, message, code string) *BookingError {
	return &BookingError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
