// Package domain contains the core business entities and interfaces for the booking service.
package domain

import (
	"context"
	"time"
)

// ReservationStore is the sole writer of reservation rows. Services request
// writes through it and never mutate records directly; every access is by id.
type ReservationStore interface {
	// Create inserts a reservation in pending state with no preference attached.
	// When params carry an idempotency key that is already stored, the existing
	// reservation is returned instead of inserting a duplicate.
	Create(ctx context.Context, params NewReservation) (*Reservation, error)

	// AttachPreference sets the external preference id exactly once.
	// Calling it on a reservation that already has a preference is a no-op:
	// preference issuance itself is not guaranteed to run exactly once.
	AttachPreference(ctx context.Context, id, preferenceID string) error

	// TransitionIfPending atomically updates status to target only if the
	// current stored status is pending, and reports whether the write took
	// effect. This compare-and-set is the only way status is ever mutated,
	// which is what makes concurrent webhook delivery safe.
	TransitionIfPending(ctx context.Context, id string, target ReservationStatus) (bool, error)

	// Get retrieves a reservation by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Reservation, error)

	// List returns all reservations ordered by creation time, newest first.
	List(ctx context.Context) ([]Reservation, error)

	// ListStalePending returns pending reservations created before olderThan
	// that have a preference attached. Used by the reconciliation sweep.
	ListStalePending(ctx context.Context, olderThan time.Time) ([]Reservation, error)
}

// PaymentGateway abstracts the external payment provider. It is treated as an
// untrusted, possibly-slow, possibly-failing remote dependency: every call
// must be bounded by the context deadline.
type PaymentGateway interface {
	// CreatePreference creates a checkout preference for the reservation.
	// externalReference must be the reservation id so the webhook path can
	// resolve the reservation from the canonical payment.
	CreatePreference(ctx context.Context, reservation *Reservation) (*CheckoutPreference, error)

	// GetPayment retrieves the canonical payment by provider payment id.
	// This is the only trusted source of payment status.
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)

	// SearchByReference finds payments whose external reference equals ref.
	// Used by the reconciliation sweep to revisit stale pending reservations.
	SearchByReference(ctx context.Context, ref string) ([]PaymentInfo, error)
}

// AdminStore persists back-office users.
type AdminStore interface {
	// FirstAdmin returns the oldest admin row. Returns ErrNotFound when the
	// table is empty.
	FirstAdmin(ctx context.Context) (*Admin, error)

	// CreateAdmin inserts an admin with a bcrypt password hash.
	CreateAdmin(ctx context.Context, email, passwordHash string) (*Admin, error)
}
