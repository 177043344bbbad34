// Package domain contains the core business entities and interfaces for the booking service.
// This is the innermost layer of the Clean Architecture - it has no dependencies on
// external frameworks or infrastructure.
package domain

import "time"

// ReservationStatus is the lifecycle state of a reservation.
// pending is the only non-terminal state: once a reservation is paid or
// failed it never transitions again.
type ReservationStatus string

const (
	StatusPending ReservationStatus = "pending"
	StatusPaid    ReservationStatus = "paid"
	StatusFailed  ReservationStatus = "failed"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// Reservation represents a booking request for a professional service,
// tracked through payment.
type Reservation struct {
	ID             string            `json:"id"`
	Professional   string            `json:"professional"`
	Category       string            `json:"category"`
	City           string            `json:"city"`
	Price          int64             `json:"price"` // smallest currency unit (COP has none)
	Status         ReservationStatus `json:"status"`
	PreferenceID   *string           `json:"preference_id"`
	IdempotencyKey *string           `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewReservation carries the fields needed to create a reservation.
// IdempotencyKey is optional: when set, creation is a get-or-insert on the key.
type NewReservation struct {
	Professional   string
	Category       string
	City           string
	Price          int64
	IdempotencyKey *string
}

// CheckoutPreference represents a created payment provider preference.
type CheckoutPreference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"` // URL to redirect the user for payment
}

// PaymentNotification represents an incoming webhook from the payment provider.
// Only the payment id is used: every other payload field is untrusted and the
// canonical payment is always re-fetched from the provider.
type PaymentNotification struct {
	PaymentID string `json:"payment_id"`
	Type      string `json:"type"`   // "payment", "merchant_order", etc.
	Action    string `json:"action"` // "payment.created", "payment.updated", etc.
	LiveMode  bool   `json:"live_mode"`
}

// Canonical payment statuses as reported by the provider.
const (
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusPending   = "pending"
)

// PaymentInfo is the canonical payment record fetched directly from the
// provider, as opposed to the state asserted in a notification payload.
type PaymentInfo struct {
	PaymentID         string    `json:"payment_id"`
	Status            string    `json:"status"`
	StatusDetail      string    `json:"status_detail"`
	ExternalReference string    `json:"external_reference"` // our reservation id
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	DateApproved      time.Time `json:"date_approved"`
}

// Admin is a back-office user allowed to list reservations.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
