// Package booking implements the core business logic: issuing checkout
// preferences for reservations and reconciling payment webhooks against the
// provider's canonical payment records.
package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/domain"
)

const defaultGatewayTimeout = 10 * time.Second

// Service orchestrates between the reservation store and the payment gateway.
type Service struct {
	store          domain.ReservationStore
	gateway        domain.PaymentGateway
	logger         *zap.Logger
	gatewayTimeout time.Duration
}

// NewService creates a booking service with the required dependencies.
func NewService(store domain.ReservationStore, gateway domain.PaymentGateway, logger *zap.Logger) *Service {
	return &Service{
		store:          store,
		gateway:        gateway,
		logger:         logger,
		gatewayTimeout: defaultGatewayTimeout,
	}
}

// CreateCheckout handles the booking flow:
// 1. Validates the booking fields
// 2. Persists a pending reservation
// 3. Creates a checkout preference with the reservation id as external reference
// 4. Attaches the preference id and returns the init_point URL
//
// On gateway failure the reservation row is kept in pending state with no
// preference attached: it stays visible to an administrator as the recovery
// signal for a manual retry, and the error propagates to the caller.
func (s *Service) CreateCheckout(ctx context.Context, params domain.NewReservation) (*domain.CheckoutPreference, error) {
	if err := validateBooking(params); err != nil {
		return nil, err
	}

	reservation, err := s.store.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create reservation", zap.Error(err))
		return nil, err
	}

	if reservation.PreferenceID != nil {
		// Idempotent replay: the reservation already went through checkout.
		s.logger.Info("reservation already has a preference attached",
			zap.String("reservation_id", reservation.ID),
			zap.String("preference_id", *reservation.PreferenceID),
		)
		return nil, domain.NewBookingError(domain.ErrConflict,
			"reservation already has a checkout attached", "ALREADY_ISSUED")
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	preference, err := s.gateway.CreatePreference(gctx, reservation)
	if err != nil {
		s.logger.Error("failed to create preference",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.store.AttachPreference(ctx, reservation.ID, preference.ID); err != nil {
		s.logger.Error("failed to attach preference",
			zap.String("reservation_id", reservation.ID),
			zap.String("preference_id", preference.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("created checkout preference",
		zap.String("reservation_id", reservation.ID),
		zap.String("preference_id", preference.ID),
		zap.Int64("price", reservation.Price),
	)

	return preference, nil
}

// ProcessNotification reconciles an inbound payment notification.
//
// The notification payload is never trusted: the canonical payment is fetched
// from the provider and its status alone decides the transition. The
// conditional store write guarantees at most one transition per reservation
// regardless of duplicate, concurrent, or out-of-order deliveries.
//
// A nil return means the notification was handled to completion; the HTTP
// layer acknowledges with 2xx in every case, so a non-nil return is only a
// logging signal, never a redelivery request.
func (s *Service) ProcessNotification(ctx context.Context, n domain.PaymentNotification) error {
	if n.PaymentID == "" {
		s.logger.Debug("notification without payment id, discarding")
		return nil
	}

	if n.Type != "" && n.Type != "payment" {
		s.logger.Debug("ignoring non-payment notification", zap.String("type", n.Type))
		return nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	info, err := s.gateway.GetPayment(gctx, n.PaymentID)
	if err != nil {
		// Transient provider failure: acknowledge anyway. Refusing the
		// notification would trigger unbounded redelivery; the reconciliation
		// sweep revisits the reservation later.
		s.logger.Warn("could not fetch canonical payment, acknowledging",
			zap.String("payment_id", n.PaymentID),
			zap.Error(err),
		)
		return nil
	}

	if info.ExternalReference == "" {
		s.logger.Warn("payment has no external reference",
			zap.String("payment_id", n.PaymentID))
		return nil
	}

	reservation, err := s.store.Get(ctx, info.ExternalReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown or already-deleted reservation is not an error.
			s.logger.Info("notification for unknown reservation, discarding",
				zap.String("payment_id", n.PaymentID),
				zap.String("external_reference", info.ExternalReference),
			)
			return nil
		}
		return err
	}

	return s.applyCanonicalStatus(ctx, reservation.ID, info)
}

// applyCanonicalStatus maps the provider status to a domain status and applies
// the conditional transition. Shared by the webhook path and the sweeper.
func (s *Service) applyCanonicalStatus(ctx context.Context, reservationID string, info *domain.PaymentInfo) error {
	target, ok := mapPaymentStatus(info.Status)
	if !ok {
		// Not terminal at the provider yet; wait for a later notification.
		s.logger.Debug("payment not in a terminal status",
			zap.String("payment_id", info.PaymentID),
			zap.String("status", info.Status),
		)
		return nil
	}

	applied, err := s.store.TransitionIfPending(ctx, reservationID, target)
	if err != nil {
		s.logger.Error("failed to transition reservation",
			zap.String("reservation_id", reservationID),
			zap.Error(err),
		)
		return err
	}

	if applied {
		s.logger.Info("reservation transitioned",
			zap.String("reservation_id", reservationID),
			zap.String("payment_id", info.PaymentID),
			zap.String("status", string(target)),
		)
	} else {
		// Already terminal: duplicate or late notification, nothing to do.
		s.logger.Info("reservation already settled, skipping",
			zap.String("reservation_id", reservationID),
			zap.String("payment_id", info.PaymentID),
		)
	}
	return nil
}

// ListReservations returns all reservations, newest first.
func (s *Service) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.store.List(ctx)
}

// mapPaymentStatus maps a canonical provider status to the target reservation
// status. The second return is false when no transition should be attempted.
func mapPaymentStatus(status string) (domain.ReservationStatus, bool) {
	switch status {
	case domain.PaymentStatusApproved:
		return domain.StatusPaid, true
	case domain.PaymentStatusRejected, domain.PaymentStatusCancelled:
		return domain.StatusFailed, true
	default:
		return "", false
	}
}

// validateBooking performs basic validation on the booking fields.
func validateBooking(params domain.NewReservation) error {
	if params.Professional == "" {
		return domain.NewBookingError(domain.ErrValidation,
			"professional is required", "VALIDATION_ERROR")
	}
	if params.Category == "" {
		return domain.NewBookingError(domain.ErrValidation,
			"category is required", "VALIDATION_ERROR")
	}
	if params.City == "" {
		return domain.NewBookingError(domain.ErrValidation,
			"city is required", "VALIDATION_ERROR")
	}
	if params.Price <= 0 {
		return domain.NewBookingError(domain.ErrValidation,
			"price must be a positive integer", "VALIDATION_ERROR")
	}
	return nil
}
