package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/domain"
)

// Sweeper periodically revisits stale pending reservations. A notification
// whose canonical status lookup failed is acknowledged without a transition,
// so without the sweep such reservations would stay pending forever. Each
// pass re-queries the provider by reservation id and applies the same
// conditional transition the webhook path uses.
type Sweeper struct {
	service  *Service
	store    domain.ReservationStore
	gateway  domain.PaymentGateway
	logger   *zap.Logger
	interval time.Duration
	minAge   time.Duration
}

// NewSweeper creates a reconciliation sweeper. interval is the time between
// passes; minAge is how old a pending reservation must be before it is
// revisited, which keeps the sweep from racing freshly issued checkouts.
func NewSweeper(service *Service, store domain.ReservationStore, gateway domain.PaymentGateway,
	logger *zap.Logger, interval, minAge time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		store:    store,
		gateway:  gateway,
		logger:   logger,
		interval: interval,
		minAge:   minAge,
	}
}

// Run executes sweep passes until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("starting reconciliation sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("min_age", s.minAge),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciliation sweeper stopping")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep pass failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs a single reconciliation pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	stale, err := s.store.ListStalePending(ctx, time.Now().Add(-s.minAge))
	if err != nil {
		return err
	}

	for _, reservation := range stale {
		if err := s.reconcile(ctx, &reservation); err != nil {
			// Keep going: one unreachable payment must not starve the rest.
			s.logger.Warn("could not reconcile reservation",
				zap.String("reservation_id", reservation.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Sweeper) reconcile(ctx context.Context, reservation *domain.Reservation) error {
	gctx, cancel := context.WithTimeout(ctx, s.service.gatewayTimeout)
	defer cancel()

	payments, err := s.gateway.SearchByReference(gctx, reservation.ID)
	if err != nil {
		return err
	}

	for i := range payments {
		info := &payments[i]
		if err := s.service.applyCanonicalStatus(ctx, reservation.ID, info); err != nil {
			return err
		}
	}
	return nil
}
