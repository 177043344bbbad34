// Package resilience wraps the payment gateway with a circuit breaker so a
// degraded provider fails fast instead of tying up request handlers.
package resilience

import (
	"context"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/domain"
)

// BreakerGateway decorates a domain.PaymentGateway with a gobreaker circuit
// breaker. While the breaker is open, calls return ErrGatewayUnavailable
// immediately without touching the provider.
type BreakerGateway struct {
	next    domain.PaymentGateway
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerGateway wraps next with a circuit breaker.
func NewBreakerGateway(next domain.PaymentGateway, logger *zap.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name: "payment-gateway",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, domain.NewBookingError(domain.ErrGatewayUnavailable,
				"payment gateway circuit open", "GATEWAY_CIRCUIT_OPEN")
		}
		return zero, err
	}
	return res.(T), nil
}

// CreatePreference forwards through the breaker.
func (g *BreakerGateway) CreatePreference(ctx context.Context, r *domain.Reservation) (*domain.CheckoutPreference, error) {
	return execute(g.breaker, func() (*domain.CheckoutPreference, error) {
		return g.next.CreatePreference(ctx, r)
	})
}

// GetPayment forwards through the breaker.
func (g *BreakerGateway) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentInfo, error) {
	return execute(g.breaker, func() (*domain.PaymentInfo, error) {
		return g.next.GetPayment(ctx, paymentID)
	})
}

// SearchByReference forwards through the breaker.
func (g *BreakerGateway) SearchByReference(ctx context.Context, ref string) ([]domain.PaymentInfo, error) {
	return execute(g.breaker, func() ([]domain.PaymentInfo, error) {
		return g.next.SearchByReference(ctx, ref)
	})
}
