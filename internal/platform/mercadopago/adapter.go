// Package mercadopago implements the domain.PaymentGateway interface using the Mercado Pago SDK.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	sdkconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/profixa/profixa-backend/internal/domain"
)

// Config holds everything the adapter needs. It is passed by value at
// construction; the adapter keeps no process-wide mutable SDK state.
type Config struct {
	AccessToken     string
	CurrencyID      string // e.g. "COP"
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
}

// Adapter implements domain.PaymentGateway using the Mercado Pago SDK.
type Adapter struct {
	cfg         Config
	preferences preference.Client
	payments    payment.Client
}

// NewAdapter creates a Mercado Pago adapter. The SDK clients are built once
// from the explicit config instead of a shared singleton.
func NewAdapter(cfg Config) (*Adapter, error) {
	sdkCfg, err := sdkconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	if cfg.CurrencyID == "" {
		cfg.CurrencyID = "COP"
	}
	return &Adapter{
		cfg:         cfg,
		preferences: preference.NewClient(sdkCfg),
		payments:    payment.NewClient(sdkCfg),
	}, nil
}

// CreatePreference creates a Checkout Pro preference for the reservation.
// external_reference carries the reservation id so the webhook path can
// resolve the reservation from the canonical payment.
func (a *Adapter) CreatePreference(ctx context.Context, r *domain.Reservation) (*domain.CheckoutPreference, error) {
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      fmt.Sprintf("%s - %s", r.Category, r.Professional),
				Quantity:   1,
				UnitPrice:  float64(r.Price),
				CurrencyID: a.cfg.CurrencyID,
			},
		},
		ExternalReference: r.ID,
		AutoReturn:        "approved",
		BackURLs: &preference.BackURLsRequest{
			Success: a.cfg.SuccessURL,
			Failure: a.cfg.FailureURL,
			Pending: a.cfg.PendingURL,
		},
		NotificationURL: a.cfg.NotificationURL,
	}

	result, err := a.preferences.Create(ctx, request)
	if err != nil {
		return nil, gatewayError(err, "failed to create preference")
	}

	return &domain.CheckoutPreference{
		ID:        result.ID,
		InitPoint: result.InitPoint,
	}, nil
}

// GetPayment retrieves the canonical payment record by provider payment id.
func (a *Adapter) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentInfo, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, domain.NewBookingError(domain.ErrValidation,
			"invalid payment id format", "INVALID_PAYMENT_ID")
	}

	result, err := a.payments.Get(ctx, id)
	if err != nil {
		return nil, gatewayError(err, "failed to get payment")
	}

	return toPaymentInfo(paymentID, result), nil
}

// SearchByReference finds payments whose external_reference equals ref.
func (a *Adapter) SearchByReference(ctx context.Context, ref string) ([]domain.PaymentInfo, error) {
	result, err := a.payments.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{"external_reference": ref},
	})
	if err != nil {
		return nil, gatewayError(err, "failed to search payments")
	}

	infos := make([]domain.PaymentInfo, 0, len(result.Results))
	for i := range result.Results {
		p := &result.Results[i]
		infos = append(infos, *toPaymentInfo(strconv.Itoa(p.ID), p))
	}
	return infos, nil
}

func toPaymentInfo(paymentID string, p *payment.Response) *domain.PaymentInfo {
	return &domain.PaymentInfo{
		PaymentID:         paymentID,
		Status:            p.Status,
		StatusDetail:      p.StatusDetail,
		ExternalReference: p.ExternalReference,
		Amount:            p.TransactionAmount,
		Currency:          p.CurrencyID,
		DateApproved:      p.DateApproved,
	}
}

// gatewayError classifies SDK failures. Context expiry is a transient outage;
// anything else from the provider is treated the same way for transition
// purposes - a failed call is never a negative payment outcome.
func gatewayError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewBookingError(domain.ErrGatewayUnavailable, msg+": timeout", "GATEWAY_TIMEOUT")
	}
	return domain.NewBookingError(domain.ErrGatewayUnavailable, msg+": "+err.Error(), "GATEWAY_ERROR")
}
