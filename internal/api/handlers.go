// Package api contains the HTTP handlers and routing for the booking service.
package api

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/admin"
	"github.com/profixa/profixa-backend/internal/domain"
)

// BookingService is the booking surface the handlers need.
type BookingService interface {
	CreateCheckout(ctx context.Context, params domain.NewReservation) (*domain.CheckoutPreference, error)
	ProcessNotification(ctx context.Context, n domain.PaymentNotification) error
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
}

// AuthService is the admin auth surface the handlers need.
type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(token string) (*admin.Claims, error)
}

// SignatureValidator validates provider webhook signatures.
type SignatureValidator interface {
	ValidateSignature(xSignature, xRequestID, dataID, secret string) bool
}

// Handler contains the HTTP handlers for the booking API.
type Handler struct {
	bookings      BookingService
	auth          AuthService
	validator     SignatureValidator
	webhookSecret string
	logger        *zap.Logger
}

// NewHandler creates an API handler.
func NewHandler(bookings BookingService, auth AuthService, validator SignatureValidator,
	webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		bookings:      bookings,
		auth:          auth,
		validator:     validator,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// BookingRequest represents the JSON body for the booking endpoint.
// Spanish field names are accepted alongside English ones; the original
// clients send profesional/categoria/ciudad/precio.
type BookingRequest struct {
	Profesional  string   `json:"profesional"`
	Professional string   `json:"professional"`
	Categoria    string   `json:"categoria"`
	Category     string   `json:"category"`
	Ciudad       string   `json:"ciudad"`
	City         string   `json:"city"`
	Precio       *float64 `json:"precio"`
	Price        *float64 `json:"price"`
}

// BookingResponse represents the response from the booking endpoint.
type BookingResponse struct {
	InitPoint     string `json:"init_point"`
	ReservationID string `json:"reservation_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateBooking handles POST /crear-preferencia.
// Persists a pending reservation, creates a checkout preference, and returns
// the init_point URL to redirect the client to.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	price, ok := wholePrice(coalesceFloat(req.Precio, req.Price))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "price must be a positive integer",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	params := domain.NewReservation{
		Professional: coalesce(req.Profesional, req.Professional),
		Category:     coalesce(req.Categoria, req.Category),
		City:         coalesce(req.Ciudad, req.City),
		Price:        price,
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		params.IdempotencyKey = &key
	}

	preference, err := h.bookings.CreateCheckout(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingResponse{
		InitPoint:     preference.InitPoint,
		ReservationID: preference.ID,
	})
}

// WebhookRequest represents the JSON body the provider posts to the webhook.
type WebhookRequest struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
	LiveMode    bool   `json:"live_mode"`
	DateCreated string `json:"date_created"`
}

// HandleWebhook handles POST /webhook.
// The provider delivers at-least-once and retries on non-2xx, so this
// endpoint acknowledges with 200 in every case; failures only get logged.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The provider sends several payload shapes; log and accept.
		h.logger.Warn("webhook parsing error", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	if h.webhookSecret != "" {
		xSignature := c.GetHeader("x-signature")
		xRequestID := c.GetHeader("x-request-id")
		if !h.validator.ValidateSignature(xSignature, xRequestID, req.Data.ID, h.webhookSecret) {
			h.logger.Warn("webhook signature validation failed",
				zap.String("payment_id", req.Data.ID))
			c.JSON(http.StatusOK, gin.H{"status": "discarded"})
			return
		}
	}

	notification := domain.PaymentNotification{
		PaymentID: req.Data.ID,
		Type:      req.Type,
		Action:    req.Action,
		LiveMode:  req.LiveMode,
	}

	if err := h.bookings.ProcessNotification(c.Request.Context(), notification); err != nil {
		h.logger.Error("webhook processing error",
			zap.String("payment_id", req.Data.ID),
			zap.Error(err),
		)
		// Still 200: redelivery would not fix an internal error.
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// ListReservations handles GET /reservas (admin only).
func (h *Handler) ListReservations(c *gin.Context) {
	reservations, err := h.bookings.ListReservations(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	c.JSON(http.StatusOK, reservations)
}

// LoginRequest represents the JSON body for the admin login endpoint.
type LoginRequest struct {
	Password string `json:"password"`
}

// AdminLogin handles POST /admin-login.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "profixa-backend",
	})
}

// handleServiceError maps domain errors to HTTP responses.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var bookingErr *domain.BookingError
	if errors.As(err, &bookingErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(bookingErr.Err, domain.ErrValidation):
			statusCode = http.StatusBadRequest
		case errors.Is(bookingErr.Err, domain.ErrNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(bookingErr.Err, domain.ErrUnauthorized):
			statusCode = http.StatusUnauthorized
		case errors.Is(bookingErr.Err, domain.ErrConflict):
			statusCode = http.StatusConflict
		case errors.Is(bookingErr.Err, domain.ErrGatewayUnavailable),
			errors.Is(bookingErr.Err, domain.ErrGatewayRejected):
			statusCode = http.StatusBadGateway
		}

		c.JSON(statusCode, ErrorResponse{
			Error: bookingErr.Message,
			Code:  bookingErr.Code,
		})
		return
	}

	h.logger.Error("unhandled service error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesceFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// wholePrice requires the JSON price to be a whole number. Fractional values
// are rejected rather than rounded: the provider expects the smallest
// currency unit and COP has no fractional minor unit.
func wholePrice(p *float64) (int64, bool) {
	if p == nil {
		// Let the service report the missing field.
		return 0, true
	}
	if *p != math.Trunc(*p) {
		return 0, false
	}
	return int64(*p), true
}
