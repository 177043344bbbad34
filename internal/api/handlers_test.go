package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/admin"
	"github.com/profixa/profixa-backend/internal/domain"
)

// MockBookingService mocks the booking service.
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateCheckout(ctx context.Context, params domain.NewReservation) (*domain.CheckoutPreference, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutPreference), args.Error(1)
}

func (m *MockBookingService) ProcessNotification(ctx context.Context, n domain.PaymentNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockBookingService) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

// MockAuthService mocks the admin auth service.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(token string) (*admin.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admin.Claims), args.Error(1)
}

// MockSignatureValidator mocks the webhook signature validator.
type MockSignatureValidator struct {
	mock.Mock
}

func (m *MockSignatureValidator) ValidateSignature(xSignature, xRequestID, dataID, secret string) bool {
	args := m.Called(xSignature, xRequestID, dataID, secret)
	return args.Bool(0)
}

func setupTestRouter(t *testing.T, webhookSecret string) (*gin.Engine, *MockBookingService, *MockAuthService, *MockSignatureValidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookings := new(MockBookingService)
	auth := new(MockAuthService)
	validator := new(MockSignatureValidator)

	handler := NewHandler(bookings, auth, validator, webhookSecret, zap.NewNop())
	router := SetupRouter(handler, auth, gin.TestMode)
	return router, bookings, auth, validator
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateBookingAcceptsSpanishFields(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(p domain.NewReservation) bool {
		return p.Professional == "Ana" && p.Category == "Plomería" &&
			p.City == "Bogotá" && p.Price == 50000
	})).Return(&domain.CheckoutPreference{ID: "pref-1", InitPoint: "https://mp/1"}, nil)

	w := doJSON(router, http.MethodPost, "/crear-preferencia", gin.H{
		"profesional": "Ana",
		"categoria":   "Plomería",
		"ciudad":      "Bogotá",
		"precio":      50000,
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://mp/1", resp.InitPoint)
	bookings.AssertExpectations(t)
}

func TestCreateBookingForwardsIdempotencyKey(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(p domain.NewReservation) bool {
		return p.IdempotencyKey != nil && *p.IdempotencyKey == "key-1"
	})).Return(&domain.CheckoutPreference{ID: "pref-1", InitPoint: "https://mp/1"}, nil)

	w := doJSON(router, http.MethodPost, "/bookings", gin.H{
		"professional": "Ana",
		"category":     "Plomería",
		"city":         "Bogotá",
		"price":        50000,
	}, map[string]string{"Idempotency-Key": "key-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertExpectations(t)
}

func TestCreateBookingRejectsFractionalPrice(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/crear-preferencia", gin.H{
		"profesional": "Ana",
		"categoria":   "Plomería",
		"ciudad":      "Bogotá",
		"precio":      50000.5,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	bookings.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestCreateBookingRejectsNonNumericPrice(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/crear-preferencia", gin.H{
		"profesional": "Ana",
		"categoria":   "Plomería",
		"ciudad":      "Bogotá",
		"precio":      "cincuenta",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	bookings.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

func TestCreateBookingMapsValidationError(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, domain.NewBookingError(domain.ErrValidation, "price must be a positive integer", "VALIDATION_ERROR"))

	w := doJSON(router, http.MethodPost, "/crear-preferencia", gin.H{
		"profesional": "Ana",
		"categoria":   "Plomería",
		"ciudad":      "Bogotá",
		"precio":      -5,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingMapsGatewayFailureTo502(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, domain.NewBookingError(domain.ErrGatewayUnavailable, "provider down", "GATEWAY_ERROR"))

	w := doJSON(router, http.MethodPost, "/crear-preferencia", gin.H{
		"profesional": "Ana",
		"categoria":   "Plomería",
		"ciudad":      "Bogotá",
		"precio":      50000,
	}, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookAcknowledgesProcessedNotification(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("ProcessNotification", mock.Anything, mock.MatchedBy(func(n domain.PaymentNotification) bool {
		return n.PaymentID == "mp-100" && n.Type == "payment"
	})).Return(nil)

	w := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"type": "payment",
		"data": gin.H{"id": "mp-100"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertExpectations(t)
}

func TestWebhookAcknowledgesInternalErrors(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	bookings.On("ProcessNotification", mock.Anything, mock.Anything).
		Return(assert.AnError)

	w := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"type": "payment",
		"data": gin.H{"id": "mp-100"},
	}, nil)

	// Internal failures never surface to the notification sender.
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAcknowledgesMalformedBody(t *testing.T) {
	router, bookings, _, _ := setupTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}

func TestWebhookDiscardsInvalidSignature(t *testing.T) {
	router, bookings, _, validator := setupTestRouter(t, "secret")

	validator.On("ValidateSignature", "bad", "req-1", "mp-100", "secret").Return(false)

	w := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"type": "payment",
		"data": gin.H{"id": "mp-100"},
	}, map[string]string{"x-signature": "bad", "x-request-id": "req-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	bookings.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}

func TestListReservationsRequiresToken(t *testing.T) {
	router, _, _, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/reservas", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReservationsWithValidToken(t *testing.T) {
	router, bookings, auth, _ := setupTestRouter(t, "")

	auth.On("ValidateToken", "token-1").Return(&admin.Claims{AdminID: "admin-1"}, nil)
	bookings.On("ListReservations", mock.Anything).Return([]domain.Reservation{
		{ID: "r1", Professional: "Ana", Status: domain.StatusPaid},
	}, nil)

	w := doJSON(router, http.MethodGet, "/reservas", nil,
		map[string]string{"Authorization": "Bearer token-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp []domain.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "r1", resp[0].ID)
}

func TestListReservationsRejectsBadToken(t *testing.T) {
	router, _, auth, _ := setupTestRouter(t, "")

	auth.On("ValidateToken", "bad").
		Return(nil, domain.NewBookingError(domain.ErrUnauthorized, "invalid token", "INVALID_TOKEN"))

	w := doJSON(router, http.MethodGet, "/reservas", nil,
		map[string]string{"Authorization": "Bearer bad"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginReturnsToken(t *testing.T) {
	router, _, auth, _ := setupTestRouter(t, "")

	auth.On("Login", mock.Anything, "admin123").Return("token-1", nil)

	w := doJSON(router, http.MethodPost, "/admin-login", gin.H{"password": "admin123"}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "token-1", resp["token"])
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	router, _, auth, _ := setupTestRouter(t, "")

	auth.On("Login", mock.Anything, "wrong").
		Return("", domain.NewBookingError(domain.ErrUnauthorized, "invalid credentials", "INVALID_CREDENTIALS"))

	w := doJSON(router, http.MethodPost, "/admin-login", gin.H{"password": "wrong"}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _, _ := setupTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
