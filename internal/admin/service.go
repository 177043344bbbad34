// Package admin implements back-office authentication: bcrypt password
// verification and HS256 bearer token issuance.
package admin

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/profixa/profixa-backend/internal/domain"
)

const tokenTTL = 8 * time.Hour

// Claims are the JWT claims carried by an admin token.
type Claims struct {
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}

// Service authenticates admins against the admin store.
type Service struct {
	store     domain.AdminStore
	jwtSecret []byte
	logger    *zap.Logger
}

// NewService creates an admin auth service.
func NewService(store domain.AdminStore, jwtSecret string, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// Login verifies the password against the first admin row and returns a
// signed bearer token valid for 8 hours.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", domain.NewBookingError(domain.ErrValidation,
			"password is required", "VALIDATION_ERROR")
	}

	adm, err := s.store.FirstAdmin(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NewBookingError(domain.ErrUnauthorized,
				"no admin account exists", "NO_ADMIN")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(adm.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("admin_id", adm.ID))
		return "", domain.NewBookingError(domain.ErrUnauthorized,
			"invalid credentials", "INVALID_CREDENTIALS")
	}

	claims := Claims{
		AdminID: adm.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken parses and validates a bearer token.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, domain.NewBookingError(domain.ErrUnauthorized,
			"invalid token", "INVALID_TOKEN")
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, domain.NewBookingError(domain.ErrUnauthorized,
			"invalid token", "INVALID_TOKEN")
	}
	return claims, nil
}

// EnsureDefaultAdmin seeds an admin account when the table is empty, so a
// fresh deployment always has a usable back office.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.store.FirstAdmin(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adm, err := s.store.CreateAdmin(ctx, email, string(hash))
	if err != nil {
		return err
	}
	s.logger.Info("seeded default admin", zap.String("admin_id", adm.ID), zap.String("email", email))
	return nil
}
