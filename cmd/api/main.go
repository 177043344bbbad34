// ProFixa booking backend
//
// This is the main entry point for the booking service. It wires up all
// dependencies and starts the HTTP server and the reconciliation sweeper.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/config"
	"github.com/profixa/profixa-backend/internal/admin"
	"github.com/profixa/profixa-backend/internal/api"
	"github.com/profixa/profixa-backend/internal/booking"
	"github.com/profixa/profixa-backend/internal/platform/mercadopago"
	"github.com/profixa/profixa-backend/internal/platform/resilience"
	"github.com/profixa/profixa-backend/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Infrastructure layer
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	reservations := store.NewReservationRepo(pool, logger)
	admins := store.NewAdminRepo(pool)

	gateway, err := mercadopago.NewAdapter(mercadopago.Config{
		AccessToken:     cfg.MPAccessToken,
		CurrencyID:      cfg.MPCurrencyID,
		SuccessURL:      cfg.SuccessURL,
		FailureURL:      cfg.FailureURL,
		PendingURL:      cfg.PendingURL,
		NotificationURL: cfg.NotificationURL,
	})
	if err != nil {
		logger.Fatal("payment gateway init failed", zap.Error(err))
	}
	guardedGateway := resilience.NewBreakerGateway(gateway, logger)

	// Service layer
	bookingService := booking.NewService(reservations, guardedGateway, logger)
	authService := admin.NewService(admins, cfg.JWTSecret, logger)

	if err := authService.EnsureDefaultAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("admin bootstrap failed", zap.Error(err))
	}

	// Reconciliation sweep for pending reservations whose webhook outcome
	// was lost to a transient gateway failure.
	sweeper := booking.NewSweeper(bookingService, reservations, guardedGateway,
		logger, cfg.SweepInterval, cfg.SweepMinAge)
	go sweeper.Run(ctx)

	// API layer
	handler := api.NewHandler(bookingService, authService, mercadopago.NewValidator(),
		cfg.MPWebhookSecret, logger)
	router := api.SetupRouter(handler, authService, cfg.GinMode)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
