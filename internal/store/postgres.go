// Package store provides durable reservation and admin storage.
// The Postgres implementation is the production one; the status transition is
// a single conditional UPDATE so it is atomic with respect to all callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/profixa/profixa-backend/internal/domain"
)

// NewPool creates a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return pool, nil
}

// Migrate creates the reservations and admins tables if they don't exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reservations (
			id              UUID PRIMARY KEY,
			professional    TEXT NOT NULL,
			category        TEXT NOT NULL,
			city            TEXT NOT NULL,
			price           BIGINT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'pending',
			preference_id   TEXT,
			idempotency_key TEXT UNIQUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS admins (
			id            UUID PRIMARY KEY,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ReservationRepo implements domain.ReservationStore on Postgres.
type ReservationRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewReservationRepo creates a Postgres-backed reservation store.
func NewReservationRepo(pool *pgxpool.Pool, logger *zap.Logger) *ReservationRepo {
	return &ReservationRepo{pool: pool, logger: logger}
}

const reservationColumns = `id, professional, category, city, price, status, preference_id, idempotency_key, created_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(
		&r.ID,
		&r.Professional,
		&r.Category,
		&r.City,
		&r.Price,
		&r.Status,
		&r.PreferenceID,
		&r.IdempotencyKey,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a pending reservation. With an idempotency key the insert is
// a get-or-insert: a conflicting key returns the reservation stored under it.
func (r *ReservationRepo) Create(ctx context.Context, params domain.NewReservation) (*domain.Reservation, error) {
	id := uuid.NewString()

	if params.IdempotencyKey != nil {
		query := `
			INSERT INTO reservations (id, professional, category, city, price, status, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, 'pending', $6)
			ON CONFLICT (idempotency_key) DO NOTHING
		`
		tag, err := r.pool.Exec(ctx, query,
			id, params.Professional, params.Category, params.City, params.Price, *params.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("insert reservation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Key already mapped to a reservation; return it.
			row := r.pool.QueryRow(ctx,
				`SELECT `+reservationColumns+` FROM reservations WHERE idempotency_key = $1`,
				*params.IdempotencyKey)
			return scanReservation(row)
		}
	} else {
		query := `
			INSERT INTO reservations (id, professional, category, city, price, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
		`
		if _, err := r.pool.Exec(ctx, query,
			id, params.Professional, params.Category, params.City, params.Price); err != nil {
			return nil, fmt.Errorf("insert reservation: %w", err)
		}
	}

	return r.Get(ctx, id)
}

// AttachPreference sets preference_id only when it is still NULL.
// Already-attached reservations are left untouched without error.
func (r *ReservationRepo) AttachPreference(ctx context.Context, id, preferenceID string) error {
	query := `
		UPDATE reservations
		SET preference_id = $2
		WHERE id = $1 AND preference_id IS NULL
	`
	if _, err := r.pool.Exec(ctx, query, id, preferenceID); err != nil {
		return fmt.Errorf("attach preference: %w", err)
	}
	return nil
}

// TransitionIfPending performs the compare-and-set status write. The WHERE
// clause carries the precondition, so concurrent callers for the same
// reservation are linearized by the database: exactly one sees true.
func (r *ReservationRepo) TransitionIfPending(ctx context.Context, id string, target domain.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, id, string(target))
	if err != nil {
		return false, fmt.Errorf("transition reservation: %w", err)
	}

	applied := tag.RowsAffected() == 1
	r.logger.Debug("reservation transition",
		zap.String("reservation_id", id),
		zap.String("target", string(target)),
		zap.Bool("applied", applied),
	)
	return applied, nil
}

// Get retrieves a reservation by id.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// List returns all reservations, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListStalePending returns pending reservations with an attached preference
// created before olderThan.
func (r *ReservationRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'pending' AND preference_id IS NOT NULL AND created_at < $1
		ORDER BY created_at ASC
	`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("list stale pending: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var result []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		result = append(result, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

// AdminRepo implements domain.AdminStore on Postgres.
type AdminRepo struct {
	pool *pgxpool.Pool
}

// NewAdminRepo creates a Postgres-backed admin store.
func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

// FirstAdmin returns the oldest admin row.
func (r *AdminRepo) FirstAdmin(ctx context.Context) (*domain.Admin, error) {
	var a domain.Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM admins ORDER BY created_at ASC LIMIT 1
	`).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first admin: %w", err)
	}
	return &a, nil
}

// CreateAdmin inserts an admin row.
func (r *AdminRepo) CreateAdmin(ctx context.Context, email, passwordHash string) (*domain.Admin, error) {
	a := domain.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, a.ID, a.Email, a.PasswordHash).Scan(&a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return &a, nil
}
