package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/profixa/profixa-backend/internal/domain"
)

// MemoryReservationStore implements domain.ReservationStore with in-memory
// storage. Used by tests and local development; the mutex gives the same
// compare-and-set semantics the Postgres conditional UPDATE provides.
type MemoryReservationStore struct {
	mu    sync.Mutex
	byID  map[string]*domain.Reservation
	byKey map[string]string // idempotency key -> reservation id
	order []string          // insertion order
}

// NewMemoryReservationStore creates an empty in-memory reservation store.
func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{
		byID:  make(map[string]*domain.Reservation),
		byKey: make(map[string]string),
	}
}

// Create inserts a pending reservation, honoring the idempotency key.
func (s *MemoryReservationStore) Create(_ context.Context, params domain.NewReservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.IdempotencyKey != nil {
		if id, ok := s.byKey[*params.IdempotencyKey]; ok {
			return copyReservation(s.byID[id]), nil
		}
	}

	r := &domain.Reservation{
		ID:             uuid.NewString(),
		Professional:   params.Professional,
		Category:       params.Category,
		City:           params.City,
		Price:          params.Price,
		Status:         domain.StatusPending,
		IdempotencyKey: params.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	if params.IdempotencyKey != nil {
		s.byKey[*params.IdempotencyKey] = r.ID
	}
	return copyReservation(r), nil
}

// AttachPreference sets the preference id once; later calls are no-ops.
func (s *MemoryReservationStore) AttachPreference(_ context.Context, id, preferenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil
	}
	if r.PreferenceID == nil {
		r.PreferenceID = &preferenceID
	}
	return nil
}

// TransitionIfPending applies the conditional status write under the lock.
func (s *MemoryReservationStore) TransitionIfPending(_ context.Context, id string, target domain.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok || r.Status != domain.StatusPending {
		return false, nil
	}
	r.Status = target
	return true, nil
}

// Get retrieves a reservation by id.
func (s *MemoryReservationStore) Get(_ context.Context, id string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyReservation(r), nil
}

// List returns all reservations, newest first.
func (s *MemoryReservationStore) List(_ context.Context) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Reservation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, *s.byID[s.order[i]])
	}
	return result, nil
}

// ListStalePending returns pending reservations with a preference created
// before olderThan, oldest first.
func (s *MemoryReservationStore) ListStalePending(_ context.Context, olderThan time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Reservation
	for _, id := range s.order {
		r := s.byID[id]
		if r.Status == domain.StatusPending && r.PreferenceID != nil && r.CreatedAt.Before(olderThan) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func copyReservation(r *domain.Reservation) *domain.Reservation {
	c := *r
	return &c
}

// MemoryAdminStore implements domain.AdminStore in memory.
type MemoryAdminStore struct {
	mu     sync.Mutex
	admins []domain.Admin
}

// NewMemoryAdminStore creates an empty in-memory admin store.
func NewMemoryAdminStore() *MemoryAdminStore {
	return &MemoryAdminStore{}
}

// FirstAdmin returns the oldest admin.
func (s *MemoryAdminStore) FirstAdmin(_ context.Context) (*domain.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.admins) == 0 {
		return nil, domain.ErrNotFound
	}
	a := s.admins[0]
	return &a, nil
}

// CreateAdmin appends an admin.
func (s *MemoryAdminStore) CreateAdmin(_ context.Context, email, passwordHash string) (*domain.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := domain.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.admins = append(s.admins, a)
	return &a, nil
}
