package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profixa/profixa-backend/internal/domain"
)

func newTestReservation() domain.NewReservation {
	return domain.NewReservation{
		Professional: "Ana",
		Category:     "Plomería",
		City:         "Bogotá",
		Price:        50000,
	}
}

func TestCreateThenGetIsPending(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	created, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.PreferenceID)
	assert.Equal(t, "Ana", got.Professional)
	assert.Equal(t, int64(50000), got.Price)
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	s := NewMemoryReservationStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttachPreferenceIsIdempotent(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	created, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)

	require.NoError(t, s.AttachPreference(ctx, created.ID, "pref-1"))
	require.NoError(t, s.AttachPreference(ctx, created.ID, "pref-2"))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreferenceID)
	assert.Equal(t, "pref-1", *got.PreferenceID)
}

func TestTerminalStatusIsSticky(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	created, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)

	applied, err := s.TransitionIfPending(ctx, created.ID, domain.StatusPaid)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.TransitionIfPending(ctx, created.ID, domain.StatusFailed)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
}

func TestConcurrentTransitionHasExactlyOneWinner(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	created, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := s.TransitionIfPending(ctx, created.ID, domain.StatusPaid)
			assert.NoError(t, err)
			results <- applied
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for applied := range results {
		if applied {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)
}

func TestListIsNewestFirst(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	first, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)
	second, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestIdempotencyKeyMapsToOneReservation(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	key := "client-key-1"
	params := newTestReservation()
	params.IdempotencyKey = &key

	first, err := s.Create(ctx, params)
	require.NoError(t, err)
	second, err := s.Create(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListStalePendingFiltersByAgeStatusAndPreference(t *testing.T) {
	s := NewMemoryReservationStore()
	ctx := context.Background()

	withPref, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)
	require.NoError(t, s.AttachPreference(ctx, withPref.ID, "pref-1"))

	// No preference attached: not eligible for the sweep.
	_, err = s.Create(ctx, newTestReservation())
	require.NoError(t, err)

	// Already settled: not eligible either.
	settled, err := s.Create(ctx, newTestReservation())
	require.NoError(t, err)
	require.NoError(t, s.AttachPreference(ctx, settled.ID, "pref-2"))
	_, err = s.TransitionIfPending(ctx, settled.ID, domain.StatusPaid)
	require.NoError(t, err)

	stale, err := s.ListStalePending(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, withPref.ID, stale[0].ID)

	// Nothing is older than a cutoff in the past.
	none, err := s.ListStalePending(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}
