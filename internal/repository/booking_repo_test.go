package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

func TestBookingRepository_ConflictExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewBookingRepository(db)
	ctx := context.Background()
	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	room := testutil.TestRoom(t, db, tenant.ID, 100)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	existing := testutil.TestBooking(t, db, room, start, end, model.BookingConfirmed)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		exclude  int64
		conflict bool
	}{
		{"identical", start, end, 0, true},
		{"overlap tail", end.Add(-time.Hour), end.Add(24 * time.Hour), 0, true},
		{"contained", start.Add(time.Hour), start.Add(2 * time.Hour), 0, true},
		{"touching end", end, end.Add(24 * time.Hour), 0, false},
		{"touching start", start.Add(-24 * time.Hour), start, 0, false},
		{"excluded self", start, end, existing.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflict, err := repo.ConflictExists(ctx, room.ID, tt.start, tt.end, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.conflict, conflict)
		})
	}
}

func TestBookingRepository_TransitionStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewBookingRepository(db)
	ctx := context.Background()
	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	room := testutil.TestRoom(t, db, tenant.ID, 100)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := testutil.TestBooking(t, db, room, start, start.Add(48*time.Hour), model.BookingPending)

	n, err := repo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 状态已变化，守卫条件不再满足
	n, err = repo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	found, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, found.Status)
}

func TestBookingRepository_ListAbandoned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewBookingRepository(db)
	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	room := testutil.TestRoom(t, db, tenant.ID, 100)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(72 * time.Hour)

	old := testutil.TestBooking(t, db, room, start, start.Add(24*time.Hour), model.BookingPending,
		testutil.WithCreatedAt(now.Add(-31*time.Minute)))
	testutil.TestBooking(t, db, room, start.Add(48*time.Hour), start.Add(72*time.Hour), model.BookingPending,
		testutil.WithCreatedAt(now.Add(-10*time.Minute)))
	testutil.TestBooking(t, db, room, start.Add(96*time.Hour), start.Add(120*time.Hour), model.BookingConfirmed,
		testutil.WithCreatedAt(now.Add(-2*time.Hour)))

	bookings, err := repo.ListAbandoned(context.Background(), now.Add(-30*time.Minute), 100)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, old.ID, bookings[0].ID)
}
