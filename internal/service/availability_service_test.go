package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

func TestAvailabilityService_Rooms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	ctx := context.Background()

	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	other := testutil.TestTenant(t, db, owner.ID)

	free := testutil.TestRoom(t, db, tenant.ID, 150)
	booked := testutil.TestRoom(t, db, tenant.ID, 150)
	testutil.TestRoom(t, db, tenant.ID, 150, testutil.WithRoomStatus(model.ResourceMaintenance))
	testutil.TestRoom(t, db, other.ID, 150)

	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	testutil.TestBooking(t, db, booked, start, end, model.BookingConfirmed)

	svc := NewAvailabilityService(repository.NewResourceRepository(db))

	rooms, err := svc.AvailableRooms(ctx, tenant.ID, start, end, repository.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, free.ID, rooms[0].ID)

	// 退房当天入住不冲突
	rooms, err = svc.AvailableRooms(ctx, tenant.ID, end, end.Add(24*time.Hour), repository.ResourceFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestAvailabilityService_InvalidInterval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAvailabilityService(repository.NewResourceRepository(db))
	now := time.Now().UTC()

	_, err := svc.AvailableRooms(context.Background(), 1, now, now, repository.ResourceFilter{})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = svc.Available(context.Background(), 1, model.ResourceTypeHall, now, now.Add(-time.Hour), repository.ResourceFilter{})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestAvailabilityService_Dispatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	ctx := context.Background()

	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	hall := testutil.TestHall(t, db, tenant.ID, model.PricingPerHour, 100)
	testutil.TestRoom(t, db, tenant.ID, 80)

	svc := NewAvailabilityService(repository.NewResourceRepository(db))
	start := time.Now().UTC().Add(24 * time.Hour)

	res, err := svc.Available(ctx, tenant.ID, model.ResourceTypeHall, start, start.Add(4*time.Hour), repository.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, res.Halls, 1)
	assert.Equal(t, hall.ID, res.Halls[0].ID)
	assert.Empty(t, res.Rooms)

	res, err = svc.Available(ctx, tenant.ID, "", start, start.Add(24*time.Hour), repository.ResourceFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.ResourceTypeRoom, res.ResourceType)
	assert.Len(t, res.Rooms, 1)

	_, err = svc.Available(ctx, tenant.ID, "spa", start, start.Add(time.Hour), repository.ResourceFilter{})
	assert.Error(t, err)
}
