package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

func TestTenantRepository_GetBySubdomainAndDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	ctx := context.Background()
	owner := testutil.TestUser(t, db)
	acme := testutil.TestTenant(t, db, owner.ID, testutil.WithSubdomain("acme"))
	testutil.TestDomain(t, db, acme.ID, "book.acme-hotel.com")

	found, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)

	found, err = repo.GetByDomain(ctx, "book.acme-hotel.com")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)

	_, err = repo.GetBySubdomain(ctx, "missing")
	assert.Error(t, err)
}

func TestTenantRepository_GetBySubdomain_InactiveReturned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	ctx := context.Background()
	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID, testutil.WithSubdomain("pending"))
	testutil.TestDomain(t, db, tenant.ID, "pending-hotel.com")
	require.NoError(t, repo.UpdateFields(ctx, tenant.ID, map[string]interface{}{
		"is_active":           false,
		"subscription_status": model.SubscriptionPendingPayment,
	}))

	// 待支付的租户仍需解析到自己的站点才能完成支付
	found, err := repo.GetBySubdomain(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)
	assert.False(t, found.IsActive)

	found, err = repo.GetByDomain(ctx, "pending-hotel.com")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)
}

func TestTenantRepository_NextCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	tx := dbtx.NewManager(db)
	owner := testutil.TestUser(t, db)
	t1 := testutil.TestTenant(t, db, owner.ID)
	t2 := testutil.TestTenant(t, db, owner.ID)

	var values []int64
	for i := 0; i < 3; i++ {
		err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
			v, err := repo.NextCounter(ctx, t1.ID, "booking")
			values = append(values, v)
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, values)

	// 各租户计数器相互独立
	err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
		v, err := repo.NextCounter(ctx, t2.ID, "booking")
		assert.Equal(t, int64(1), v)
		return err
	})
	require.NoError(t, err)
}

func TestTenantRepository_ListDueForRenewal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, 5000)

	due := testutil.TestTenant(t, db, owner.ID, testutil.WithPlan(plan.ID), testutil.WithAutoRenew("AUTH_1"),
		testutil.WithSubscriptionEnd(now.Add(-time.Hour)))
	testutil.TestTenant(t, db, owner.ID, testutil.WithPlan(plan.ID), testutil.WithAutoRenew("AUTH_2"),
		testutil.WithSubscriptionEnd(now.Add(time.Hour)))
	testutil.TestTenant(t, db, owner.ID, testutil.WithPlan(plan.ID),
		testutil.WithSubscriptionEnd(now.Add(-time.Hour)))
	pastDue := testutil.TestTenant(t, db, owner.ID, testutil.WithPlan(plan.ID), testutil.WithAutoRenew("AUTH_3"),
		testutil.WithSubscriptionEnd(now.Add(-48*time.Hour)))
	require.NoError(t, repo.UpdateFields(context.Background(), pastDue.ID,
		map[string]interface{}{"subscription_status": model.SubscriptionPastDue}))

	tenants, err := repo.ListDueForRenewal(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, due.ID, tenants[0].ID)
	assert.Equal(t, pastDue.ID, tenants[1].ID)
	require.NotNil(t, tenants[0].Plan)
	assert.Equal(t, plan.ID, tenants[0].Plan.ID)
}

func TestTenantRepository_LockDueForRenewal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	tx := dbtx.NewManager(db)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, 5000)
	tenant := testutil.TestTenant(t, db, owner.ID, testutil.WithPlan(plan.ID), testutil.WithAutoRenew("AUTH_1"),
		testutil.WithSubscriptionEnd(now.Add(-time.Hour)))

	err := tx.RunInTransaction(context.Background(), func(ctx context.Context) error {
		locked, err := repo.LockDueForRenewal(ctx, tenant.ID, now)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, locked.ID)
		return repo.UpdateFields(ctx, tenant.ID, map[string]interface{}{"subscription_end_date": now.AddDate(0, 1, 0)})
	})
	require.NoError(t, err)

	// 已续费的租户不再满足条件
	_, err = repo.LockDueForRenewal(context.Background(), tenant.ID, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTenantRepository_ListStaffIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTenantRepository(db)
	owner := testutil.TestUser(t, db)
	tenant := testutil.TestTenant(t, db, owner.ID)
	chef := testutil.TestUser(t, db)
	guest := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, owner.ID, tenant.ID, model.RoleAdmin)
	testutil.TestMembership(t, db, chef.ID, tenant.ID, model.RoleKitchen)
	testutil.TestMembership(t, db, guest.ID, tenant.ID, model.RoleGuest)

	ids, err := repo.ListStaffIDs(context.Background(), tenant.ID, []string{model.RoleAdmin, model.RoleKitchen})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{owner.ID, chef.ID}, ids)
}
