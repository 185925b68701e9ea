package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

func TestBillingService_Settle_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.billing.Settle(context.Background(), 999, model.PaymentCash, "")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestBillingService_Settle_RollsBackOnCancelledBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID)
	room := testutil.TestRoom(t, env.db, tenant.ID, 150)
	now := time.Now().UTC()
	b := testutil.TestBooking(t, env.db, room, now.Add(24*time.Hour), now.Add(48*time.Hour), model.BookingCancelled)
	inv := testutil.TestInvoice(t, env.db, tenant.ID, model.BookingTarget{BookingID: b.ID}, 150, model.InvoicePending)

	_, err := env.billing.Settle(ctx, inv.ID, model.PaymentCash, "ref-cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, model.InvoicePending, env.reloadInvoice(t, inv.ID).Status)
	payments, err := env.invoiceRepo.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Equal(t, model.BookingCancelled, env.reloadBooking(t, b.ID).Status)
}

func TestBillingService_Settle_DuplicateTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID)
	room := testutil.TestRoom(t, env.db, tenant.ID, 150)
	now := time.Now().UTC()
	b1 := testutil.TestBooking(t, env.db, room, now.Add(24*time.Hour), now.Add(48*time.Hour), model.BookingPending)
	b2 := testutil.TestBooking(t, env.db, room, now.Add(72*time.Hour), now.Add(96*time.Hour), model.BookingPending)
	inv1 := testutil.TestInvoice(t, env.db, tenant.ID, model.BookingTarget{BookingID: b1.ID}, 150, model.InvoicePending)
	inv2 := testutil.TestInvoice(t, env.db, tenant.ID, model.BookingTarget{BookingID: b2.ID}, 150, model.InvoicePending)

	_, err := env.billing.Settle(ctx, inv1.ID, model.PaymentStripe, "pi_shared")
	require.NoError(t, err)

	_, err = env.billing.Settle(ctx, inv2.ID, model.PaymentStripe, "pi_shared")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.InvoicePending, env.reloadInvoice(t, inv2.ID).Status)
	assert.Equal(t, model.BookingPending, env.reloadBooking(t, b2.ID).Status)
}

func TestBillingService_Settle_GymMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	member := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID)
	plan := testutil.TestGymPlan(t, env.db, tenant.ID, 5000, 30)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m, inv, err := env.gym.Join(ctx, tenant.ID, member.ID, plan.ID, &start)
	require.NoError(t, err)
	assert.Equal(t, model.GymPending, m.Status)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, model.TargetGymMembership, inv.TargetKind)

	_, err = env.billing.Settle(ctx, inv.ID, model.PaymentCash, "")
	require.NoError(t, err)

	got, err := env.gymRepo.GetMembership(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GymActive, got.Status)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(start.AddDate(0, 0, 30)))

	_, _, err = env.gym.Join(ctx, tenant.ID, member.ID, 9999, nil)
	assert.ErrorIs(t, err, ErrGymPlanNotFound)
}

func TestBillingService_Settle_ServiceOrderFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID)
	staff := map[string]*model.User{}
	for _, role := range []string{model.RoleManager, model.RoleKitchen, model.RoleBar, model.RoleCleaner} {
		u := testutil.TestUser(t, env.db)
		testutil.TestMembership(t, env.db, u.ID, tenant.ID, role)
		staff[role] = u
	}
	food := testutil.TestMenuItem(t, env.db, tenant.ID, model.CategoryFood, 2500)
	drink := testutil.TestMenuItem(t, env.db, tenant.ID, model.CategoryDrink, 800)

	order, inv, err := env.orders.Create(ctx, tenant.ID, nil, &dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{{MenuItemID: food.ID, Quantity: 2}, {MenuItemID: drink.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderAwaitingPayment, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(5800)))
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(5800)))
	assert.Contains(t, order.OrderCode, "ORD-")

	_, err = env.billing.Settle(ctx, inv.ID, model.PaymentCash, "")
	require.NoError(t, err)

	orders, err := env.orderRepo.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderPending, orders[0].Status)

	assert.Equal(t, int64(1), env.countNotifications(t, staff[model.RoleManager].ID))
	assert.Equal(t, int64(1), env.countNotifications(t, staff[model.RoleKitchen].ID))
	assert.Equal(t, int64(1), env.countNotifications(t, staff[model.RoleBar].ID))
	assert.Equal(t, int64(0), env.countNotifications(t, staff[model.RoleCleaner].ID))

	// 只有饮品时厨房不接收
	_, inv2, err := env.orders.Create(ctx, tenant.ID, nil, &dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{{MenuItemID: drink.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = env.billing.Settle(ctx, inv2.ID, model.PaymentCash, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.countNotifications(t, staff[model.RoleKitchen].ID))
	assert.Equal(t, int64(2), env.countNotifications(t, staff[model.RoleBar].ID))

	_, _, err = env.orders.Create(ctx, tenant.ID, nil, &dto.CreateOrderRequest{
		Items: []dto.OrderItemRequest{{MenuItemID: 12345, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestBillingService_Settle_Subscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	plan := testutil.TestPlan(t, env.db, 20000)
	tenant := testutil.TestTenant(t, env.db, owner.ID, testutil.WithPlan(plan.ID), func(tn *model.Tenant) {
		tn.IsActive = false
		tn.SubscriptionStatus = model.SubscriptionPendingPayment
		tn.SubscriptionEndDate = nil
	})
	inv := testutil.TestInvoice(t, env.db, tenant.ID, model.SubscriptionTarget{TenantID: tenant.ID}, 20000, model.InvoicePending)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	env.setClock(now)

	_, err := env.billing.Settle(ctx, inv.ID, model.PaymentStripe, "pi_sub")
	require.NoError(t, err)

	got, err := env.tenantRepo.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, model.SubscriptionActive, got.SubscriptionStatus)
	require.NotNil(t, got.SubscriptionEndDate)
	assert.True(t, got.SubscriptionEndDate.Equal(now.AddDate(0, 0, 30)))
}

func TestBillingService_VerifyAndSettle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID)
	room := testutil.TestRoom(t, env.db, tenant.ID, 150)
	now := time.Now().UTC()
	b := testutil.TestBooking(t, env.db, room, now.Add(24*time.Hour), now.Add(48*time.Hour), model.BookingPending)
	inv := testutil.TestInvoice(t, env.db, tenant.ID, model.BookingTarget{BookingID: b.ID}, 150, model.InvoicePending)

	untouched := func(t *testing.T) {
		t.Helper()
		assert.Equal(t, model.InvoicePending, env.reloadInvoice(t, inv.ID).Status)
		assert.Equal(t, model.BookingPending, env.reloadBooking(t, b.ID).Status)
	}

	t.Run("unknown gateway", func(t *testing.T) {
		_, err := env.billing.VerifyAndSettle(ctx, "nope", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		untouched(t)
	})

	t.Run("gateway error", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			return nil, errors.New("connection reset")
		}
		_, err := env.billing.VerifyAndSettle(ctx, "fake", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		untouched(t)
	})

	t.Run("timeout", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		started := time.Now()
		_, err := env.billing.VerifyAndSettle(ctx, "fake", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		assert.Less(t, time.Since(started), 5*time.Second)
		untouched(t)
	})

	t.Run("not successful", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			return &gateway.Verification{Reference: ref, Status: "requires_payment_method"}, nil
		}
		_, err := env.billing.VerifyAndSettle(ctx, "fake", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		untouched(t)
	})

	t.Run("underpaid", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			return &gateway.Verification{Reference: ref, Succeeded: true, Status: "succeeded", Amount: decimal.NewFromInt(100)}, nil
		}
		_, err := env.billing.VerifyAndSettle(ctx, "fake", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		untouched(t)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			return &gateway.Verification{Reference: ref, Succeeded: true, Status: "succeeded",
				Amount: decimal.NewFromInt(150), Currency: "IDR"}, nil
		}
		_, err := env.billing.VerifyAndSettle(ctx, "fake", "ref", inv.ID)
		assert.ErrorIs(t, err, ErrPaymentVerificationFailed)
		untouched(t)
	})

	t.Run("success is idempotent", func(t *testing.T) {
		env.gw.verify = func(ctx context.Context, ref string) (*gateway.Verification, error) {
			return &gateway.Verification{Reference: ref, Succeeded: true, Status: "succeeded",
				Amount: decimal.NewFromInt(150), Currency: "ngn"}, nil
		}
		res, err := env.billing.VerifyAndSettle(ctx, "fake", "pi_ok", inv.ID)
		require.NoError(t, err)
		assert.False(t, res.AlreadySettled)
		require.NotNil(t, res.Payment)
		assert.Equal(t, "pi_ok", res.Payment.TransactionID)
		assert.Equal(t, model.BookingConfirmed, env.reloadBooking(t, b.ID).Status)

		verifies := env.gw.verifies
		res, err = env.billing.VerifyAndSettle(ctx, "fake", "pi_ok", inv.ID)
		require.NoError(t, err)
		assert.True(t, res.AlreadySettled)
		assert.Equal(t, verifies, env.gw.verifies)

		payments, err := env.invoiceRepo.ListPayments(ctx, inv.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})
}
