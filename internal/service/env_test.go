package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/pubsub"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

// fakeGateway 可编程的支付网关
type fakeGateway struct {
	mu       sync.Mutex
	name     string
	verify   func(ctx context.Context, ref string) (*gateway.Verification, error)
	charge   func(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error)
	verifies int
	charges  []*gateway.ChargeRequest
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Verify(ctx context.Context, ref string) (*gateway.Verification, error) {
	g.mu.Lock()
	g.verifies++
	g.mu.Unlock()
	if g.verify == nil {
		return nil, gateway.ErrNotSupported
	}
	return g.verify(ctx, ref)
}

func (g *fakeGateway) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	g.mu.Lock()
	g.charges = append(g.charges, req)
	g.mu.Unlock()
	if g.charge == nil {
		return &gateway.ChargeResult{Succeeded: true, TransactionID: "ch_test", Status: "succeeded"}, nil
	}
	return g.charge(ctx, req)
}

// testEnv 一套接在 SQLite 与 miniredis 上的完整服务
type testEnv struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	mail  *queue.Queue
	gw    *fakeGateway
	tx    *dbtx.Manager
	cfg   *config.Config
	clock time.Time

	tenantRepo       *repository.TenantRepository
	userRepo         *repository.UserRepository
	resourceRepo     *repository.ResourceRepository
	bookingRepo      *repository.BookingRepository
	eventRepo        *repository.EventBookingRepository
	invoiceRepo      *repository.InvoiceRepository
	gymRepo          *repository.GymRepository
	orderRepo        *repository.OrderRepository
	notificationRepo *repository.NotificationRepository

	notifier      *NotificationService
	rooms         *ResourceService
	billing       *BillingService
	reservations  *ReservationService
	events        *EventBookingService
	subscriptions *SubscriptionService
	gym           *GymService
	orders        *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, testutil.SetupTestDB(t))
}

// newTestEnvWithDB 在给定数据库上组装服务，测试结束时关闭连接
func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
		testutil.CleanupTestDB(t, db)
	})

	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "test-secret-key-for-testing", ExpireHours: 24},
		Platform: config.PlatformConfig{Host: "platform.test", PaymentPath: "/api/v1/subscription/pay"},
		Reservation: config.ReservationConfig{
			AbandonTimeout: 30 * time.Minute,
			ReminderHours:  []int{24, 12, 6, 3, 1},
			ReminderWindow: 90 * time.Minute,
		},
		Payment: config.PaymentConfig{
			VerifyTimeout:  200 * time.Millisecond,
			Currency:       "NGN",
			RenewalGateway: "fake",
		},
	}

	e := &testEnv{
		db:               db,
		mr:               mr,
		mail:             queue.NewQueue(client, "test:email_jobs"),
		gw:               &fakeGateway{name: "fake"},
		tx:               dbtx.NewManager(db),
		cfg:              cfg,
		tenantRepo:       repository.NewTenantRepository(db),
		userRepo:         repository.NewUserRepository(db),
		resourceRepo:     repository.NewResourceRepository(db),
		bookingRepo:      repository.NewBookingRepository(db),
		eventRepo:        repository.NewEventBookingRepository(db),
		invoiceRepo:      repository.NewInvoiceRepository(db),
		gymRepo:          repository.NewGymRepository(db),
		orderRepo:        repository.NewOrderRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}

	e.notifier = NewNotificationService(e.notificationRepo, e.tenantRepo, pubsub.NewPublisher(client), e.mail)
	e.subscriptions = NewSubscriptionService(e.tx, e.tenantRepo, e.userRepo, e.invoiceRepo,
		gateway.NewRegistry(e.gw, gateway.NewManualGateway()), e.notifier, cfg.Platform, cfg.Payment)
	e.billing = NewBillingService(e.tx, e.invoiceRepo, e.bookingRepo, e.eventRepo, e.gymRepo, e.orderRepo,
		e.subscriptions, gateway.NewRegistry(e.gw, gateway.NewManualGateway()), e.notifier, cfg.Payment.VerifyTimeout)
	e.rooms = NewResourceService(e.tx, e.resourceRepo, e.bookingRepo, e.notifier)
	e.reservations = NewReservationService(e.tx, e.bookingRepo, e.resourceRepo, e.invoiceRepo, e.tenantRepo,
		e.billing, e.notifier, cfg.Reservation, cfg.Payment.Currency)
	e.events = NewEventBookingService(e.tx, e.eventRepo, e.resourceRepo, e.invoiceRepo, e.tenantRepo,
		cfg.Reservation, cfg.Payment.Currency)
	e.gym = NewGymService(e.tx, e.gymRepo, e.invoiceRepo, cfg.Payment.Currency)
	e.orders = NewOrderService(e.tx, e.orderRepo, e.bookingRepo, e.invoiceRepo, e.tenantRepo, cfg.Payment.Currency)

	e.setClock(time.Now().UTC())
	return e
}

// setClock 固定所有服务的当前时间
func (e *testEnv) setClock(now time.Time) {
	e.clock = now.UTC()
	fn := func() time.Time { return e.clock }
	e.billing.now = fn
	e.reservations.now = fn
	e.events.now = fn
	e.subscriptions.now = fn
	e.gym.now = fn
	e.orders.now = fn
}

func (e *testEnv) reloadBooking(t *testing.T, id int64) *model.Booking {
	t.Helper()
	b, err := e.bookingRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (e *testEnv) reloadInvoice(t *testing.T, id int64) *model.Invoice {
	t.Helper()
	inv, err := e.invoiceRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (e *testEnv) reloadRoom(t *testing.T, tenantID, id int64) *model.Room {
	t.Helper()
	room, err := e.resourceRepo.GetRoom(context.Background(), tenantID, id)
	require.NoError(t, err)
	return room
}

func (e *testEnv) countNotifications(t *testing.T, recipientID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Notification{}).Where("recipient_id = ?", recipientID).Count(&n).Error)
	return n
}

func (e *testEnv) mailLength(t *testing.T) int64 {
	t.Helper()
	n, err := e.mail.Length(context.Background())
	require.NoError(t, err)
	return n
}
