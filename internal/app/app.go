package app

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/api"
	"github.com/qs3c/hms_go_server/internal/api/handler"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/pubsub"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/pkg/ws"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/service"
	"github.com/qs3c/hms_go_server/internal/worker"
)

// App server、worker、sweep 共用的服务装配
type App struct {
	Config    *config.Config
	MailQueue *queue.Queue
	Gateways  *gateway.Registry

	Auth          *service.AuthService
	Users         *service.UserService
	Policy        *service.Policy
	Resolver      *service.TenantResolver
	Availability  *service.AvailabilityService
	Rooms         *service.ResourceService
	Notifier      *service.NotificationService
	Billing       *service.BillingService
	Reservations  *service.ReservationService
	Events        *service.EventBookingService
	Subscriptions *service.SubscriptionService
	Gym           *service.GymService
	Orders        *service.OrderService
}

// New 未传入网关时按配置注册 Stripe 与线下收款
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gateways ...gateway.Gateway) (*App, error) {
	if len(gateways) == 0 {
		gateways = []gateway.Gateway{gateway.NewManualGateway()}
		if cfg.Payment.StripeSecretKey != "" {
			gateways = append(gateways, gateway.NewStripeGateway(gateway.StripeConfig{
				SecretKey: cfg.Payment.StripeSecretKey,
				Timeout:   cfg.Payment.VerifyTimeout,
			}))
		}
	}
	registry := gateway.NewRegistry(gateways...)

	policy, err := service.NewPolicy()
	if err != nil {
		return nil, fmt.Errorf("init policy: %w", err)
	}

	txManager := dbtx.NewManager(db)
	mailQueue := queue.NewQueue(rdb, cfg.Queue.EmailQueue)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewEventBookingRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	gymRepo := repository.NewGymRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 初始化 Service
	a := &App{
		Config:    cfg,
		MailQueue: mailQueue,
		Gateways:  registry,
		Policy:    policy,
	}
	currency := cfg.Payment.Currency
	a.Auth = service.NewAuthService(userRepo, tenantRepo, cfg)
	a.Users = service.NewUserService(userRepo, tenantRepo)
	a.Resolver = service.NewTenantResolver(tenantRepo, cfg.Platform.Host)
	a.Availability = service.NewAvailabilityService(resourceRepo)
	a.Notifier = service.NewNotificationService(notificationRepo, tenantRepo, pubsub.NewPublisher(rdb), mailQueue)
	a.Subscriptions = service.NewSubscriptionService(txManager, tenantRepo, userRepo, invoiceRepo,
		registry, a.Notifier, cfg.Platform, cfg.Payment)
	a.Billing = service.NewBillingService(txManager, invoiceRepo, bookingRepo, eventRepo, gymRepo, orderRepo,
		a.Subscriptions, registry, a.Notifier, cfg.Payment.VerifyTimeout)
	a.Rooms = service.NewResourceService(txManager, resourceRepo, bookingRepo, a.Notifier)
	a.Reservations = service.NewReservationService(txManager, bookingRepo, resourceRepo, invoiceRepo, tenantRepo,
		a.Billing, a.Notifier, cfg.Reservation, currency)
	a.Events = service.NewEventBookingService(txManager, eventRepo, resourceRepo, invoiceRepo, tenantRepo,
		cfg.Reservation, currency)
	a.Gym = service.NewGymService(txManager, gymRepo, invoiceRepo, currency)
	a.Orders = service.NewOrderService(txManager, orderRepo, bookingRepo, invoiceRepo, tenantRepo, currency)

	return a, nil
}

// Router HTTP 路由
func (a *App) Router(hub *ws.Hub) *api.Router {
	handlers := &api.Handlers{
		Auth:         handler.NewAuthHandler(a.Auth),
		User:         handler.NewUserHandler(a.Users),
		Availability: handler.NewAvailabilityHandler(a.Availability),
		Booking:      handler.NewBookingHandler(a.Reservations, a.Policy, a.Auth),
		EventBooking: handler.NewEventBookingHandler(a.Events, a.Policy, a.Auth),
		Amenity:      handler.NewAmenityHandler(a.Gym, a.Orders),
		Room:         handler.NewRoomHandler(a.Rooms),
		Payment:      handler.NewPaymentHandler(a.Billing),
		Subscription: handler.NewSubscriptionHandler(a.Subscriptions, a.Auth),
		Notification: handler.NewNotificationHandler(a.Notifier),
		WebSocket:    handler.NewWebSocketHandler(hub, a.Config.JWT.Secret, a.Config.CORS.AllowedOrigins),
	}
	return api.NewRouter(handlers, a.Resolver, a.Auth, a.Subscriptions, a.Policy, a.Config)
}

// Sweeps 全部批处理任务
func (a *App) Sweeps() *worker.Sweeps {
	return worker.NewSweeps(a.Reservations, a.Events, a.Subscriptions)
}
