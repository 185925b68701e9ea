package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/api/handler"
	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

// Handlers 全部 HTTP 处理器
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Availability *handler.AvailabilityHandler
	Booking      *handler.BookingHandler
	EventBooking *handler.EventBookingHandler
	Amenity      *handler.AmenityHandler
	Room         *handler.RoomHandler
	Payment      *handler.PaymentHandler
	Subscription *handler.SubscriptionHandler
	Notification *handler.NotificationHandler
	WebSocket    *handler.WebSocketHandler
}

type Router struct {
	handlers            *Handlers
	tenantResolver      *service.TenantResolver
	authService         *service.AuthService
	subscriptionService *service.SubscriptionService
	policy              *service.Policy
	cfg                 *config.Config
}

func NewRouter(
	handlers *Handlers,
	tenantResolver *service.TenantResolver,
	authService *service.AuthService,
	subscriptionService *service.SubscriptionService,
	policy *service.Policy,
	cfg *config.Config,
) *Router {
	return &Router{
		handlers:            handlers,
		tenantResolver:      tenantResolver,
		authService:         authService,
		subscriptionService: subscriptionService,
		policy:              policy,
		cfg:                 cfg,
	}
}

func (r *Router) can(capability string) gin.HandlerFunc {
	return middleware.RequireCapability(r.policy, r.authService, capability)
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := r.handlers
	secret := r.cfg.JWT.Secret
	authed := middleware.Auth(secret)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))
	engine.Use(middleware.Tenant(r.tenantResolver))
	engine.Use(middleware.OptionalAuth(secret))
	engine.Use(middleware.SubscriptionGuard(r.subscriptionService, r.authService))

	engine.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", h.WebSocket.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.GET("/me", authed, h.Auth.Me)
		}

		// 用户
		user := api.Group("/user", authed)
		{
			user.GET("/profile", h.User.GetProfile)
			user.PUT("/profile", h.User.UpdateProfile)
			user.PUT("/password", h.User.ChangePassword)
		}

		// 平台域名 - 开通酒店
		api.POST("/platform/signup", h.Subscription.Signup)

		// 支付回调与支付页，订阅过期后仍可访问
		payments := api.Group("/payments")
		{
			payments.GET("/callback", h.Payment.Callback)
			payments.POST("/callback", h.Payment.Callback)
			payments.GET("/invoices/:id", h.Payment.GetInvoice)
		}

		// 以下接口必须绑定酒店
		hotel := api.Group("")
		hotel.Use(middleware.RequireTenant())
		{
			hotel.GET("/availability", h.Availability.List)

			bookings := hotel.Group("/bookings")
			{
				bookings.POST("", h.Booking.Create)
				bookings.GET("", authed, r.can(service.CapManageBookings), h.Booking.List)
				bookings.GET("/:id", authed, h.Booking.Get)
				bookings.POST("/:id/cancel", authed, h.Booking.Cancel)

				staff := bookings.Group("/:id", authed, r.can(service.CapManageBookings))
				{
					staff.POST("/confirm", h.Booking.Confirm)
					staff.POST("/check-in", h.Booking.CheckIn)
					staff.POST("/check-out", h.Booking.CheckOut)
					staff.POST("/extend", h.Booking.Extend)
				}
				bookings.POST("/:id/manual-payment", authed, r.can(service.CapRecordPayments), h.Booking.ManualPayment)
			}

			events := hotel.Group("/event-bookings")
			{
				events.POST("", h.EventBooking.Create)
				events.GET("/:id", authed, h.EventBooking.Get)
				events.POST("/:id/cancel", authed, h.EventBooking.Cancel)
				events.POST("/:id/confirm", authed, r.can(service.CapManageEvents), h.EventBooking.Confirm)
				events.POST("/:id/complete", authed, r.can(service.CapManageEvents), h.EventBooking.Complete)
			}

			hotel.PUT("/rooms/:id/status", authed, r.can(service.CapManageHousekeeping), h.Room.UpdateStatus)

			hotel.POST("/gym/memberships", authed, h.Amenity.JoinGym)
			hotel.POST("/orders", h.Amenity.CreateOrder)

			notifications := hotel.Group("/notifications", authed)
			{
				notifications.GET("", h.Notification.List)
				notifications.POST("/:id/read", h.Notification.MarkRead)
			}

			// 订阅设置由所有者操作，服务层校验
			subscription := hotel.Group("/subscription", authed)
			{
				subscription.GET("", r.can(service.CapManageSubscription), h.Subscription.Get)
				subscription.POST("/pay", r.can(service.CapManageSubscription), h.Subscription.Pay)
				subscription.PUT("/auto-renew", h.Subscription.SetAutoRenew)
				subscription.PUT("/payment-method", h.Subscription.SetPaymentMethod)
			}
		}
	}

	return engine
}
