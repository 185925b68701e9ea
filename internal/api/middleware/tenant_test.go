package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/service"
	"github.com/qs3c/hms_go_server/internal/testutil"
)

type guardEnv struct {
	db            *gorm.DB
	resolver      *service.TenantResolver
	auth          *service.AuthService
	subscriptions *service.SubscriptionService
	policy        *service.Policy
}

func newGuardEnv(t *testing.T) *guardEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: testJWTSecret, ExpireHours: 24},
		Platform: config.PlatformConfig{Host: "platform.test", PaymentPath: "/api/v1/subscription/pay"},
	}
	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifier := service.NewNotificationService(repository.NewNotificationRepository(db), tenantRepo, nil, nil)

	policy, err := service.NewPolicy()
	require.NoError(t, err)

	return &guardEnv{
		db:       db,
		resolver: service.NewTenantResolver(tenantRepo, cfg.Platform.Host),
		auth:     service.NewAuthService(userRepo, tenantRepo, cfg),
		subscriptions: service.NewSubscriptionService(dbtx.NewManager(db), tenantRepo, userRepo,
			repository.NewInvoiceRepository(db), gateway.NewRegistry(gateway.NewManualGateway()),
			notifier, cfg.Platform, cfg.Payment),
		policy: policy,
	}
}

func (e *guardEnv) router() *gin.Engine {
	router := gin.New()
	router.Use(Tenant(e.resolver), OptionalAuth(testJWTSecret), SubscriptionGuard(e.subscriptions, e.auth))
	echo := func(c *gin.Context) {
		tenantID := int64(0)
		if tc := tenancy.FromContext(c.Request.Context()); tc != nil {
			tenantID = tc.TenantID()
		}
		response.Success(c, gin.H{"tenant_id": tenantID})
	}
	router.GET("/health", echo)
	router.GET("/api/v1/availability", RequireTenant(), echo)
	router.POST("/api/v1/subscription/pay", echo)
	router.POST("/api/v1/bookings/:id/check-in", Auth(testJWTSecret),
		RequireCapability(e.policy, e.auth, service.CapManageBookings), echo)
	return router
}

func doRequest(router *gin.Engine, method, host, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Host = host
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTenant_Binding(t *testing.T) {
	env := newGuardEnv(t)
	owner := testutil.TestUser(t, env.db)
	tenant := testutil.TestTenant(t, env.db, owner.ID, testutil.WithSubdomain("grandpalace"))
	testutil.TestDomain(t, env.db, tenant.ID, "book.grandpalace.com")
	router := env.router()

	w := doRequest(router, "GET", "grandpalace.platform.test:8080", "/api/v1/availability", "")
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(tenant.ID), resp.Data.(map[string]interface{})["tenant_id"])

	w = doRequest(router, "GET", "BOOK.grandpalace.com", "/api/v1/availability", "")
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(tenant.ID), resp.Data.(map[string]interface{})["tenant_id"])

	w = doRequest(router, "GET", "platform.test", "/api/v1/availability", "")
	assert.Equal(t, response.CodeTenantNotResolved, parseResponse(t, w).Code)

	w = doRequest(router, "GET", "unknown.platform.test", "/api/v1/availability", "")
	assert.Equal(t, response.CodeTenantNotResolved, parseResponse(t, w).Code)

	w = doRequest(router, "GET", "platform.test", "/health", "")
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)
}

func TestSubscriptionGuard(t *testing.T) {
	env := newGuardEnv(t)
	owner := testutil.TestUser(t, env.db)
	super := testutil.TestUser(t, env.db, testutil.WithSuperuser())
	testutil.TestTenant(t, env.db, owner.ID, testutil.WithSubdomain("expired"),
		testutil.WithSubscriptionEnd(time.Now().UTC().Add(-time.Hour)))
	inactive := testutil.TestTenant(t, env.db, owner.ID, testutil.WithSubdomain("pending"))
	require.NoError(t, env.db.Model(&model.Tenant{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	router := env.router()

	w := doRequest(router, "GET", "expired.platform.test", "/api/v1/availability", "")
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSubscriptionExpired, resp.Code)
	assert.Equal(t, "/api/v1/subscription/pay", resp.Data.(map[string]interface{})["redirect"])

	w = doRequest(router, "POST", "expired.platform.test", "/api/v1/subscription/pay", bearer(t, owner.ID, testJWTSecret, 24))
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = doRequest(router, "GET", "expired.platform.test", "/health", "")
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = doRequest(router, "GET", "expired.platform.test", "/api/v1/availability", bearer(t, super.ID, testJWTSecret, 24))
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = doRequest(router, "GET", "pending.platform.test", "/api/v1/availability", "")
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSubscriptionExpired, resp.Code)
	assert.Equal(t, service.ReasonTenantInactive, resp.Data.(map[string]interface{})["reason"])

	// 待支付的酒店仍能进入支付入口
	w = doRequest(router, "POST", "pending.platform.test", "/api/v1/subscription/pay", bearer(t, owner.ID, testJWTSecret, 24))
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)
}

func TestRequireCapability(t *testing.T) {
	env := newGuardEnv(t)
	owner := testutil.TestUser(t, env.db)
	receptionist := testutil.TestUser(t, env.db)
	cleaner := testutil.TestUser(t, env.db)
	outsider := testutil.TestUser(t, env.db)
	super := testutil.TestUser(t, env.db, testutil.WithSuperuser())
	tenant := testutil.TestTenant(t, env.db, owner.ID, testutil.WithSubdomain("grandpalace"))
	testutil.TestMembership(t, env.db, owner.ID, tenant.ID, model.RoleAdmin)
	testutil.TestMembership(t, env.db, receptionist.ID, tenant.ID, model.RoleReceptionist)
	testutil.TestMembership(t, env.db, cleaner.ID, tenant.ID, model.RoleCleaner)
	router := env.router()

	tests := []struct {
		name   string
		userID int64
		code   int
	}{
		{"admin inherits", owner.ID, response.CodeSuccess},
		{"receptionist", receptionist.ID, response.CodeSuccess},
		{"cleaner", cleaner.ID, response.CodePermissionDenied},
		{"not a member", outsider.ID, response.CodePermissionDenied},
		{"superuser", super.ID, response.CodeSuccess},
		{"deleted user", 99999, response.CodeAuthFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "POST", "grandpalace.platform.test", "/api/v1/bookings/1/check-in",
				bearer(t, tt.userID, testJWTSecret, 24))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.code, parseResponse(t, w).Code)
		})
	}

	w := doRequest(router, "POST", "grandpalace.platform.test", "/api/v1/bookings/1/check-in", "")
	assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
}
