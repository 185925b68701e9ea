package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/repository"
)

var (
	ErrSubdomainTaken = errors.New("子域名已被占用")
	ErrNotTenantOwner = errors.New("只有酒店所有者可以修改订阅设置")
	ErrFreePlan       = errors.New("免费套餐无需支付")
)

// 免费套餐的有效期
const freePlanYears = 100

// 到期提醒的提前天数
var expirationWarningDays = []int{7, 3, 1}

// 订阅过期后仍然放行的路由前缀
var subscriptionExemptPrefixes = []string{
	"/health",
	"/api/v1/auth/",
	"/api/v1/payments/",
	"/api/v1/subscription",
	"/api/v1/platform/",
}

// 拒绝原因
const (
	ReasonSubscriptionExpired = "subscription_expired"
	ReasonTenantInactive      = "tenant_inactive"
)

// Decision 订阅访问控制结果
type Decision struct {
	Allowed  bool
	Reason   string
	Redirect string
}

// SignupResult 平台注册结果
type SignupResult struct {
	Tenant  *model.Tenant
	Owner   *model.User
	Invoice *model.Invoice // 免费套餐为 nil
}

// SubscriptionService 租户订阅：注册、支付激活、访问控制、自动续费、到期提醒
type SubscriptionService struct {
	txManager   *dbtx.Manager
	tenantRepo  *repository.TenantRepository
	userRepo    *repository.UserRepository
	invoiceRepo *repository.InvoiceRepository
	gateways    *gateway.Registry
	notifier    *NotificationService
	platform    config.PlatformConfig
	payment     config.PaymentConfig
	log         *slog.Logger
	now         func() time.Time
}

func NewSubscriptionService(
	txManager *dbtx.Manager,
	tenantRepo *repository.TenantRepository,
	userRepo *repository.UserRepository,
	invoiceRepo *repository.InvoiceRepository,
	gateways *gateway.Registry,
	notifier *NotificationService,
	platform config.PlatformConfig,
	payment config.PaymentConfig,
) *SubscriptionService {
	if platform.PaymentPath == "" {
		platform.PaymentPath = "/api/v1/subscription/pay"
	}
	if payment.RenewalGateway == "" {
		payment.RenewalGateway = gateway.NameStripe
	}
	if payment.VerifyTimeout <= 0 {
		payment.VerifyTimeout = 10 * time.Second
	}
	return &SubscriptionService{
		txManager:   txManager,
		tenantRepo:  tenantRepo,
		userRepo:    userRepo,
		invoiceRepo: invoiceRepo,
		gateways:    gateways,
		notifier:    notifier,
		platform:    platform,
		payment:     payment,
		log:         logger.WithComponent("subscription"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Signup 创建所有者、租户及 ADMIN 成员关系；付费套餐同时开出订阅账单
func (s *SubscriptionService) Signup(ctx context.Context, req *dto.SignupRequest) (*SignupResult, error) {
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = model.BillingMonthly
	}

	result := &SignupResult{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.tenantRepo.GetPlan(ctx, req.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}

		taken, err := s.tenantRepo.ExistsBySubdomain(ctx, subdomain)
		if err != nil {
			return err
		}
		if taken {
			return ErrSubdomainTaken
		}

		owner, err := s.ownerFor(ctx, email, req)
		if err != nil {
			return err
		}

		tenant := &model.Tenant{
			Name:          req.TenantName,
			Slug:          subdomain,
			Subdomain:     subdomain,
			HotelName:     req.HotelName,
			BookingPrefix: strings.ToUpper(req.BookingPrefix),
			OwnerID:       owner.ID,
			PlanID:        &plan.ID,
			BillingCycle:  cycle,
		}
		if plan.IsFree() {
			end := s.now().AddDate(freePlanYears, 0, 0)
			tenant.IsActive = true
			tenant.SubscriptionStatus = model.SubscriptionActive
			tenant.SubscriptionEndDate = &end
		} else {
			tenant.IsActive = false
			tenant.SubscriptionStatus = model.SubscriptionPendingPayment
		}
		if err := s.tenantRepo.Create(ctx, tenant); err != nil {
			return err
		}

		if req.Domain != "" {
			d := &model.Domain{TenantID: tenant.ID, Domain: strings.ToLower(req.Domain), IsPrimary: true}
			if err := s.tenantRepo.CreateDomain(ctx, d); err != nil {
				return err
			}
		}

		m := &model.Membership{UserID: owner.ID, TenantID: tenant.ID, Role: model.RoleAdmin, IsActive: true}
		if err := s.tenantRepo.CreateMembership(ctx, m); err != nil {
			return err
		}

		if !plan.IsFree() {
			inv, err := s.newSubscriptionInvoice(ctx, tenant, plan, model.InvoicePending)
			if err != nil {
				return err
			}
			result.Invoice = inv
		}

		tenant.Plan = plan
		result.Tenant = tenant
		result.Owner = owner
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant signed up",
		"tenant_id", result.Tenant.ID,
		"subdomain", result.Tenant.Subdomain,
		"status", result.Tenant.SubscriptionStatus)
	return result, nil
}

// ownerFor 已注册用户需提供正确密码，否则新建用户
func (s *SubscriptionService) ownerFor(ctx context.Context, email string, req *dto.SignupRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !checkPassword(user.PasswordHash, req.Password) {
			return nil, ErrInvalidCredentials
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user = &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *SubscriptionService) newSubscriptionInvoice(ctx context.Context, tenant *model.Tenant, plan *model.Plan, status string) (*model.Invoice, error) {
	due := s.now()
	inv := &model.Invoice{
		TenantID:    tenant.ID,
		Amount:      plan.CyclePrice(tenant.BillingCycle),
		Currency:    plan.Currency,
		Status:      status,
		Description: fmt.Sprintf("%s plan (%s)", plan.Name, tenant.BillingCycle),
		DueDate:     &due,
	}
	if status == model.InvoicePaid {
		inv.PaidAt = &due
	}
	inv.SetTarget(model.SubscriptionTarget{TenantID: tenant.ID})
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ActivateFromPayment 订阅账单支付后激活租户，有效期从现在起算一个计费周期
func (s *SubscriptionService) ActivateFromPayment(ctx context.Context, tenantID int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tenant, err := s.tenantRepo.GetByIDForUpdate(ctx, tenantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return err
		}

		end := s.now().AddDate(0, 0, tenant.CycleDays())
		if err := s.tenantRepo.UpdateFields(ctx, tenant.ID, map[string]interface{}{
			"is_active":             true,
			"subscription_status":   model.SubscriptionActive,
			"subscription_end_date": end,
		}); err != nil {
			return err
		}

		s.log.Info("subscription activated", "tenant_id", tenant.ID, "end_date", end)
		return nil
	})
}

// CheckAccess 订阅到期后只放行支付、认证和健康检查路由；超级管理员与平台请求不受限
func (s *SubscriptionService) CheckAccess(tc *tenancy.TenantContext, user *model.User, path string) Decision {
	if tc == nil || tc.Tenant == nil {
		return Decision{Allowed: true}
	}
	if user != nil && user.IsSuperuser {
		return Decision{Allowed: true}
	}
	if isSubscriptionExempt(path) {
		return Decision{Allowed: true}
	}

	if tc.SubscriptionExpired(s.now()) {
		return Decision{Reason: ReasonSubscriptionExpired, Redirect: s.platform.PaymentPath}
	}
	if !tc.Tenant.IsActive {
		return Decision{Reason: ReasonTenantInactive, Redirect: s.platform.PaymentPath}
	}
	return Decision{Allowed: true}
}

func isSubscriptionExempt(path string) bool {
	for _, prefix := range subscriptionExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Get 当前租户订阅
func (s *SubscriptionService) Get(ctx context.Context, tenantID int64) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if tenant.PlanID != nil && tenant.Plan == nil {
		if plan, err := s.tenantRepo.GetPlan(ctx, *tenant.PlanID); err == nil {
			tenant.Plan = plan
		}
	}
	return tenant, nil
}

// IssueInvoice 返回租户当前待支付的订阅账单，没有则按套餐新开一张
func (s *SubscriptionService) IssueInvoice(ctx context.Context, tc *tenancy.TenantContext) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tenant, err := s.tenantRepo.GetByIDForUpdate(ctx, tc.Tenant.ID)
		if err != nil {
			return err
		}

		pending, err := s.invoiceRepo.GetPendingByTarget(ctx, model.TargetSubscription, tenant.ID)
		if err == nil {
			inv = pending
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if tenant.PlanID == nil {
			return ErrPlanNotFound
		}
		plan, err := s.tenantRepo.GetPlan(ctx, *tenant.PlanID)
		if err != nil {
			return err
		}
		if plan.IsFree() {
			return ErrFreePlan
		}

		inv, err = s.newSubscriptionInvoice(ctx, tenant, plan, model.InvoicePending)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// PaymentURL 账单的支付入口
func (s *SubscriptionService) PaymentURL(invoiceID int64) string {
	return fmt.Sprintf("%s?invoice_id=%d", s.platform.PaymentPath, invoiceID)
}

// SetAutoRenew 所有者开关自动续费
func (s *SubscriptionService) SetAutoRenew(ctx context.Context, tc *tenancy.TenantContext, user *model.User, enabled bool) error {
	if err := s.requireOwner(tc, user); err != nil {
		return err
	}
	return s.tenantRepo.UpdateFields(ctx, tc.Tenant.ID, map[string]interface{}{"auto_renew": enabled})
}

// StoreAuthorization 保存网关返回的可复用支付授权
func (s *SubscriptionService) StoreAuthorization(ctx context.Context, tc *tenancy.TenantContext, user *model.User, authorization string) error {
	if err := s.requireOwner(tc, user); err != nil {
		return err
	}
	return s.tenantRepo.UpdateFields(ctx, tc.Tenant.ID, map[string]interface{}{"payment_auth_code": authorization})
}

func (s *SubscriptionService) requireOwner(tc *tenancy.TenantContext, user *model.User) error {
	if tc == nil || tc.Tenant == nil {
		return ErrTenantNotResolved
	}
	if user == nil {
		return ErrNotTenantOwner
	}
	if user.IsSuperuser || tc.Tenant.OwnerID == user.ID {
		return nil
	}
	return ErrNotTenantOwner
}

// ProcessAutoRenewals 对已到期且开启自动续费的租户发起扣款，包括上次被拒的 past_due 租户
func (s *SubscriptionService) ProcessAutoRenewals(ctx context.Context) (int, error) {
	now := s.now()
	tenants, err := s.tenantRepo.ListDueForRenewal(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(tenants) == 0 {
		return 0, nil
	}

	g, err := s.gateways.Get(s.payment.RenewalGateway)
	if err != nil {
		return 0, err
	}

	renewed := 0
	for i := range tenants {
		id := tenants[i].ID
		ok, err := s.renew(ctx, g, id, now)
		if err != nil {
			s.log.Error("auto renewal failed", "tenant_id", id, "error", err)
			continue
		}
		if ok {
			renewed++
		}
	}
	return renewed, nil
}

// renewal 一次续费扣款的结果，提交后据此发邮件
type renewal struct {
	tenant *model.Tenant
	plan   *model.Plan
	amount decimal.Decimal
	result *gateway.ChargeResult
	end    time.Time
}

// renew 单个租户续费。行锁内重新确认仍需续费后才扣款，并发或重跑的扫描不会重复扣款；
// 扣款被拒时标记 past_due，网络错误回滚留待下次重试
func (s *SubscriptionService) renew(ctx context.Context, g gateway.Gateway, tenantID int64, now time.Time) (bool, error) {
	var r *renewal
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.tenantRepo.LockDueForRenewal(ctx, tenantID, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		plan, err := s.tenantRepo.GetPlan(ctx, *t.PlanID)
		if err != nil {
			return err
		}
		amount := plan.CyclePrice(t.BillingCycle)

		cctx, cancel := context.WithTimeout(ctx, s.payment.VerifyTimeout)
		res, err := g.Charge(cctx, &gateway.ChargeRequest{
			Amount:         amount,
			Currency:       plan.Currency,
			Authorization:  t.PaymentAuthCode,
			Description:    fmt.Sprintf("%s subscription renewal (%s)", plan.Name, t.BillingCycle),
			Metadata:       map[string]string{"tenant_id": fmt.Sprintf("%d", t.ID)},
			IdempotencyKey: renewalKey(t, now),
		})
		cancel()
		if err != nil {
			return err
		}
		r = &renewal{tenant: t, plan: plan, amount: amount, result: res}

		if !res.Succeeded {
			return s.tenantRepo.UpdateFields(ctx, t.ID, map[string]interface{}{
				"subscription_status": model.SubscriptionPastDue,
			})
		}

		r.end = s.now().AddDate(0, 0, t.CycleDays())
		inv, err := s.newSubscriptionInvoice(ctx, t, plan, model.InvoicePaid)
		if err != nil {
			return err
		}
		payment := &model.Payment{
			InvoiceID:     inv.ID,
			Amount:        inv.Amount,
			Method:        model.PaymentAutoRenew,
			TransactionID: gateway.NewTransactionID("AUTO"),
			PaidAt:        s.now(),
		}
		if err := s.invoiceRepo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return s.tenantRepo.UpdateFields(ctx, t.ID, map[string]interface{}{
			"is_active":             true,
			"subscription_status":   model.SubscriptionActive,
			"subscription_end_date": r.end,
		})
	})
	if err != nil {
		return false, err
	}
	if r == nil {
		s.log.Info("tenant no longer due for renewal", "tenant_id", tenantID)
		return false, nil
	}

	t := r.tenant
	data := map[string]string{
		"tenant_name": t.Name,
		"plan":        r.plan.Name,
		"amount":      r.amount.StringFixed(2),
		"currency":    r.plan.Currency,
	}

	if !r.result.Succeeded {
		endDate := ""
		if t.SubscriptionEndDate != nil {
			endDate = t.SubscriptionEndDate.UTC().Format("2006-01-02")
			data["end_date"] = endDate
		}
		s.log.Warn("renewal charge declined", "tenant_id", t.ID, "reason", r.result.FailureReason)
		// past_due 期间每天重试，同一到期日只提醒一次
		s.emailOwner(ctx, t, queue.TemplateRenewalFailed, data, fmt.Sprintf("renewal-failed:%d:%s", t.ID, endDate))
		return false, nil
	}

	data["end_date"] = r.end.Format("2006-01-02")
	s.log.Info("subscription auto renewed", "tenant_id", t.ID, "gateway_txn", r.result.TransactionID, "end_date", r.end)
	s.emailOwner(ctx, t, queue.TemplateRenewalSucceeded, data, "")
	return true, nil
}

// renewalKey 同一租户、同一到期日、同一天内的扣款共用一个幂等键
func renewalKey(t *model.Tenant, now time.Time) string {
	end := ""
	if t.SubscriptionEndDate != nil {
		end = t.SubscriptionEndDate.UTC().Format("20060102")
	}
	return fmt.Sprintf("renewal-%d-%s-%s", t.ID, end, now.UTC().Format("20060102"))
}

// SendExpirationWarnings 到期前 7/3/1 天提醒未开启自动续费的租户所有者，每档只提醒一次
func (s *SubscriptionService) SendExpirationWarnings(ctx context.Context) (int, error) {
	today := dateOf(s.now())
	sent := 0

	for _, days := range expirationWarningDays {
		from := today.AddDate(0, 0, days)
		tenants, err := s.tenantRepo.ListExpiringBetween(ctx, from, from.AddDate(0, 0, 1))
		if err != nil {
			return sent, err
		}

		for i := range tenants {
			t := &tenants[i]
			endDate := t.SubscriptionEndDate.UTC().Format("2006-01-02")
			key := fmt.Sprintf("expiry-warning:%d:%d:%s", t.ID, days, endDate)

			n, err := s.notifier.Notify(ctx, Notice{
				TenantID:     t.ID,
				RecipientIDs: []int64{t.OwnerID},
				Title:        "Subscription Expiring",
				Message:      fmt.Sprintf("Your subscription expires in %d day(s), on %s.", days, endDate),
				Type:         model.NotifyWarning,
				Link:         s.platform.PaymentPath,
				DedupKey:     key,
			})
			if err != nil {
				s.log.Error("failed to send expiration warning", "tenant_id", t.ID, "error", err)
				continue
			}
			if n == 0 {
				continue
			}

			sent++
			s.log.Info("expiration warning sent", "tenant_id", t.ID, "days", days)
			planName := ""
			if t.PlanID != nil {
				if plan, err := s.tenantRepo.GetPlan(ctx, *t.PlanID); err == nil {
					planName = plan.Name
				}
			}
			s.emailOwner(ctx, t, queue.TemplateExpirationWarning, map[string]string{
				"tenant_name": t.Name,
				"plan":        planName,
				"days_left":   fmt.Sprintf("%d", days),
				"end_date":    endDate,
			}, key)
		}
	}
	return sent, nil
}

func (s *SubscriptionService) emailOwner(ctx context.Context, t *model.Tenant, template string, data map[string]string, dedupKey string) {
	owner, err := s.userRepo.GetByID(ctx, t.OwnerID)
	if err != nil {
		s.log.Warn("tenant owner not found", "tenant_id", t.ID, "owner_id", t.OwnerID)
		return
	}
	if _, err := s.notifier.Email(ctx, &queue.EmailJob{
		To:       owner.Email,
		Template: template,
		TenantID: t.ID,
		Data:     data,
	}, dedupKey); err != nil {
		s.log.Error("failed to enqueue owner email", "tenant_id", t.ID, "template", template, "error", err)
	}
}
