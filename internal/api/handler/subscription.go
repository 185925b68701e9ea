package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	authService         *service.AuthService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, authService *service.AuthService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		authService:         authService,
	}
}

// Signup 平台注册酒店
// POST /api/v1/platform/signup
func (h *SubscriptionHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.subscriptionService.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := &dto.SignupResponse{
		TenantID:           result.Tenant.ID,
		Subdomain:          result.Tenant.Subdomain,
		OwnerID:            result.Owner.ID,
		SubscriptionStatus: result.Tenant.SubscriptionStatus,
	}
	if result.Invoice != nil {
		resp.InvoiceID = result.Invoice.ID
		resp.Amount = result.Invoice.Amount
		resp.PaymentURL = h.subscriptionService.PaymentURL(result.Invoice.ID)
	}
	response.SuccessWithMessage(c, "注册成功", resp)
}

// Get 当前酒店的订阅状态
// GET /api/v1/subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	t, err := h.subscriptionService.Get(c.Request.Context(), tc.TenantID())
	if err != nil {
		respondError(c, err)
		return
	}

	info := &dto.SubscriptionInfo{
		TenantID:     t.ID,
		Status:       t.SubscriptionStatus,
		IsActive:     t.IsActive,
		EndDate:      t.SubscriptionEndDate,
		AutoRenew:    t.AutoRenew,
		HasAuthCode:  t.PaymentAuthCode != "",
		BillingCycle: t.BillingCycle,
	}
	if t.Plan != nil {
		info.Plan = t.Plan.Name
	}
	if t.SubscriptionEndDate != nil {
		if left := time.Until(*t.SubscriptionEndDate); left > 0 {
			info.DaysLeft = int(left.Hours() / 24)
		}
	}
	response.Success(c, info)
}

// SetAutoRenew 所有者开关自动续费
// PUT /api/v1/subscription/auto-renew
func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.AutoRenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	user := middleware.CurrentUser(c, h.authService)
	if err := h.subscriptionService.SetAutoRenew(c.Request.Context(), tc, user, req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "设置已保存", gin.H{"auto_renew": req.Enabled})
}

// SetPaymentMethod 保存自动续费使用的支付授权
// PUT /api/v1/subscription/payment-method
func (h *SubscriptionHandler) SetPaymentMethod(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	user := middleware.CurrentUser(c, h.authService)
	if err := h.subscriptionService.StoreAuthorization(c.Request.Context(), tc, user, req.Authorization); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "支付方式已保存", nil)
}

// Pay 订阅续费账单，过期后仍可访问
// POST /api/v1/subscription/pay
func (h *SubscriptionHandler) Pay(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	inv, err := h.subscriptionService.IssueInvoice(c.Request.Context(), tc)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, &dto.SubscriptionPayResponse{
		InvoiceID:  inv.ID,
		Amount:     inv.Amount,
		Currency:   inv.Currency,
		PaymentURL: invoicePaymentPath(inv.ID),
	})
}
