package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type PaymentHandler struct {
	billingService *service.BillingService
}

func NewPaymentHandler(billingService *service.BillingService) *PaymentHandler {
	return &PaymentHandler{billingService: billingService}
}

// Callback 网关回跳或 webhook：向网关核实后结算，重复回调返回已结算
// GET|POST /api/v1/payments/callback?gateway=&reference=&invoice_id=
func (h *PaymentHandler) Callback(c *gin.Context) {
	var q dto.PaymentCallbackQuery
	if err := c.ShouldBind(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if tc := middleware.GetTenant(c); tc != nil {
		inv, err := h.billingService.GetInvoice(c.Request.Context(), q.InvoiceID)
		if err != nil {
			respondError(c, err)
			return
		}
		if inv.TenantID != tc.TenantID() {
			response.NotFoundError(c, service.ErrInvoiceNotFound.Error())
			return
		}
	}

	result, err := h.billingService.VerifyAndSettle(c.Request.Context(), q.Gateway, q.Reference, q.InvoiceID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "支付成功"
	if result.AlreadySettled {
		message = "账单已支付"
	}
	response.SuccessWithMessage(c, message, toSettleResponse(result))
}

// GetInvoice 支付页读取账单
// GET /api/v1/payments/invoices/:id
func (h *PaymentHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := h.billingService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if tc := middleware.GetTenant(c); tc != nil && inv.TenantID != tc.TenantID() {
		response.NotFoundError(c, service.ErrInvoiceNotFound.Error())
		return
	}
	response.Success(c, toInvoiceInfo(inv))
}
