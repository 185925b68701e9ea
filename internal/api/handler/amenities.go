package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

// AmenityHandler 健身会籍与客房服务下单
type AmenityHandler struct {
	gymService   *service.GymService
	orderService *service.OrderService
}

func NewAmenityHandler(gymService *service.GymService, orderService *service.OrderService) *AmenityHandler {
	return &AmenityHandler{gymService: gymService, orderService: orderService}
}

// JoinGym 购买健身会籍，支付后生效
// POST /api/v1/gym/memberships
func (h *AmenityHandler) JoinGym(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.JoinGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	m, inv, err := h.gymService.Join(c.Request.Context(), tc.TenantID(), userID, req.PlanID, req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "会籍已创建，支付后生效", &dto.GymMembershipInfo{
		ID:         m.ID,
		PlanID:     m.PlanID,
		Status:     m.Status,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		Amount:     inv.Amount,
		InvoiceID:  inv.ID,
		PaymentURL: invoicePaymentPath(inv.ID),
	})
}

// CreateOrder 客房服务下单
// POST /api/v1/orders
func (h *AmenityHandler) CreateOrder(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	o, inv, err := h.orderService.Create(c.Request.Context(), tc.TenantID(), optionalUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "订单已提交，支付后开始制作", &dto.OrderInfo{
		ID:         o.ID,
		OrderCode:  o.OrderCode,
		Status:     o.Status,
		Total:      o.Total,
		InvoiceID:  inv.ID,
		PaymentURL: invoicePaymentPath(inv.ID),
	})
}
