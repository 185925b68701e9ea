package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type BookingHandler struct {
	reservationService *service.ReservationService
	actor              actor
}

func NewBookingHandler(reservationService *service.ReservationService, policy *service.Policy, authService *service.AuthService) *BookingHandler {
	return &BookingHandler{
		reservationService: reservationService,
		actor:              actor{policy: policy, authService: authService},
	}
}

// Create 创建客房预订，同时生成待支付账单
// POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.reservationService.Create(c.Request.Context(), tc, optionalUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "预订已创建，请在30分钟内完成支付", &dto.CreateBookingResponse{
		BookingID:  result.Booking.ID,
		Reference:  result.Booking.Reference,
		Status:     result.Booking.Status,
		InvoiceID:  result.Invoice.ID,
		TotalPrice: result.Booking.TotalPrice,
		PaymentURL: invoicePaymentPath(result.Invoice.ID),
	})
}

// Get 预订详情，本人或前台可查看
// GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	booking, err := h.reservationService.Get(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.actor.can(c, booking.UserID, service.CapManageBookings) {
		response.NotFoundError(c, service.ErrBookingNotFound.Error())
		return
	}

	response.Success(c, toBookingInfo(booking))
}

// List 预订列表（前台）
// GET /api/v1/bookings
func (h *BookingHandler) List(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var q dto.BookingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.reservationService.List(c.Request.Context(), tc.TenantID(), q.Status, q.Page, q.PageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	infos := make([]*dto.BookingInfo, 0, len(items))
	for i := range items {
		infos = append(infos, toBookingInfo(&items[i]))
	}
	response.SuccessPage(c, total, q.Page, q.PageSize, infos)
}

// Confirm 手动确认
// POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, h.reservationService.Confirm, "预订已确认")
}

// CheckIn 办理入住
// POST /api/v1/bookings/:id/check-in
func (h *BookingHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.reservationService.CheckIn, "入住成功")
}

// CheckOut 办理离店
// POST /api/v1/bookings/:id/check-out
func (h *BookingHandler) CheckOut(c *gin.Context) {
	h.transition(c, h.reservationService.CheckOut, "离店成功")
}

// Cancel 取消预订，本人或前台可操作
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	booking, err := h.reservationService.Get(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.actor.can(c, booking.UserID, service.CapManageBookings) {
		response.PermissionError(c, "")
		return
	}

	booking, err = h.reservationService.Cancel(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "预订已取消", toBookingInfo(booking))
}

// Extend 续住
// POST /api/v1/bookings/:id/extend
func (h *BookingHandler) Extend(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ExtendBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.reservationService.Extend(c.Request.Context(), tc.TenantID(), id, req.NewCheckOut)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "续住成功", &dto.ExtendBookingResponse{
		Booking:     toBookingInfo(result.Booking),
		ExtraAmount: result.ExtraAmount,
		InvoiceID:   result.Invoice.ID,
	})
}

// ManualPayment 前台录入现金或转账
// POST /api/v1/bookings/:id/manual-payment
func (h *BookingHandler) ManualPayment(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.reservationService.RecordManualPayment(c.Request.Context(), tc.TenantID(), id, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "收款已登记", toSettleResponse(result))
}

type bookingTransition func(ctx context.Context, tenantID, id int64) (*model.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, fn bookingTransition, message string) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	booking, err := fn(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, message, toBookingInfo(booking))
}
