package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type EventBookingHandler struct {
	eventService *service.EventBookingService
	actor        actor
}

func NewEventBookingHandler(eventService *service.EventBookingService, policy *service.Policy, authService *service.AuthService) *EventBookingHandler {
	return &EventBookingHandler{
		eventService: eventService,
		actor:        actor{policy: policy, authService: authService},
	}
}

// Create 预订会议厅
// POST /api/v1/event-bookings
func (h *EventBookingHandler) Create(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.CreateEventBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.eventService.Create(c.Request.Context(), tc, optionalUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "会议厅预订已创建", toEventBookingInfo(result.Booking, result.Invoice))
}

// Get 会议厅预订详情
// GET /api/v1/event-bookings/:id
func (h *EventBookingHandler) Get(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.eventService.Get(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.actor.can(c, b.UserID, service.CapManageEvents) {
		response.NotFoundError(c, service.ErrBookingNotFound.Error())
		return
	}
	response.Success(c, toEventBookingInfo(b, nil))
}

// Confirm 线下确认
// POST /api/v1/event-bookings/:id/confirm
func (h *EventBookingHandler) Confirm(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.eventService.Confirm(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "会议厅预订已确认", toEventBookingInfo(b, nil))
}

// Complete 活动结束
// POST /api/v1/event-bookings/:id/complete
func (h *EventBookingHandler) Complete(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.eventService.Complete(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "活动已完成", toEventBookingInfo(b, nil))
}

// Cancel 取消会议厅预订，本人或活动经理可操作
// POST /api/v1/event-bookings/:id/cancel
func (h *EventBookingHandler) Cancel(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.eventService.Get(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.actor.can(c, b.UserID, service.CapManageEvents) {
		response.PermissionError(c, "")
		return
	}

	b, err = h.eventService.Cancel(c.Request.Context(), tc.TenantID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "会议厅预订已取消", toEventBookingInfo(b, nil))
}
