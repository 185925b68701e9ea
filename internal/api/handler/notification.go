package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/api/middleware"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List 当前用户在本酒店的通知
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var q dto.NotificationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.notificationService.List(c.Request.Context(), tc.TenantID(), userID, q.UnreadOnly, q.Page, q.PageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessPage(c, total, q.Page, q.PageSize, items)
}

// MarkRead 标记已读
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已标记为已读", nil)
}
