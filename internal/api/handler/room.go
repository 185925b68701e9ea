package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/service"
)

// RoomHandler 客房状态维护
type RoomHandler struct {
	resourceService *service.ResourceService
}

func NewRoomHandler(resourceService *service.ResourceService) *RoomHandler {
	return &RoomHandler{resourceService: resourceService}
}

// UpdateStatus 修改房间状态
// PUT /api/v1/rooms/:id/status
func (h *RoomHandler) UpdateStatus(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	room, err := h.resourceService.UpdateRoomStatus(c.Request.Context(), tc.TenantID(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, &dto.RoomInfo{
		ID:     room.ID,
		Number: room.Number,
		Floor:  room.Floor,
		Status: room.Status,
	})
}
