package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/response"
	"github.com/qs3c/hms_go_server/internal/repository"
	"github.com/qs3c/hms_go_server/internal/service"
)

type AvailabilityHandler struct {
	availabilityService *service.AvailabilityService
}

func NewAvailabilityHandler(availabilityService *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// List 时间段内可预订的房间或会议厅
// GET /api/v1/availability?resource_type=room|hall&start=&end=
func (h *AvailabilityHandler) List(c *gin.Context) {
	tc, ok := requireTenant(c)
	if !ok {
		return
	}

	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.availabilityService.Available(c.Request.Context(), tc.TenantID(), q.ResourceType,
		q.Start.UTC(), q.End.UTC(), repository.ResourceFilter{MinCapacity: q.MinCapacity, RoomTypeID: q.RoomTypeID})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := &dto.AvailabilityResponse{ResourceType: result.ResourceType}
	for _, r := range result.Rooms {
		info := dto.RoomInfo{ID: r.ID, Number: r.Number, Floor: r.Floor, Status: r.Status}
		if r.RoomType != nil {
			info.RoomType = r.RoomType.Name
			info.Capacity = r.RoomType.Capacity
			info.PricePerNight = r.RoomType.PricePerNight
		}
		resp.Rooms = append(resp.Rooms, info)
	}
	for _, hall := range result.Halls {
		resp.Halls = append(resp.Halls, dto.HallInfo{
			ID:          hall.ID,
			Name:        hall.Name,
			Capacity:    hall.Capacity,
			PricingType: hall.PricingType,
			Price:       hall.Price,
		})
	}

	response.Success(c, resp)
}
