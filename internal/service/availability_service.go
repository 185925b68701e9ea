package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// AvailabilityResult 按资源类型返回其一
type AvailabilityResult struct {
	ResourceType string
	Rooms        []model.Room
	Halls        []model.EventHall
}

// AvailabilityService 可用资源查询，每次直接读库
type AvailabilityService struct {
	resourceRepo *repository.ResourceRepository
}

func NewAvailabilityService(resourceRepo *repository.ResourceRepository) *AvailabilityService {
	return &AvailabilityService{resourceRepo: resourceRepo}
}

// AvailableRooms 在 [start, end) 内可预订的房间
func (s *AvailabilityService) AvailableRooms(ctx context.Context, tenantID int64, start, end time.Time, f repository.ResourceFilter) ([]model.Room, error) {
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}
	return s.resourceRepo.ListFreeRooms(ctx, tenantID, start, end, f)
}

// AvailableHalls 在 [start, end) 内可预订的会议厅
func (s *AvailabilityService) AvailableHalls(ctx context.Context, tenantID int64, start, end time.Time, f repository.ResourceFilter) ([]model.EventHall, error) {
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}
	return s.resourceRepo.ListFreeHalls(ctx, tenantID, start, end, f)
}

// Available 按资源类型分发
func (s *AvailabilityService) Available(ctx context.Context, tenantID int64, resourceType string, start, end time.Time, f repository.ResourceFilter) (*AvailabilityResult, error) {
	result := &AvailabilityResult{ResourceType: resourceType}

	var err error
	switch resourceType {
	case model.ResourceTypeRoom, "":
		result.ResourceType = model.ResourceTypeRoom
		result.Rooms, err = s.AvailableRooms(ctx, tenantID, start, end, f)
	case model.ResourceTypeHall:
		result.Halls, err = s.AvailableHalls(ctx, tenantID, start, end, f)
	default:
		return nil, fmt.Errorf("unknown resource type %q", resourceType)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
