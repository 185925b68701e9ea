package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/repository"
)

var roomStatuses = map[string]struct{}{
	model.ResourceAvailable:   {},
	model.ResourceOccupied:    {},
	model.ResourceMaintenance: {},
	model.ResourceCleaning:    {},
}

// ResourceService 客房物理状态（打扫、维修）
type ResourceService struct {
	txManager    *dbtx.Manager
	resourceRepo *repository.ResourceRepository
	bookingRepo  *repository.BookingRepository
	notifier     *NotificationService
	log          *slog.Logger
}

func NewResourceService(
	txManager *dbtx.Manager,
	resourceRepo *repository.ResourceRepository,
	bookingRepo *repository.BookingRepository,
	notifier *NotificationService,
) *ResourceService {
	return &ResourceService{
		txManager:    txManager,
		resourceRepo: resourceRepo,
		bookingRepo:  bookingRepo,
		notifier:     notifier,
		log:          logger.WithComponent("housekeeping"),
	}
}

// UpdateRoomStatus 修改房间状态。有客人在住时只能保持 OCCUPIED；
// 房间变为 AVAILABLE 时通知前台
func (s *ResourceService) UpdateRoomStatus(ctx context.Context, tenantID, roomID int64, status string) (*model.Room, error) {
	if _, ok := roomStatuses[status]; !ok {
		return nil, ErrInvalidRoomStatus
	}

	var room *model.Room
	var previous string
	ob := &outbox{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := s.resourceRepo.LockRoom(ctx, tenantID, roomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		room = r
		previous = r.Status
		if previous == status {
			return nil
		}

		if status != model.ResourceOccupied {
			occupied, err := s.bookingRepo.GuestInRoom(ctx, r.ID)
			if err != nil {
				return err
			}
			if occupied {
				return fmt.Errorf("%w: room %s has a checked-in guest", ErrInvalidTransition, r.Number)
			}
		}

		if err := s.resourceRepo.UpdateRoomStatus(ctx, r.ID, status); err != nil {
			return err
		}
		r.Status = status

		if status == model.ResourceAvailable {
			ob.toStaff(rolesFrontDesk, Notice{
				TenantID: tenantID,
				Title:    "Room Cleaned",
				Message:  fmt.Sprintf("Room %s is now clean and available.", r.Number),
				Type:     model.NotifySuccess,
				Link:     fmt.Sprintf("/rooms/%d", r.ID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.log.Info("room status updated", "tenant_id", tenantID, "room_id", room.ID, "from", previous, "to", status)
	}
	s.notifier.Flush(ctx, ob)
	return room, nil
}
