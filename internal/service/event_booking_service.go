package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// EventBookingResult 会议厅预订及其账单
type EventBookingResult struct {
	Booking *model.EventBooking
	Invoice *model.Invoice
}

// EventBookingService 会议厅预订
type EventBookingService struct {
	txManager    *dbtx.Manager
	eventRepo    *repository.EventBookingRepository
	resourceRepo *repository.ResourceRepository
	invoiceRepo  *repository.InvoiceRepository
	tenantRepo   *repository.TenantRepository
	cfg          config.ReservationConfig
	currency     string
	log          *slog.Logger
	now          func() time.Time
}

func NewEventBookingService(
	txManager *dbtx.Manager,
	eventRepo *repository.EventBookingRepository,
	resourceRepo *repository.ResourceRepository,
	invoiceRepo *repository.InvoiceRepository,
	tenantRepo *repository.TenantRepository,
	cfg config.ReservationConfig,
	currency string,
) *EventBookingService {
	if cfg.AbandonTimeout <= 0 {
		cfg.AbandonTimeout = 30 * time.Minute
	}
	if currency == "" {
		currency = "NGN"
	}
	return &EventBookingService{
		txManager:    txManager,
		eventRepo:    eventRepo,
		resourceRepo: resourceRepo,
		invoiceRepo:  invoiceRepo,
		tenantRepo:   tenantRepo,
		cfg:          cfg,
		currency:     currency,
		log:          logger.WithComponent("event_booking"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create 锁定会议厅行后检查冲突，按计价方式计算总价并开账单
func (s *EventBookingService) Create(ctx context.Context, tc *tenancy.TenantContext, userID *int64, req *dto.CreateEventBookingRequest) (*EventBookingResult, error) {
	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}
	tenant := tc.Tenant

	result := &EventBookingResult{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		hall, err := s.resourceRepo.LockHall(ctx, tenant.ID, req.HallID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHallNotFound
			}
			return err
		}
		if !hall.IsActive || hall.Status == model.ResourceMaintenance {
			return ErrResourceUnavailable
		}

		conflict, err := s.eventRepo.ConflictExists(ctx, hall.ID, start, end, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrResourceUnavailable
		}

		seq, err := s.tenantRepo.NextCounter(ctx, tenant.ID, counterBookings)
		if err != nil {
			return err
		}

		booking := &model.EventBooking{
			TenantID:       tenant.ID,
			HallID:         hall.ID,
			UserID:         userID,
			EventName:      req.EventName,
			GuestName:      req.GuestName,
			GuestEmail:     req.GuestEmail,
			GuestPhone:     req.GuestPhone,
			StartTime:      start,
			EndTime:        end,
			Status:         model.BookingPending,
			TotalPrice:     HallPrice(hall, start, end),
			Reference:      FormatReference(ReferencePrefix(tenant), s.now().Year(), seq),
			SequenceNumber: seq,
		}
		if err := s.eventRepo.Create(ctx, booking); err != nil {
			return err
		}

		due := start
		invoice := &model.Invoice{
			TenantID:    tenant.ID,
			Amount:      booking.TotalPrice,
			Currency:    s.currency,
			Status:      model.InvoicePending,
			Description: fmt.Sprintf("%s, %s", hall.Name, booking.EventName),
			DueDate:     &due,
		}
		invoice.SetTarget(model.EventBookingTarget{EventBookingID: booking.ID})
		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			return err
		}

		result.Booking = booking
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("event booking created",
		"tenant_id", tenant.ID,
		"event_booking_id", result.Booking.ID,
		"reference", result.Booking.Reference,
		"hall_id", result.Booking.HallID)
	return result, nil
}

func (s *EventBookingService) Get(ctx context.Context, tenantID, id int64) (*model.EventBooking, error) {
	b, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.TenantID != tenantID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// Confirm PENDING -> CONFIRMED，重复调用无副作用
func (s *EventBookingService) Confirm(ctx context.Context, tenantID, id int64) (*model.EventBooking, error) {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}

	var booking *model.EventBooking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := confirmEventBooking(ctx, s.eventRepo, id)
		booking = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Complete CONFIRMED -> COMPLETED
func (s *EventBookingService) Complete(ctx context.Context, tenantID, id int64) (*model.EventBooking, error) {
	return s.transition(ctx, tenantID, id, []string{model.BookingConfirmed}, model.BookingCompleted)
}

// Cancel PENDING/CONFIRMED -> CANCELLED，并取消待支付账单
func (s *EventBookingService) Cancel(ctx context.Context, tenantID, id int64) (*model.EventBooking, error) {
	return s.transition(ctx, tenantID, id, []string{model.BookingPending, model.BookingConfirmed}, model.BookingCancelled)
}

func (s *EventBookingService) transition(ctx context.Context, tenantID, id int64, from []string, to string) (*model.EventBooking, error) {
	var booking *model.EventBooking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.eventRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.TenantID != tenantID {
			return ErrBookingNotFound
		}

		rows, err := s.eventRepo.TransitionStatus(ctx, b.ID, from, to)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: event booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
		}
		if to == model.BookingCancelled {
			if _, err := s.invoiceRepo.CancelPendingByTarget(ctx, model.TargetEventBooking, b.ID); err != nil {
				return err
			}
		}
		b.Status = to
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("event booking status changed", "event_booking_id", booking.ID, "status", to)
	return booking, nil
}

// ExpireAbandoned 取消超时未支付的会议厅预订
func (s *EventBookingService) ExpireAbandoned(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.AbandonTimeout)
	bookings, err := s.eventRepo.ListAbandoned(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range bookings {
		var changed bool
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			rows, err := s.eventRepo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingCancelled)
			if err != nil || rows == 0 {
				return err
			}
			changed = true
			_, err = s.invoiceRepo.CancelPendingByTarget(ctx, model.TargetEventBooking, b.ID)
			return err
		})
		if err != nil {
			s.log.Error("failed to expire event booking", "event_booking_id", b.ID, "error", err)
			continue
		}
		if changed {
			count++
			s.log.Warn("auto-cancelled abandoned event booking", "event_booking_id", b.ID, "reference", b.Reference)
		}
	}
	return count, nil
}
