package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/pkg/tenancy"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// 单次批处理的最大条数
const sweepBatchSize = 200

// BookingResult 创建预订及其账单
type BookingResult struct {
	Booking *model.Booking
	Invoice *model.Invoice
}

// ExtendResult 续住结果；Invoice 为被调整或新开的待支付账单
type ExtendResult struct {
	Booking     *model.Booking
	ExtraAmount decimal.Decimal
	Invoice     *model.Invoice
}

// ReservationService 客房预订状态机
type ReservationService struct {
	txManager    *dbtx.Manager
	bookingRepo  *repository.BookingRepository
	resourceRepo *repository.ResourceRepository
	invoiceRepo  *repository.InvoiceRepository
	tenantRepo   *repository.TenantRepository
	billing      *BillingService
	notifier     *NotificationService
	cfg          config.ReservationConfig
	currency     string
	log          *slog.Logger
	now          func() time.Time
}

func NewReservationService(
	txManager *dbtx.Manager,
	bookingRepo *repository.BookingRepository,
	resourceRepo *repository.ResourceRepository,
	invoiceRepo *repository.InvoiceRepository,
	tenantRepo *repository.TenantRepository,
	billing *BillingService,
	notifier *NotificationService,
	cfg config.ReservationConfig,
	currency string,
) *ReservationService {
	if cfg.AbandonTimeout <= 0 {
		cfg.AbandonTimeout = 30 * time.Minute
	}
	if len(cfg.ReminderHours) == 0 {
		cfg.ReminderHours = []int{24, 12, 6, 3, 1}
	}
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 90 * time.Minute
	}
	if currency == "" {
		currency = "NGN"
	}
	return &ReservationService{
		txManager:    txManager,
		bookingRepo:  bookingRepo,
		resourceRepo: resourceRepo,
		invoiceRepo:  invoiceRepo,
		tenantRepo:   tenantRepo,
		billing:      billing,
		notifier:     notifier,
		cfg:          cfg,
		currency:     currency,
		log:          logger.WithComponent("reservation"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create 锁定房间行后检查冲突并写入预订和账单；冲突时不写入任何数据
func (s *ReservationService) Create(ctx context.Context, tc *tenancy.TenantContext, userID *int64, req *dto.CreateBookingRequest) (*BookingResult, error) {
	checkIn, checkOut := req.CheckIn.UTC(), req.CheckOut.UTC()
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidInterval
	}
	tenant := tc.Tenant

	result := &BookingResult{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		room, err := s.resourceRepo.LockRoom(ctx, tenant.ID, req.RoomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if room.Status == model.ResourceMaintenance {
			return ErrResourceUnavailable
		}

		conflict, err := s.bookingRepo.ConflictExists(ctx, room.ID, checkIn, checkOut, 0)
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

		booking := &model.Booking{
			TenantID:       tenant.ID,
			RoomID:         room.ID,
			UserID:         userID,
			GuestName:      req.GuestName,
			GuestEmail:     req.GuestEmail,
			GuestPhone:     req.GuestPhone,
			CheckIn:        checkIn,
			CheckOut:       checkOut,
			Status:         model.BookingPending,
			TotalPrice:     RoomPrice(room.RoomType.PricePerNight, checkIn, checkOut),
			Reference:      FormatReference(ReferencePrefix(tenant), s.now().Year(), seq),
			SequenceNumber: seq,
		}
		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}

		due := checkIn
		invoice := &model.Invoice{
			TenantID:    tenant.ID,
			Amount:      booking.TotalPrice,
			Currency:    s.currency,
			Status:      model.InvoicePending,
			Description: fmt.Sprintf("Room %s, booking %s", room.Number, booking.Reference),
			DueDate:     &due,
		}
		invoice.SetTarget(model.BookingTarget{BookingID: booking.ID})
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

	s.log.Info("booking created",
		"tenant_id", tenant.ID,
		"booking_id", result.Booking.ID,
		"reference", result.Booking.Reference,
		"room_id", result.Booking.RoomID)
	return result, nil
}

// Get 获取租户内的预订
func (s *ReservationService) Get(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
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

// List 预订列表
func (s *ReservationService) List(ctx context.Context, tenantID int64, status string, page, pageSize int) ([]model.Booking, int64, error) {
	return s.bookingRepo.ListByTenant(ctx, tenantID, status, page, pageSize)
}

// Confirm PENDING -> CONFIRMED，已确认或在住时不做任何修改
func (s *ReservationService) Confirm(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}

	var booking *model.Booking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := confirmBooking(ctx, s.bookingRepo, id)
		booking = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// RecordManualPayment 前台录入现金/转账，结算预订的待支付账单
func (s *ReservationService) RecordManualPayment(ctx context.Context, tenantID, id int64, method string) (*SettleResult, error) {
	if method != model.PaymentCash && method != model.PaymentTransfer {
		return nil, fmt.Errorf("unsupported manual payment method %q", method)
	}

	b, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.GetPendingByTarget(ctx, model.TargetBooking, b.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %s has no outstanding invoice", ErrInvalidTransition, b.Reference)
		}
		return nil, err
	}

	return s.billing.Settle(ctx, inv.ID, method, gateway.NewTransactionID("MANUAL"))
}

// CheckIn 仅允许已确认且已到入住日期的预订，房间置为 OCCUPIED
func (s *ReservationService) CheckIn(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	var booking *model.Booking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lockBooking(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
		}
		if dateOf(s.now()).Before(dateOf(b.CheckIn)) {
			return fmt.Errorf("%w: check-in date %s not reached", ErrInvalidTransition, b.CheckIn.Format("2006-01-02"))
		}

		if _, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []string{model.BookingConfirmed}, model.BookingCheckedIn); err != nil {
			return err
		}
		if err := s.resourceRepo.UpdateRoomStatus(ctx, b.RoomID, model.ResourceOccupied); err != nil {
			return err
		}
		b.Status = model.BookingCheckedIn
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("guest checked in", "booking_id", booking.ID, "room_id", booking.RoomID)
	return booking, nil
}

// CheckOut 仅允许在住预订，离店时间改为当前时间，房间置为 CLEANING
func (s *ReservationService) CheckOut(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	var booking *model.Booking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lockBooking(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if b.Status != model.BookingCheckedIn {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
		}

		now := s.now()
		if err := s.bookingRepo.UpdateFields(ctx, b.ID, map[string]interface{}{
			"status":    model.BookingCheckedOut,
			"check_out": now,
		}); err != nil {
			return err
		}
		if err := s.resourceRepo.UpdateRoomStatus(ctx, b.RoomID, model.ResourceCleaning); err != nil {
			return err
		}
		b.Status = model.BookingCheckedOut
		b.CheckOut = now
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("guest checked out", "booking_id", booking.ID, "room_id", booking.RoomID)
	return booking, nil
}

// Extend 续住：检查 [原离店, 新离店) 的冲突，追加费用
func (s *ReservationService) Extend(ctx context.Context, tenantID, id int64, newCheckOut time.Time) (*ExtendResult, error) {
	newCheckOut = newCheckOut.UTC()

	current, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	result := &ExtendResult{}
	ob := &outbox{}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// 与创建预订相同的加锁顺序：先房间后预订
		room, err := s.resourceRepo.LockRoom(ctx, tenantID, current.RoomID)
		if err != nil {
			return err
		}
		b, err := s.lockBooking(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed && b.Status != model.BookingCheckedIn {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
		}
		if !newCheckOut.After(b.CheckOut) {
			return ErrInvalidInterval
		}

		conflict, err := s.bookingRepo.ConflictExists(ctx, room.ID, b.CheckOut, newCheckOut, b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrResourceUnavailable
		}

		extra := RoomPrice(room.RoomType.PricePerNight, b.CheckOut, newCheckOut)
		b.TotalPrice = b.TotalPrice.Add(extra)
		b.CheckOut = newCheckOut
		if err := s.bookingRepo.UpdateFields(ctx, b.ID, map[string]interface{}{
			"check_out":   newCheckOut,
			"total_price": b.TotalPrice,
		}); err != nil {
			return err
		}

		inv, err := s.chargeExtension(ctx, b, extra)
		if err != nil {
			return err
		}

		result.Booking = b
		result.ExtraAmount = extra
		result.Invoice = inv

		ob.toStaff(rolesFrontDesk, Notice{
			TenantID: tenantID,
			Title:    "Stay Extended",
			Message: fmt.Sprintf("Booking %s in room %s extended to %s (+%s %s).",
				b.Reference, room.Number, newCheckOut.Format("2006-01-02 15:04"), extra.StringFixed(2), inv.Currency),
			Type: model.NotifyInfo,
			Link: fmt.Sprintf("/bookings/%d", b.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking extended",
		"booking_id", result.Booking.ID,
		"check_out", result.Booking.CheckOut,
		"extra", result.ExtraAmount.String())
	s.notifier.Flush(ctx, ob)
	return result, nil
}

// chargeExtension 原账单未支付时追加金额，已支付时另开一张补差账单
func (s *ReservationService) chargeExtension(ctx context.Context, b *model.Booking, extra decimal.Decimal) (*model.Invoice, error) {
	pending, err := s.invoiceRepo.GetPendingByTarget(ctx, model.TargetBooking, b.ID)
	if err == nil {
		pending.Amount = pending.Amount.Add(extra)
		if err := s.invoiceRepo.UpdateFields(ctx, pending.ID, map[string]interface{}{"amount": pending.Amount}); err != nil {
			return nil, err
		}
		return pending, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	due := s.now()
	inv := &model.Invoice{
		TenantID:    b.TenantID,
		Amount:      extra,
		Currency:    s.currency,
		Status:      model.InvoicePending,
		Description: fmt.Sprintf("Stay extension, booking %s", b.Reference),
		DueDate:     &due,
	}
	inv.SetTarget(model.BookingTarget{BookingID: b.ID})
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel PENDING/CONFIRMED -> CANCELLED，并取消待支付账单
func (s *ReservationService) Cancel(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	var booking *model.Booking
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lockBooking(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
		}
		if err := s.cancelWithInvoice(ctx, b.ID, []string{model.BookingPending, model.BookingConfirmed}); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking cancelled", "booking_id", booking.ID)
	return booking, nil
}

// ExpireAbandoned 取消超时未支付的预订，释放房间
func (s *ReservationService) ExpireAbandoned(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.AbandonTimeout)
	bookings, err := s.bookingRepo.ListAbandoned(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range bookings {
		var changed bool
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			rows, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingCancelled)
			if err != nil || rows == 0 {
				return err
			}
			changed = true
			_, err = s.invoiceRepo.CancelPendingByTarget(ctx, model.TargetBooking, b.ID)
			return err
		})
		if err != nil {
			s.log.Error("failed to expire booking", "booking_id", b.ID, "error", err)
			continue
		}
		if changed {
			count++
			s.log.Warn("auto-cancelled abandoned booking", "booking_id", b.ID, "reference", b.Reference)
		}
	}
	return count, nil
}

// AutoCheckout 已过离店时间仍在住的预订自动退房，房间置为 CLEANING
func (s *ReservationService) AutoCheckout(ctx context.Context) (int, error) {
	bookings, err := s.bookingRepo.ListOverdueCheckedIn(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range bookings {
		b := &bookings[i]
		var changed bool
		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			rows, err := s.bookingRepo.TransitionStatus(ctx, b.ID, []string{model.BookingCheckedIn}, model.BookingCheckedOut)
			if err != nil || rows == 0 {
				return err
			}
			changed = true
			return s.resourceRepo.UpdateRoomStatus(ctx, b.RoomID, model.ResourceCleaning)
		})
		if err != nil {
			s.log.Error("failed to auto checkout booking", "booking_id", b.ID, "error", err)
			continue
		}
		if !changed {
			continue
		}

		count++
		s.log.Info("auto checked out booking", "booking_id", b.ID, "room_id", b.RoomID)
		s.notifyGuest(ctx, b, "Auto Checked Out",
			"Your stay has ended. We hope you enjoyed your stay!",
			model.NotifyInfo, queue.TemplateAutoCheckout, nil, "")
	}
	return count, nil
}

// SendCheckoutReminders 在离店前 24/12/6/3/1 小时提醒住客，每档只提醒一次
func (s *ReservationService) SendCheckoutReminders(ctx context.Context) (int, error) {
	now := s.now()
	count := 0

	for _, hours := range s.cfg.ReminderHours {
		lead := time.Duration(hours) * time.Hour
		from := now.Add(lead - s.cfg.ReminderWindow)
		if from.Before(now) {
			from = now
		}
		bookings, err := s.bookingRepo.ListCheckedInEndingBetween(ctx, from, now.Add(lead))
		if err != nil {
			return count, err
		}

		for i := range bookings {
			b := &bookings[i]
			label := strconv.Itoa(hours)
			key := fmt.Sprintf("checkout-reminder:%d:%d", b.ID, hours)
			sent := s.notifyGuest(ctx, b,
				fmt.Sprintf("Checkout Reminder: %s hour(s) left", label),
				fmt.Sprintf("Your booking %s ends in about %s hour(s). Would you like to extend your stay?", b.Reference, label),
				model.NotifyWarning, queue.TemplateCheckoutReminder,
				map[string]string{"hours_left": label}, key)
			if sent {
				count++
				s.log.Info("checkout reminder sent", "booking_id", b.ID, "hours", hours)
			}
		}
	}
	return count, nil
}

// notifyGuest 通知注册住客并给预订邮箱发邮件；返回是否有新的通知或邮件
func (s *ReservationService) notifyGuest(ctx context.Context, b *model.Booking, title, message, level, template string, extra map[string]string, dedupKey string) bool {
	sent := false

	if b.UserID != nil {
		n, err := s.notifier.Notify(ctx, Notice{
			TenantID:     b.TenantID,
			RecipientIDs: []int64{*b.UserID},
			Title:        title,
			Message:      message,
			Type:         level,
			Link:         fmt.Sprintf("/bookings/%d/extend", b.ID),
			DedupKey:     dedupKey,
		})
		if err != nil {
			s.log.Error("failed to notify guest", "booking_id", b.ID, "error", err)
		}
		sent = n > 0
	}

	if b.GuestEmail != "" {
		data := s.guestEmailData(ctx, b)
		for k, v := range extra {
			data[k] = v
		}
		queued, err := s.notifier.Email(ctx, &queue.EmailJob{
			To:       b.GuestEmail,
			Template: template,
			TenantID: b.TenantID,
			Data:     data,
		}, dedupKey)
		if err != nil {
			s.log.Error("failed to enqueue guest email", "booking_id", b.ID, "error", err)
		}
		sent = sent || queued
	}
	return sent
}

func (s *ReservationService) guestEmailData(ctx context.Context, b *model.Booking) map[string]string {
	data := map[string]string{
		"guest_name": b.GuestName,
		"reference":  b.Reference,
		"check_in":   b.CheckIn.Format("2006-01-02 15:04"),
		"check_out":  b.CheckOut.Format("2006-01-02 15:04"),
	}
	if room, err := s.resourceRepo.GetRoom(ctx, b.TenantID, b.RoomID); err == nil {
		data["room"] = room.Number
	}
	data["hotel_name"] = s.notifier.hotelName(ctx, b.TenantID)
	return data
}

// cancelWithInvoice 守卫式取消预订并取消其待支付账单
func (s *ReservationService) cancelWithInvoice(ctx context.Context, id int64, from []string) error {
	rows, err := s.bookingRepo.TransitionStatus(ctx, id, from, model.BookingCancelled)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking %d changed concurrently", ErrInvalidTransition, id)
	}
	_, err = s.invoiceRepo.CancelPendingByTarget(ctx, model.TargetBooking, id)
	return err
}

func (s *ReservationService) lockBooking(ctx context.Context, tenantID, id int64) (*model.Booking, error) {
	b, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
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

// dateOf UTC 日期
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
