package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/gateway"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// SubscriptionActivator 订阅账单支付后的激活
type SubscriptionActivator interface {
	ActivateFromPayment(ctx context.Context, tenantID int64) error
}

// SettleResult 结算结果；AlreadySettled 表示账单此前已支付，本次没有任何写入
type SettleResult struct {
	Invoice        *model.Invoice
	Payment        *model.Payment
	AlreadySettled bool
}

// BillingService 账单结算：写支付记录、标记已支付、按账单目标执行后续动作
type BillingService struct {
	txManager     *dbtx.Manager
	invoiceRepo   *repository.InvoiceRepository
	bookingRepo   *repository.BookingRepository
	eventRepo     *repository.EventBookingRepository
	gymRepo       *repository.GymRepository
	orderRepo     *repository.OrderRepository
	subscriptions SubscriptionActivator
	gateways      *gateway.Registry
	notifier      *NotificationService
	verifyTimeout time.Duration
	log           *slog.Logger
	now           func() time.Time
}

func NewBillingService(
	txManager *dbtx.Manager,
	invoiceRepo *repository.InvoiceRepository,
	bookingRepo *repository.BookingRepository,
	eventRepo *repository.EventBookingRepository,
	gymRepo *repository.GymRepository,
	orderRepo *repository.OrderRepository,
	subscriptions SubscriptionActivator,
	gateways *gateway.Registry,
	notifier *NotificationService,
	verifyTimeout time.Duration,
) *BillingService {
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}
	return &BillingService{
		txManager:     txManager,
		invoiceRepo:   invoiceRepo,
		bookingRepo:   bookingRepo,
		eventRepo:     eventRepo,
		gymRepo:       gymRepo,
		orderRepo:     orderRepo,
		subscriptions: subscriptions,
		gateways:      gateways,
		notifier:      notifier,
		verifyTimeout: verifyTimeout,
		log:           logger.WithComponent("billing"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GetInvoice 获取账单
func (s *BillingService) GetInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// Settle 在一个事务内结算账单；重复调用不会产生第二笔支付
func (s *BillingService) Settle(ctx context.Context, invoiceID int64, method, reference string) (*SettleResult, error) {
	if reference == "" {
		reference = gateway.NewTransactionID(method)
	}

	result := &SettleResult{}
	ob := &outbox{}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return err
		}
		result.Invoice = inv

		switch inv.Status {
		case model.InvoicePaid:
			result.AlreadySettled = true
			return nil
		case model.InvoiceCancelled:
			return fmt.Errorf("%w: invoice %d is cancelled", ErrInvalidTransition, inv.ID)
		}

		existing, err := s.invoiceRepo.GetPaymentByTransactionID(ctx, reference)
		if err == nil {
			return fmt.Errorf("%w: transaction %s already recorded for invoice %d",
				ErrInvalidTransition, reference, existing.InvoiceID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.now()
		payment := &model.Payment{
			InvoiceID:     inv.ID,
			Amount:        inv.Amount,
			Method:        method,
			TransactionID: reference,
			PaidAt:        now,
		}
		if err := s.invoiceRepo.CreatePayment(ctx, payment); err != nil {
			return err
		}

		rows, err := s.invoiceRepo.MarkPaid(ctx, inv.ID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: invoice %d changed concurrently", ErrInvalidTransition, inv.ID)
		}
		inv.Status = model.InvoicePaid
		inv.PaidAt = &now
		result.Payment = payment

		target, err := inv.Target()
		if err != nil {
			return err
		}
		return target.Accept(ctx, &settlementEffects{s: s, invoice: inv, outbox: ob})
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadySettled {
		s.log.Info("invoice already settled", "invoice_id", invoiceID, "reference", reference)
		return result, nil
	}

	s.log.Info("invoice settled",
		"invoice_id", result.Invoice.ID,
		"target", result.Invoice.TargetKind,
		"method", method,
		"reference", reference)
	s.notifier.Flush(ctx, ob)
	return result, nil
}

// VerifyAndSettle 向网关核实支付结果后结算；核实失败或超时不修改账单
func (s *BillingService) VerifyAndSettle(ctx context.Context, gatewayName, reference string, invoiceID int64) (*SettleResult, error) {
	inv, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoicePaid {
		return &SettleResult{Invoice: inv, AlreadySettled: true}, nil
	}

	g, err := s.gateways.Get(gatewayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}

	vctx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	v, err := g.Verify(vctx, reference)
	cancel()
	if err != nil {
		s.log.Warn("payment verification error",
			"gateway", gatewayName, "reference", reference, "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}
	if !v.Succeeded {
		s.log.Warn("payment not successful",
			"gateway", gatewayName, "reference", reference, "status", v.Status)
		return nil, ErrPaymentVerificationFailed
	}
	if v.Currency != "" && !strings.EqualFold(v.Currency, inv.Currency) {
		s.log.Warn("payment currency does not match invoice",
			"invoice_id", invoiceID, "paid_currency", v.Currency, "invoice_currency", inv.Currency)
		return nil, ErrPaymentVerificationFailed
	}
	if v.Amount.IsPositive() && v.Amount.LessThan(inv.Amount) {
		s.log.Warn("payment amount below invoice amount",
			"invoice_id", invoiceID, "paid", v.Amount.String(), "due", inv.Amount.String())
		return nil, ErrPaymentVerificationFailed
	}

	return s.Settle(ctx, invoiceID, paymentMethodFor(gatewayName), reference)
}

// paymentMethodFor 网关名映射为支付方式
func paymentMethodFor(gatewayName string) string {
	switch strings.ToLower(gatewayName) {
	case gateway.NameStripe:
		return model.PaymentStripe
	case "paystack":
		return model.PaymentPaystack
	case "flutterwave":
		return model.PaymentFlutterwave
	case gateway.NameManual:
		return model.PaymentCash
	default:
		return strings.ToUpper(gatewayName)
	}
}

// settlementEffects 账单支付后对各类目标的后续动作，运行在结算事务内
type settlementEffects struct {
	s       *BillingService
	invoice *model.Invoice
	outbox  *outbox
}

var _ model.TargetVisitor = (*settlementEffects)(nil)

func (e *settlementEffects) VisitBooking(ctx context.Context, t model.BookingTarget) error {
	b, err := confirmBooking(ctx, e.s.bookingRepo, t.BookingID)
	if err != nil {
		return err
	}
	e.outbox.toStaff(rolesFrontDesk, Notice{
		TenantID: b.TenantID,
		Title:    "Payment Received",
		Message:  fmt.Sprintf("Booking %s was paid (%s %s).", b.Reference, e.invoice.Amount.StringFixed(2), e.invoice.Currency),
		Type:     model.NotifySuccess,
		Link:     fmt.Sprintf("/bookings/%d", b.ID),
	})
	e.outbox.email(&queue.EmailJob{
		To:       b.GuestEmail,
		Template: queue.TemplateBookingConfirmed,
		TenantID: b.TenantID,
		Data: map[string]string{
			"guest_name": b.GuestName,
			"reference":  b.Reference,
			"hotel_name": e.s.notifier.hotelName(ctx, b.TenantID),
			"check_in":   b.CheckIn.Format("2006-01-02 15:04"),
			"check_out":  b.CheckOut.Format("2006-01-02 15:04"),
		},
	}, fmt.Sprintf("booking-confirmed:%d", b.ID))
	return nil
}

func (e *settlementEffects) VisitEventBooking(ctx context.Context, t model.EventBookingTarget) error {
	_, err := confirmEventBooking(ctx, e.s.eventRepo, t.EventBookingID)
	return err
}

func (e *settlementEffects) VisitGymMembership(ctx context.Context, t model.GymMembershipTarget) error {
	m, err := e.s.gymRepo.GetMembership(ctx, t.MembershipID)
	if err != nil {
		return err
	}
	switch m.Status {
	case model.GymActive, model.GymExpired:
		return nil
	case model.GymCancelled:
		return fmt.Errorf("%w: gym membership %d is cancelled", ErrInvalidTransition, m.ID)
	}

	days := 30
	if m.Plan != nil && m.Plan.DurationDays > 0 {
		days = m.Plan.DurationDays
	}
	end := m.StartDate.AddDate(0, 0, days)
	return e.s.gymRepo.UpdateFields(ctx, m.ID, map[string]interface{}{
		"status":   model.GymActive,
		"end_date": end,
	})
}

func (e *settlementEffects) VisitServiceOrders(ctx context.Context, t model.ServiceOrderTarget) error {
	if _, err := e.s.orderRepo.TransitionByInvoice(ctx, t.InvoiceID, model.OrderAwaitingPayment, model.OrderPending); err != nil {
		return err
	}

	orders, err := e.s.orderRepo.ListByInvoice(ctx, t.InvoiceID)
	if err != nil {
		return err
	}
	for _, o := range orders {
		e.outbox.toStaff(orderRecipients(&o), Notice{
			TenantID: o.TenantID,
			Title:    "New Order Received",
			Message:  orderSummary(&o),
			Type:     model.NotifyInfo,
			Link:     fmt.Sprintf("/orders/%d", o.ID),
		})
	}
	return nil
}

func (e *settlementEffects) VisitSubscription(ctx context.Context, t model.SubscriptionTarget) error {
	return e.s.subscriptions.ActivateFromPayment(ctx, t.TenantID)
}

// confirmBooking PENDING -> CONFIRMED；已确认、在住、已离店不变；已取消报错
func confirmBooking(ctx context.Context, repo *repository.BookingRepository, id int64) (*model.Booking, error) {
	b, err := repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	switch b.Status {
	case model.BookingPending:
		if _, err := repo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingConfirmed); err != nil {
			return nil, err
		}
		b.Status = model.BookingConfirmed
		return b, nil
	case model.BookingConfirmed, model.BookingCheckedIn, model.BookingCheckedOut:
		return b, nil
	default:
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
	}
}

// confirmEventBooking 会议厅预订确认，规则同 confirmBooking
func confirmEventBooking(ctx context.Context, repo *repository.EventBookingRepository, id int64) (*model.EventBooking, error) {
	b, err := repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	switch b.Status {
	case model.BookingPending:
		if _, err := repo.TransitionStatus(ctx, b.ID, []string{model.BookingPending}, model.BookingConfirmed); err != nil {
			return nil, err
		}
		b.Status = model.BookingConfirmed
		return b, nil
	case model.BookingConfirmed, model.BookingCompleted:
		return b, nil
	default:
		return nil, fmt.Errorf("%w: event booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
	}
}

// orderRecipients 管理层总是接收；含食品通知厨房，含饮品通知吧台
func orderRecipients(o *model.ServiceOrder) []string {
	roles := append([]string{}, rolesManagers...)
	var food, drink bool
	for _, item := range o.Items {
		if item.MenuItem == nil {
			continue
		}
		switch item.MenuItem.Category {
		case model.CategoryFood:
			food = true
		case model.CategoryDrink:
			drink = true
		}
	}
	if food {
		roles = append(roles, model.RoleKitchen)
	}
	if drink {
		roles = append(roles, model.RoleBar)
	}
	return roles
}

func orderSummary(o *model.ServiceOrder) string {
	parts := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		name := "item"
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		}
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, name))
	}
	return fmt.Sprintf("Order %s: %s", o.OrderCode, strings.Join(parts, ", "))
}
