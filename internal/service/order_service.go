package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/model/dto"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// OrderService 客房服务下单，支付后按菜品类别通知厨房/吧台
type OrderService struct {
	txManager   *dbtx.Manager
	orderRepo   *repository.OrderRepository
	bookingRepo *repository.BookingRepository
	invoiceRepo *repository.InvoiceRepository
	tenantRepo  *repository.TenantRepository
	currency    string
	log         *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	txManager *dbtx.Manager,
	orderRepo *repository.OrderRepository,
	bookingRepo *repository.BookingRepository,
	invoiceRepo *repository.InvoiceRepository,
	tenantRepo *repository.TenantRepository,
	currency string,
) *OrderService {
	if currency == "" {
		currency = "NGN"
	}
	return &OrderService{
		txManager:   txManager,
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		invoiceRepo: invoiceRepo,
		tenantRepo:  tenantRepo,
		currency:    currency,
		log:         logger.WithComponent("order"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create 写入 AWAITING_PAYMENT 订单、订单项和一张待支付账单
func (s *OrderService) Create(ctx context.Context, tenantID int64, userID *int64, req *dto.CreateOrderRequest) (*model.ServiceOrder, *model.Invoice, error) {
	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MenuItemID)
	}

	var order *model.ServiceOrder
	var invoice *model.Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		menu, err := s.orderRepo.ListMenuItems(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]model.MenuItem, len(menu))
		for _, m := range menu {
			byID[m.ID] = m
		}

		o := &model.ServiceOrder{
			TenantID: tenantID,
			UserID:   userID,
			Status:   model.OrderAwaitingPayment,
			Notes:    req.Notes,
		}

		if req.BookingID != nil {
			b, err := s.bookingRepo.GetByID(ctx, *req.BookingID)
			if err != nil || b.TenantID != tenantID {
				return ErrBookingNotFound
			}
			if b.Status != model.BookingCheckedIn {
				return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.Reference, b.Status)
			}
			o.BookingID = &b.ID
			o.RoomID = &b.RoomID
		}

		total := decimal.Zero
		for _, it := range req.Items {
			m, ok := byID[it.MenuItemID]
			if !ok {
				return fmt.Errorf("%w: %d", ErrMenuItemNotFound, it.MenuItemID)
			}
			o.Items = append(o.Items, model.OrderItem{
				MenuItemID: m.ID,
				Quantity:   it.Quantity,
				UnitPrice:  m.Price,
			})
			total = total.Add(m.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		o.Total = total

		now := s.now()
		seq, err := s.tenantRepo.NextCounter(ctx, tenantID, counterOrders)
		if err != nil {
			return err
		}
		o.OrderCode = FormatOrderCode(now, seq)
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}

		inv := &model.Invoice{
			TenantID:    tenantID,
			Amount:      total,
			Currency:    s.currency,
			Status:      model.InvoicePending,
			Description: fmt.Sprintf("Room service order %s", o.OrderCode),
			DueDate:     &now,
		}
		inv.SetTarget(model.ServiceOrderTarget{})
		if err := s.invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.orderRepo.SetInvoice(ctx, o.ID, inv.ID); err != nil {
			return err
		}

		o.InvoiceID = &inv.ID
		order = o
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("service order created", "order_id", order.ID, "order_code", order.OrderCode, "total", order.Total.String())
	return order, invoice, nil
}
