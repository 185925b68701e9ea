package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *OrderRepository) ListMenuItems(ctx context.Context, tenantID int64, ids []int64) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := r.conn(ctx).Where("tenant_id = ? AND id IN ? AND is_available = ?", tenantID, ids, true).
		Find(&items).Error
	return items, err
}

// Create 写入订单及订单项
func (r *OrderRepository) Create(ctx context.Context, order *model.ServiceOrder) error {
	return r.conn(ctx).Create(order).Error
}

func (r *OrderRepository) SetInvoice(ctx context.Context, orderID, invoiceID int64) error {
	return r.conn(ctx).Model(&model.ServiceOrder{}).Where("id = ?", orderID).
		Update("invoice_id", invoiceID).Error
}

// ListByInvoice 账单关联的订单（含订单项与菜品）
func (r *OrderRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]model.ServiceOrder, error) {
	var orders []model.ServiceOrder
	err := r.conn(ctx).Preload("Items.MenuItem").
		Where("invoice_id = ?", invoiceID).Order("id ASC").Find(&orders).Error
	return orders, err
}

// TransitionByInvoice 将账单关联订单从 from 状态更新为 to
func (r *OrderRepository) TransitionByInvoice(ctx context.Context, invoiceID int64, from, to string) (int64, error) {
	res := r.conn(ctx).Model(&model.ServiceOrder{}).
		Where("invoice_id = ? AND status = ?", invoiceID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
