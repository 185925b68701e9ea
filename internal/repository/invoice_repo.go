package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) conn(ctx context.Context) *gorm.DB {
	return dbtx.GetTxFromContext(ctx, r.db)
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	return r.conn(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.conn(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListByTarget 目标对象的全部账单，按创建顺序
func (r *InvoiceRepository) ListByTarget(ctx context.Context, kind model.TargetKind, targetID int64) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.conn(ctx).Where("target_kind = ? AND target_id = ?", kind, targetID).
		Order("id ASC").Find(&invoices).Error
	return invoices, err
}

// GetPendingByTarget 目标对象最早的待支付账单
func (r *InvoiceRepository) GetPendingByTarget(ctx context.Context, kind model.TargetKind, targetID int64) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.conn(ctx).
		Where("target_kind = ? AND target_id = ? AND status = ?", kind, targetID, model.InvoicePending).
		Order("id ASC").First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CancelPendingByTarget 取消目标对象仍待支付的账单
func (r *InvoiceRepository) CancelPendingByTarget(ctx context.Context, kind model.TargetKind, targetID int64) (int64, error) {
	res := r.conn(ctx).Model(&model.Invoice{}).
		Where("target_kind = ? AND target_id = ? AND status = ?", kind, targetID, model.InvoicePending).
		Update("status", model.InvoiceCancelled)
	return res.RowsAffected, res.Error
}

// MarkPaid 仅从 PENDING 转为 PAID
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (int64, error) {
	res := r.conn(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status = ?", id, model.InvoicePending).
		Updates(map[string]interface{}{
			"status":  model.InvoicePaid,
			"paid_at": paidAt,
		})
	return res.RowsAffected, res.Error
}

func (r *InvoiceRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.conn(ctx).Model(&model.Invoice{}).Where("id = ?", id).Updates(fields).Error
}

func (r *InvoiceRepository) ListByTenant(ctx context.Context, tenantID int64, status string, page, pageSize int) ([]model.Invoice, int64, error) {
	q := r.conn(ctx).Model(&model.Invoice{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []model.Invoice
	err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&invoices).Error
	return invoices, total, err
}

func (r *InvoiceRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.conn(ctx).Create(p).Error
}

func (r *InvoiceRepository) ListPayments(ctx context.Context, invoiceID int64) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.conn(ctx).Where("invoice_id = ?", invoiceID).Order("id ASC").Find(&payments).Error
	return payments, err
}

func (r *InvoiceRepository) GetPaymentByTransactionID(ctx context.Context, txnID string) (*model.Payment, error) {
	var p model.Payment
	err := r.conn(ctx).Where("transaction_id = ?", txnID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
