package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 账单状态
const (
	InvoicePending   = "PENDING"
	InvoicePaid      = "PAID"
	InvoiceCancelled = "CANCELLED"
)

// 支付方式
const (
	PaymentCash        = "CASH"
	PaymentTransfer    = "TRANSFER"
	PaymentPaystack    = "PAYSTACK"
	PaymentFlutterwave = "FLUTTERWAVE"
	PaymentStripe      = "STRIPE"
	PaymentAutoRenew   = "AUTO_RENEW"
)

type Invoice struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	TenantID    int64           `gorm:"index;not null" json:"tenant_id"`
	TargetKind  TargetKind      `gorm:"size:30;index:idx_invoice_target;not null" json:"target_kind"`
	TargetID    int64           `gorm:"index:idx_invoice_target" json:"target_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	Status      string          `gorm:"size:20;index;not null" json:"status"`
	Description string          `gorm:"size:255" json:"description"`
	DueDate     *time.Time      `json:"due_date"`
	PaidAt      *time.Time      `json:"paid_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// Payment 只追加，不修改
type Payment struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	InvoiceID     int64           `gorm:"index;not null" json:"invoice_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method        string          `gorm:"size:20;not null" json:"method"`
	TransactionID string          `gorm:"size:100;uniqueIndex;not null" json:"transaction_id"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
