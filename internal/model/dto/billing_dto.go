package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentCallbackQuery 支付网关回跳参数
type PaymentCallbackQuery struct {
	Gateway   string `form:"gateway" json:"gateway" binding:"required"`
	Reference string `form:"reference" json:"reference" binding:"required"`
	InvoiceID int64  `form:"invoice_id" json:"invoice_id" binding:"required,min=1"`
}

// InvoiceInfo 账单详情
type InvoiceInfo struct {
	ID          int64           `json:"id"`
	TargetKind  string          `json:"target_kind"`
	TargetID    int64           `json:"target_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// SettleResponse 结算结果
type SettleResponse struct {
	Invoice        *InvoiceInfo `json:"invoice"`
	PaymentID      int64        `json:"payment_id,omitempty"`
	TransactionID  string       `json:"transaction_id,omitempty"`
	AlreadySettled bool         `json:"already_settled"`
}
