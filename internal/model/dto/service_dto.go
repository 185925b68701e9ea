package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// JoinGymRequest 购买健身会籍
type JoinGymRequest struct {
	PlanID    int64      `json:"plan_id" binding:"required,min=1"`
	StartDate *time.Time `json:"start_date"`
}

// GymMembershipInfo 健身会籍
type GymMembershipInfo struct {
	ID         int64           `json:"id"`
	PlanID     int64           `json:"plan_id"`
	Status     string          `json:"status"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    *time.Time      `json:"end_date,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	InvoiceID  int64           `json:"invoice_id"`
	PaymentURL string          `json:"payment_url"`
}

// OrderItemRequest 订单项
type OrderItemRequest struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required,min=1"`
	Quantity   int   `json:"quantity" binding:"required,min=1,max=50"`
}

// CreateOrderRequest 客房服务下单
type CreateOrderRequest struct {
	BookingID *int64             `json:"booking_id" binding:"omitempty,min=1"`
	Items     []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes     string             `json:"notes" binding:"omitempty,max=500"`
}

// OrderInfo 客房服务订单
type OrderInfo struct {
	ID         int64           `json:"id"`
	OrderCode  string          `json:"order_code"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	InvoiceID  int64           `json:"invoice_id"`
	PaymentURL string          `json:"payment_url"`
}

// NotificationListQuery 通知列表
type NotificationListQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page,default=1" binding:"min=1"`
	PageSize   int  `form:"page_size,default=20" binding:"min=1,max=100"`
}
