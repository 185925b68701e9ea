package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 菜品类别
const (
	CategoryFood  = "FOOD"
	CategoryDrink = "DRINK"
	CategoryOther = "OTHER"
)

// 客房服务订单状态
const (
	OrderAwaitingPayment = "AWAITING_PAYMENT"
	OrderPending         = "PENDING"
	OrderInProgress      = "IN_PROGRESS"
	OrderDelivered       = "DELIVERED"
	OrderCancelled       = "CANCELLED"
)

type MenuItem struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	TenantID    int64           `gorm:"index;not null" json:"tenant_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    string          `gorm:"size:10;not null" json:"category"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

type ServiceOrder struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	TenantID  int64           `gorm:"index;uniqueIndex:idx_order_tenant_code;not null" json:"tenant_id"`
	OrderCode string          `gorm:"size:30;uniqueIndex:idx_order_tenant_code;not null" json:"order_code"`
	UserID    *int64          `gorm:"index" json:"user_id"`
	BookingID *int64          `gorm:"index" json:"booking_id"`
	RoomID    *int64          `json:"room_id"`
	Status    string          `gorm:"size:20;index;not null" json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	InvoiceID *int64          `gorm:"index" json:"invoice_id"`
	Notes     string          `gorm:"size:500" json:"notes"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ServiceOrder) TableName() string {
	return "service_orders"
}

type OrderItem struct {
	ID         int64           `gorm:"primaryKey" json:"id"`
	OrderID    int64           `gorm:"index;not null" json:"order_id"`
	MenuItemID int64           `gorm:"not null" json:"menu_item_id"`
	MenuItem   *MenuItem       `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
