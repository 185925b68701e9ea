package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 资源物理状态，与预订状态相互独立
const (
	ResourceAvailable   = "AVAILABLE"
	ResourceOccupied    = "OCCUPIED"
	ResourceMaintenance = "MAINTENANCE"
	ResourceCleaning    = "CLEANING"
)

// 资源类型
const (
	ResourceTypeRoom = "room"
	ResourceTypeHall = "hall"
)

// 会议厅计价方式
const (
	PricingPerHour  = "PER_HOUR"
	PricingPerDay   = "PER_DAY"
	PricingPerEvent = "PER_EVENT"
)

type RoomType struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	TenantID      int64           `gorm:"index;not null" json:"tenant_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	PricePerNight decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_night"`
	Capacity      int             `json:"capacity"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (RoomType) TableName() string {
	return "room_types"
}

type Room struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	TenantID   int64     `gorm:"index;not null" json:"tenant_id"`
	RoomTypeID int64     `gorm:"index;not null" json:"room_type_id"`
	RoomType   *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
	Number     string    `gorm:"size:20;not null" json:"number"`
	Floor      int       `json:"floor"`
	Status     string    `gorm:"size:20;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}

type EventHall struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	TenantID    int64           `gorm:"index;not null" json:"tenant_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Capacity    int             `json:"capacity"`
	PricingType string          `gorm:"size:20;not null" json:"pricing_type"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive    bool            `json:"is_active"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (EventHall) TableName() string {
	return "event_halls"
}
