package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 预订状态
const (
	BookingPending    = "PENDING"
	BookingConfirmed  = "CONFIRMED"
	BookingCheckedIn  = "CHECKED_IN"
	BookingCheckedOut = "CHECKED_OUT"
	BookingCancelled  = "CANCELLED"
	BookingCompleted  = "COMPLETED" // 会议厅预订的结束状态
)

// BlockingStatuses 占用资源的预订状态
var BlockingStatuses = []string{BookingPending, BookingConfirmed, BookingCheckedIn}

type Booking struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	TenantID       int64           `gorm:"index;uniqueIndex:idx_booking_tenant_ref;not null" json:"tenant_id"`
	RoomID         int64           `gorm:"index:idx_booking_room_window;not null" json:"room_id"`
	Room           *Room           `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	UserID         *int64          `gorm:"index" json:"user_id"`
	GuestName      string          `gorm:"size:100;not null" json:"guest_name"`
	GuestEmail     string          `gorm:"size:100" json:"guest_email"`
	GuestPhone     string          `gorm:"size:30" json:"guest_phone"`
	CheckIn        time.Time       `gorm:"index:idx_booking_room_window;not null" json:"check_in"`
	CheckOut       time.Time       `gorm:"not null" json:"check_out"`
	Status         string          `gorm:"size:20;index;not null" json:"status"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Reference      string          `gorm:"size:40;uniqueIndex:idx_booking_tenant_ref;not null" json:"reference"`
	SequenceNumber int64           `json:"sequence_number"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

type EventBooking struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	TenantID       int64           `gorm:"index;uniqueIndex:idx_event_booking_tenant_ref;not null" json:"tenant_id"`
	HallID         int64           `gorm:"index:idx_event_booking_hall_window;not null" json:"hall_id"`
	Hall           *EventHall      `gorm:"foreignKey:HallID" json:"hall,omitempty"`
	UserID         *int64          `gorm:"index" json:"user_id"`
	EventName      string          `gorm:"size:200;not null" json:"event_name"`
	GuestName      string          `gorm:"size:100;not null" json:"guest_name"`
	GuestEmail     string          `gorm:"size:100" json:"guest_email"`
	GuestPhone     string          `gorm:"size:30" json:"guest_phone"`
	StartTime      time.Time       `gorm:"index:idx_event_booking_hall_window;not null" json:"start_time"`
	EndTime        time.Time       `gorm:"not null" json:"end_time"`
	Status         string          `gorm:"size:20;index;not null" json:"status"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Reference      string          `gorm:"size:40;uniqueIndex:idx_event_booking_tenant_ref;not null" json:"reference"`
	SequenceNumber int64           `json:"sequence_number"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (EventBooking) TableName() string {
	return "event_bookings"
}
