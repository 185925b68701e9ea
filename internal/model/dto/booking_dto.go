package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AvailabilityQuery 可用资源查询参数
type AvailabilityQuery struct {
	ResourceType string    `form:"resource_type" binding:"omitempty,oneof=room hall"`
	Start        time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End          time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	MinCapacity  int       `form:"min_capacity" binding:"omitempty,min=1"`
	RoomTypeID   int64     `form:"room_type_id" binding:"omitempty,min=1"`
}

// RoomInfo 可预订房间
type RoomInfo struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Floor         int             `json:"floor"`
	Status        string          `json:"status"`
	RoomType      string          `json:"room_type"`
	Capacity      int             `json:"capacity"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

// UpdateRoomStatusRequest 房间状态变更（打扫完成、报修）
type UpdateRoomStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=AVAILABLE OCCUPIED MAINTENANCE CLEANING"`
}

// HallInfo 可预订会议厅
type HallInfo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Capacity    int             `json:"capacity"`
	PricingType string          `json:"pricing_type"`
	Price       decimal.Decimal `json:"price"`
}

// AvailabilityResponse 可用资源列表
type AvailabilityResponse struct {
	ResourceType string     `json:"resource_type"`
	Rooms        []RoomInfo `json:"rooms,omitempty"`
	Halls        []HallInfo `json:"halls,omitempty"`
}

// CreateBookingRequest 创建客房预订
type CreateBookingRequest struct {
	RoomID     int64     `json:"room_id" binding:"required,min=1"`
	CheckIn    time.Time `json:"check_in" binding:"required"`
	CheckOut   time.Time `json:"check_out" binding:"required"`
	GuestName  string    `json:"guest_name" binding:"required,max=100"`
	GuestEmail string    `json:"guest_email" binding:"omitempty,email"`
	GuestPhone string    `json:"guest_phone" binding:"omitempty,max=30"`
}

// CreateBookingResponse 创建预订结果
type CreateBookingResponse struct {
	BookingID  int64           `json:"booking_id"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	InvoiceID  int64           `json:"invoice_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	PaymentURL string          `json:"payment_url"`
}

// ExtendBookingRequest 续住
type ExtendBookingRequest struct {
	NewCheckOut time.Time `json:"new_check_out" binding:"required"`
}

// ExtendBookingResponse 续住结果
type ExtendBookingResponse struct {
	Booking     *BookingInfo    `json:"booking"`
	ExtraAmount decimal.Decimal `json:"extra_amount"`
	InvoiceID   int64           `json:"invoice_id"`
}

// ManualPaymentRequest 前台录入线下收款
type ManualPaymentRequest struct {
	Method string `json:"method" binding:"required,oneof=CASH TRANSFER"`
}

// BookingInfo 预订详情
type BookingInfo struct {
	ID         int64           `json:"id"`
	Reference  string          `json:"reference"`
	RoomID     int64           `json:"room_id"`
	GuestName  string          `json:"guest_name"`
	GuestEmail string          `json:"guest_email,omitempty"`
	CheckIn    time.Time       `json:"check_in"`
	CheckOut   time.Time       `json:"check_out"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BookingListQuery 预订列表
type BookingListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CHECKED_IN CHECKED_OUT CANCELLED"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// CreateEventBookingRequest 创建会议厅预订
type CreateEventBookingRequest struct {
	HallID     int64     `json:"hall_id" binding:"required,min=1"`
	EventName  string    `json:"event_name" binding:"required,max=200"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	GuestName  string    `json:"guest_name" binding:"required,max=100"`
	GuestEmail string    `json:"guest_email" binding:"omitempty,email"`
	GuestPhone string    `json:"guest_phone" binding:"omitempty,max=30"`
}

// EventBookingInfo 会议厅预订详情
type EventBookingInfo struct {
	ID         int64           `json:"id"`
	Reference  string          `json:"reference"`
	HallID     int64           `json:"hall_id"`
	EventName  string          `json:"event_name"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	InvoiceID  int64           `json:"invoice_id,omitempty"`
	PaymentURL string          `json:"payment_url,omitempty"`
}
