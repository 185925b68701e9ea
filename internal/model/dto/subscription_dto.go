package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignupRequest 平台注册：创建酒店租户及其所有者
type SignupRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8,max=64"`
	FullName      string `json:"full_name" binding:"required,max=100"`
	Phone         string `json:"phone" binding:"omitempty,max=30"`
	TenantName    string `json:"tenant_name" binding:"required,max=100"`
	Subdomain     string `json:"subdomain" binding:"required,min=3,max=63,alphanum"`
	HotelName     string `json:"hotel_name" binding:"omitempty,max=100"`
	BookingPrefix string `json:"booking_prefix" binding:"omitempty,max=10,alphanum"`
	Domain        string `json:"domain" binding:"omitempty,fqdn"`
	PlanID        int64  `json:"plan_id" binding:"required,min=1"`
	BillingCycle  string `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"`
}

// SignupResponse 注册结果；付费套餐返回待支付账单
type SignupResponse struct {
	TenantID           int64           `json:"tenant_id"`
	Subdomain          string          `json:"subdomain"`
	OwnerID            int64           `json:"owner_id"`
	SubscriptionStatus string          `json:"subscription_status"`
	InvoiceID          int64           `json:"invoice_id,omitempty"`
	Amount             decimal.Decimal `json:"amount,omitempty"`
	PaymentURL         string          `json:"payment_url,omitempty"`
}

// SubscriptionInfo 当前租户订阅信息
type SubscriptionInfo struct {
	TenantID     int64      `json:"tenant_id"`
	Plan         string     `json:"plan"`
	Status       string     `json:"status"`
	IsActive     bool       `json:"is_active"`
	EndDate      *time.Time `json:"end_date"`
	DaysLeft     int        `json:"days_left"`
	AutoRenew    bool       `json:"auto_renew"`
	HasAuthCode  bool       `json:"has_payment_method"`
	BillingCycle string     `json:"billing_cycle"`
}

// AutoRenewRequest 开关自动续费
type AutoRenewRequest struct {
	Enabled bool `json:"enabled"`
}

// PaymentMethodRequest 保存网关返回的支付授权
type PaymentMethodRequest struct {
	Authorization string `json:"authorization" binding:"required,max=255"`
}

// SubscriptionPayResponse 订阅续费账单
type SubscriptionPayResponse struct {
	InvoiceID  int64           `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	PaymentURL string          `json:"payment_url"`
}
