package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 订阅状态
const (
	SubscriptionActive         = "active"
	SubscriptionPendingPayment = "pending_payment"
	SubscriptionPastDue        = "past_due"
	SubscriptionCanceled       = "canceled"
)

// 计费周期
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// 租户内角色
const (
	RoleAdmin        = "ADMIN"
	RoleManager      = "MANAGER"
	RoleReceptionist = "RECEPTIONIST"
	RoleStaff        = "STAFF"
	RoleCleaner      = "CLEANER"
	RoleKitchen      = "KITCHEN"
	RoleBar          = "BAR"
	RoleEventManager = "EVENT_MANAGER"
	RoleGymManager   = "GYM_MANAGER"
	RoleGuest        = "GUEST"
)

type Tenant struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"size:100;not null" json:"name"`
	Slug                string     `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Subdomain           string     `gorm:"size:63;uniqueIndex;not null" json:"subdomain"`
	HotelName           string     `gorm:"size:100" json:"hotel_name"`
	BookingPrefix       string     `gorm:"size:10" json:"booking_prefix"`
	OwnerID             int64      `gorm:"index;not null" json:"owner_id"`
	PlanID              *int64     `gorm:"index" json:"plan_id"`
	Plan                *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	IsActive            bool       `json:"is_active"`
	SubscriptionStatus  string     `gorm:"size:20;not null" json:"subscription_status"`
	SubscriptionEndDate *time.Time `gorm:"index" json:"subscription_end_date"`
	AutoRenew           bool       `json:"auto_renew"`
	BillingCycle        string     `gorm:"size:10;not null" json:"billing_cycle"`
	PaymentAuthCode     string     `gorm:"size:255" json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// CycleDays 当前计费周期对应的天数
func (t *Tenant) CycleDays() int {
	if t.BillingCycle == BillingYearly {
		return 365
	}
	return 30
}

// Domain 租户绑定的自定义域名
type Domain struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TenantID  int64     `gorm:"index;not null" json:"tenant_id"`
	Domain    string    `gorm:"size:255;uniqueIndex;not null" json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (Domain) TableName() string {
	return "domains"
}

type Membership struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_membership_user_tenant;not null" json:"user_id"`
	TenantID  int64     `gorm:"uniqueIndex:idx_membership_user_tenant;index;not null" json:"tenant_id"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

type Plan struct {
	ID                 int64           `gorm:"primaryKey" json:"id"`
	Name               string          `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Price              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency           string          `gorm:"size:3;not null" json:"currency"`
	MaxRooms           int             `json:"max_rooms"`
	MaxUsers           int             `json:"max_users"`
	AllowCustomDomain  bool            `json:"allow_custom_domain"`
	AllowCustomEmail   bool            `json:"allow_custom_email"`
	ModuleEvents       bool            `json:"module_events"`
	ModuleGym          bool            `json:"module_gym"`
	ModuleRestaurant   bool            `json:"module_restaurant"`
	ModuleHousekeeping bool            `json:"module_housekeeping"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// IsFree 免费套餐
func (p *Plan) IsFree() bool {
	return !p.Price.IsPositive()
}

// CyclePrice 按计费周期计算金额（年付为月价 x12）
func (p *Plan) CyclePrice(cycle string) decimal.Decimal {
	if cycle == BillingYearly {
		return p.Price.Mul(decimal.NewFromInt(12))
	}
	return p.Price
}

// TenantCounter 租户内单调递增计数器（预订编号、订单号）
type TenantCounter struct {
	ID       int64  `gorm:"primaryKey"`
	TenantID int64  `gorm:"uniqueIndex:idx_counter_tenant_name;not null"`
	Name     string `gorm:"size:30;uniqueIndex:idx_counter_tenant_name;not null"`
	Value    int64  `gorm:"not null"`
}

func (TenantCounter) TableName() string {
	return "tenant_counters"
}
