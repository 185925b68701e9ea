package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 健身会籍状态
const (
	GymPending   = "PENDING"
	GymActive    = "ACTIVE"
	GymExpired   = "EXPIRED"
	GymCancelled = "CANCELLED"
)

type GymPlan struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	TenantID     int64           `gorm:"index;not null" json:"tenant_id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (GymPlan) TableName() string {
	return "gym_plans"
}

type GymMembership struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	TenantID  int64      `gorm:"index;not null" json:"tenant_id"`
	UserID    int64      `gorm:"index;not null" json:"user_id"`
	PlanID    int64      `gorm:"not null" json:"plan_id"`
	Plan      *GymPlan   `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `gorm:"size:20;index;not null" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (GymMembership) TableName() string {
	return "gym_memberships"
}
