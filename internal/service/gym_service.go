package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/hms_go_server/internal/model"
	"github.com/qs3c/hms_go_server/internal/pkg/dbtx"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/repository"
)

// GymService 健身会籍购买，支付后由账单结算激活
type GymService struct {
	txManager   *dbtx.Manager
	gymRepo     *repository.GymRepository
	invoiceRepo *repository.InvoiceRepository
	currency    string
	log         *slog.Logger
	now         func() time.Time
}

func NewGymService(txManager *dbtx.Manager, gymRepo *repository.GymRepository, invoiceRepo *repository.InvoiceRepository, currency string) *GymService {
	if currency == "" {
		currency = "NGN"
	}
	return &GymService{
		txManager:   txManager,
		gymRepo:     gymRepo,
		invoiceRepo: invoiceRepo,
		currency:    currency,
		log:         logger.WithComponent("gym"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Join 创建 PENDING 会籍及其账单；start 为空时从今天开始
func (s *GymService) Join(ctx context.Context, tenantID, userID, planID int64, start *time.Time) (*model.GymMembership, *model.Invoice, error) {
	startDate := dateOf(s.now())
	if start != nil {
		startDate = dateOf(*start)
	}

	var membership *model.GymMembership
	var invoice *model.Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.gymRepo.GetPlan(ctx, tenantID, planID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGymPlanNotFound
			}
			return err
		}

		m := &model.GymMembership{
			TenantID:  tenantID,
			UserID:    userID,
			PlanID:    plan.ID,
			StartDate: startDate,
			Status:    model.GymPending,
		}
		if err := s.gymRepo.CreateMembership(ctx, m); err != nil {
			return err
		}

		due := startDate
		inv := &model.Invoice{
			TenantID:    tenantID,
			Amount:      plan.Price,
			Currency:    s.currency,
			Status:      model.InvoicePending,
			Description: fmt.Sprintf("Gym membership: %s (%d days)", plan.Name, plan.DurationDays),
			DueDate:     &due,
		}
		inv.SetTarget(model.GymMembershipTarget{MembershipID: m.ID})
		if err := s.invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}

		m.Plan = plan
		membership = m
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("gym membership created", "membership_id", membership.ID, "user_id", userID, "plan_id", planID)
	return membership, invoice, nil
}
