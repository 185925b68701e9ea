package worker

import (
	"context"
	"fmt"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/pkg/cron"
)

// 批处理任务名，cmd/sweep 按名字单独执行
const (
	JobExpireBookings      = "expire-bookings"
	JobExpireEventBookings = "expire-event-bookings"
	JobAutoCheckout        = "auto-checkout"
	JobCheckoutReminders   = "checkout-reminders"
	JobAutoRenewals        = "auto-renewals"
	JobExpirationWarnings  = "expiration-warnings"
)

type BookingSweeper interface {
	ExpireAbandoned(ctx context.Context) (int, error)
	AutoCheckout(ctx context.Context) (int, error)
	SendCheckoutReminders(ctx context.Context) (int, error)
}

type EventSweeper interface {
	ExpireAbandoned(ctx context.Context) (int, error)
}

type SubscriptionSweeper interface {
	ProcessAutoRenewals(ctx context.Context) (int, error)
	SendExpirationWarnings(ctx context.Context) (int, error)
}

type funcJob struct {
	name string
	run  func(ctx context.Context) (int, error)
}

func (j funcJob) Name() string { return j.name }

func (j funcJob) Execute(ctx context.Context) (int, error) { return j.run(ctx) }

// Sweeps 全部批处理任务
type Sweeps struct {
	Frequent []cron.BatchJob // 按 sweep_interval 周期执行
	Daily    []cron.BatchJob // 每天 daily_at 执行
}

func NewSweeps(bookings BookingSweeper, events EventSweeper, subs SubscriptionSweeper) *Sweeps {
	return &Sweeps{
		Frequent: []cron.BatchJob{
			funcJob{JobExpireBookings, bookings.ExpireAbandoned},
			funcJob{JobExpireEventBookings, events.ExpireAbandoned},
			funcJob{JobAutoCheckout, bookings.AutoCheckout},
			funcJob{JobCheckoutReminders, bookings.SendCheckoutReminders},
		},
		Daily: []cron.BatchJob{
			funcJob{JobAutoRenewals, subs.ProcessAutoRenewals},
			funcJob{JobExpirationWarnings, subs.SendExpirationWarnings},
		},
	}
}

// Register 把任务挂到调度器上
func (s *Sweeps) Register(sched *cron.Service, cfg *config.SchedulerConfig) error {
	for _, job := range s.Frequent {
		if err := sched.Every(cfg.SweepInterval, job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
	}
	for _, job := range s.Daily {
		if err := sched.DailyAt(cfg.DailyAt, job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
	}
	return nil
}
