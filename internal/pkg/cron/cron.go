package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
)

var ErrUnknownJob = errors.New("unknown job")

// BatchJob 定时批处理任务，每次执行返回处理的记录数
type BatchJob interface {
	Name() string
	Execute(ctx context.Context) (int, error)
}

// Service 基于 gocron 的调度服务
type Service struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
	timeout   time.Duration

	mu      sync.RWMutex
	jobs    map[string]BatchJob
	started bool
}

// NewService 创建调度服务，timezone 为空时使用 UTC
func NewService(timezone string, timeout time.Duration) (*Service, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Service{
		scheduler: s,
		log:       logger.WithComponent("cron"),
		timeout:   timeout,
		jobs:      make(map[string]BatchJob),
	}, nil
}

// Every 按固定间隔执行任务，启动时立即执行一次
func (s *Service) Every(interval time.Duration, job BatchJob) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.task(job)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(job.Name()),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", job.Name(), err)
	}

	s.remember(job)
	s.log.Info("registered interval job", "job", job.Name(), "interval", interval.String())
	return nil
}

// DailyAt 每天在 at（HH:MM）执行任务
func (s *Service) DailyAt(at string, job BatchJob) error {
	expr, err := dailyCronExpr(at)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(s.task(job)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(job.Name()),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", job.Name(), err)
	}

	s.remember(job)
	s.log.Info("registered daily job", "job", job.Name(), "at", at)
	return nil
}

// RunNow 立即同步执行指定任务（手动触发、命令行）
func (s *Service) RunNow(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return job.Execute(ctx)
}

// JobNames 返回已注册任务名
func (s *Service) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start 启动定时任务
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.scheduler.Start()
	s.started = true
	s.log.Info("cron service started", "job_count", len(s.jobs))
}

// Stop 停止定时任务，等待执行中的任务结束
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.scheduler.Shutdown(); err != nil {
		return err
	}
	s.log.Info("cron service stopped")
	return nil
}

func (s *Service) remember(job BatchJob) {
	s.mu.Lock()
	s.jobs[job.Name()] = job
	s.mu.Unlock()
}

func (s *Service) task(job BatchJob) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		n, err := job.Execute(ctx)
		if err != nil {
			s.log.Error("job failed", "job", job.Name(), "error", err, "duration", time.Since(start))
			return
		}
		if n > 0 {
			s.log.Info("job processed", "job", job.Name(), "count", n, "duration", time.Since(start))
		}
	}
}

// dailyCronExpr 将 HH:MM 转为 cron 表达式
func dailyCronExpr(at string) (string, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid daily time %q, want HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
