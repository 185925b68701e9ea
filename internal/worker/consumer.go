package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// Source 阻塞取出下一个邮件任务，超时返回 nil
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.EmailJob, error)
}

// Consumer 多个 goroutine 并发消费邮件队列
type Consumer struct {
	source    Source
	processor *Processor
	workers   int
	log       *slog.Logger
}

func NewConsumer(source Source, processor *Processor, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		source:    source,
		processor: processor,
		workers:   workers,
		log:       logger.WithComponent("consumer"),
	}
}

// Run 阻塞直到 ctx 结束且所有 worker 退出
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info("email consumer started", "workers", c.workers)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()

	c.log.Info("email consumer stopped")
}

func (c *Consumer) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := c.source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("failed to pop email job", "worker", workerID, "error", err)
			// 队列不可用时避免空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		_ = c.processor.Process(ctx, job)
	}
}
