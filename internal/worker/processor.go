package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qs3c/hms_go_server/internal/pkg/email"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/queue"
)

const defaultMaxAttempts = 3

// Sender 发送一封邮件
type Sender interface {
	Send(job *queue.EmailJob) error
}

// Requeuer 失败任务重新入队
type Requeuer interface {
	Push(ctx context.Context, job *queue.EmailJob) error
}

// Processor 邮件任务处理器
type Processor struct {
	sender      Sender
	requeue     Requeuer
	maxAttempts int
	log         *slog.Logger
}

// NewProcessor maxAttempts <= 0 时使用默认值 3
func NewProcessor(sender Sender, requeue Requeuer, maxAttempts int) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Processor{
		sender:      sender,
		requeue:     requeue,
		maxAttempts: maxAttempts,
		log:         logger.WithComponent("email-worker"),
	}
}

// Process 发送邮件；发送失败时重新入队，超过次数后丢弃。未知模板直接丢弃
func (p *Processor) Process(ctx context.Context, job *queue.EmailJob) error {
	err := p.sender.Send(job)
	if err == nil {
		p.log.Info("email sent", "template", job.Template, "tenant_id", job.TenantID, "to", job.To)
		return nil
	}

	if errors.Is(err, email.ErrUnknownTemplate) {
		p.log.Error("dropping email with unknown template", "template", job.Template, "to", job.To)
		return err
	}

	job.Attempts++
	if job.Attempts >= p.maxAttempts || p.requeue == nil {
		p.log.Error("email dropped after retries",
			"template", job.Template, "to", job.To, "attempts", job.Attempts, "error", err)
		return fmt.Errorf("send %s to %s: %w", job.Template, job.To, err)
	}

	if qerr := p.requeue.Push(ctx, job); qerr != nil {
		return fmt.Errorf("requeue %s: %w", job.Template, qerr)
	}
	p.log.Warn("email send failed, requeued",
		"template", job.Template, "to", job.To, "attempts", job.Attempts, "error", err)
	return err
}
