package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 邮件模板
const (
	TemplateCheckoutReminder  = "checkout_reminder"
	TemplateAutoCheckout      = "auto_checkout"
	TemplateBookingConfirmed  = "booking_confirmed"
	TemplateRenewalSucceeded  = "renewal_succeeded"
	TemplateRenewalFailed     = "renewal_failed"
	TemplateExpirationWarning = "expiration_warning"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// EmailJob 待发送的邮件任务，由 worker 渲染并投递
type EmailJob struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	TenantID int64             `json:"tenant_id"`
	Data     map[string]string `json:"data"`
	Attempts int               `json:"attempts,omitempty"` // 已失败次数
	QueuedAt time.Time         `json:"queued_at"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将任务加入队列
func (q *Queue) Push(ctx context.Context, job *EmailJob) error {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// PushOnce 同一 key 在 ttl 内只入队一次，重复时返回 false
func (q *Queue) PushOnce(ctx context.Context, key string, job *EmailJob, ttl time.Duration) (bool, error) {
	ok, err := q.client.SetNX(ctx, q.queueName+":once:"+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark email job: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := q.Push(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

// Pop 从队列获取任务（阻塞），超时返回 nil
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*EmailJob, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email job: %w", err)
	}

	return &job, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
