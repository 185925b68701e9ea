package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelNotifications = "hms:notifications"
)

// NotificationMessage 推送给在线员工/住客的站内通知
type NotificationMessage struct {
	Type           string `json:"type"`
	TenantID       int64  `json:"tenant_id"`
	RecipientID    int64  `json:"recipient_id"`
	NotificationID int64  `json:"notification_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Level          string `json:"level"`
	Link           string `json:"link,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishNotification 发布通知消息
func (p *Publisher) PublishNotification(ctx context.Context, msg *NotificationMessage) error {
	msg.Type = "notification"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	return p.client.Publish(ctx, ChannelNotifications, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅通知，阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*NotificationMessage)) error {
	ps := s.client.Subscribe(ctx, ChannelNotifications)
	defer ps.Close()

	// 等待订阅确认，避免订阅建立前的消息丢失
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var n NotificationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue // 忽略解析错误
			}

			handler(&n)
		}
	}
}
