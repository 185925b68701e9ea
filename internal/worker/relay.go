package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
	"github.com/qs3c/hms_go_server/internal/pkg/pubsub"
	"github.com/qs3c/hms_go_server/internal/pkg/ws"
)

// Pusher 向在线用户推送消息
type Pusher interface {
	SendToTenantUser(tenantID, userID int64, msg *ws.Message) error
}

// Relay 把 redis 上发布的站内通知转发给本进程的 websocket 连接
type Relay struct {
	subscriber *pubsub.Subscriber
	pusher     Pusher
	log        *slog.Logger
}

func NewRelay(subscriber *pubsub.Subscriber, pusher Pusher) *Relay {
	return &Relay{
		subscriber: subscriber,
		pusher:     pusher,
		log:        logger.WithComponent("relay"),
	}
}

// Run 阻塞直到 ctx 结束
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("notification relay started")
	err := r.subscriber.Subscribe(ctx, r.Deliver)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Deliver 推送一条通知，接收人离线时忽略
func (r *Relay) Deliver(msg *pubsub.NotificationMessage) {
	err := r.pusher.SendToTenantUser(msg.TenantID, msg.RecipientID, &ws.Message{
		Type: msg.Type,
		Data: msg,
	})
	if err != nil {
		r.log.Warn("failed to push notification",
			"notification_id", msg.NotificationID, "recipient_id", msg.RecipientID, "error", err)
	}
}
