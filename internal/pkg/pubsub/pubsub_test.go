package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestPublishSubscribe(t *testing.T) {
	client := setupTestRedis(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *NotificationMessage, 1)
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(client).Subscribe(ctx, func(m *NotificationMessage) {
			received <- m
		})
	}()

	// 等待订阅建立
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, ChannelNotifications).Result()
		return err == nil && n[ChannelNotifications] > 0
	}, 2*time.Second, 10*time.Millisecond)

	err := NewPublisher(client).PublishNotification(ctx, &NotificationMessage{
		TenantID:    1,
		RecipientID: 42,
		Title:       "New Order Received",
		Level:       "INFO",
	})
	require.NoError(t, err)

	select {
	case m := <-received:
		assert.Equal(t, "notification", m.Type)
		assert.Equal(t, int64(42), m.RecipientID)
		assert.Equal(t, "New Order Received", m.Title)
	case <-ctx.Done():
		t.Fatal("notification not received")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
