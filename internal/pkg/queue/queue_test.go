package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestQueue_PushPop_FIFO(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "email_jobs")
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, &EmailJob{To: "a@example.com", Template: TemplateCheckoutReminder}))
	require.NoError(t, q.Push(ctx, &EmailJob{To: "b@example.com", Template: TemplateAutoCheckout,
		Data: map[string]string{"reference": "ACME-2025-000001"}}))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	first, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a@example.com", first.To)
	assert.False(t, first.QueuedAt.IsZero())

	second, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, TemplateAutoCheckout, second.Template)
	assert.Equal(t, "ACME-2025-000001", second.Data["reference"])
}

func TestQueue_Pop_Empty(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "email_jobs")

	job, err := q.Pop(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueue_Pop_InvalidPayload(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := mr.Lpush("email_jobs", "not-json")
	require.NoError(t, err)

	q := NewQueue(client, "email_jobs")
	_, err = q.Pop(context.Background(), time.Second)
	assert.Error(t, err)
}

func TestQueue_PushOnce(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "email_jobs")
	ctx := context.Background()
	job := &EmailJob{To: "guest@example.com", Template: TemplateCheckoutReminder}

	ok, err := q.PushOnce(ctx, "checkout-reminder:1:3", job, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.PushOnce(ctx, "checkout-reminder:1:3", job, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	// 过期后可再次入队
	mr.FastForward(2 * time.Hour)
	ok, err = q.PushOnce(ctx, "checkout-reminder:1:3", job, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
