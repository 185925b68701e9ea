package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/pkg/cron"
)

type fakeSweeper struct {
	calls map[string]int
}

func (f *fakeSweeper) hit(name string, n int) (int, error) {
	f.calls[name]++
	return n, nil
}

func (f *fakeSweeper) ExpireAbandoned(ctx context.Context) (int, error) {
	return f.hit("expire", 2)
}

func (f *fakeSweeper) AutoCheckout(ctx context.Context) (int, error) {
	return f.hit("checkout", 1)
}

func (f *fakeSweeper) SendCheckoutReminders(ctx context.Context) (int, error) {
	return f.hit("reminders", 4)
}

func (f *fakeSweeper) ProcessAutoRenewals(ctx context.Context) (int, error) {
	return f.hit("renewals", 0)
}

func (f *fakeSweeper) SendExpirationWarnings(ctx context.Context) (int, error) {
	return 0, errors.New("db gone")
}

type fakeEvents struct{ calls int }

func (f *fakeEvents) ExpireAbandoned(ctx context.Context) (int, error) {
	f.calls++
	return 1, nil
}

func TestSweeps_RegisterAndRun(t *testing.T) {
	bookings := &fakeSweeper{calls: map[string]int{}}
	events := &fakeEvents{}
	sweeps := NewSweeps(bookings, events, bookings)

	sched, err := cron.NewService("UTC", time.Minute)
	require.NoError(t, err)
	require.NoError(t, sweeps.Register(sched, &config.SchedulerConfig{
		SweepInterval: time.Hour,
		DailyAt:       "02:00",
	}))

	assert.Equal(t, []string{
		JobAutoCheckout,
		JobAutoRenewals,
		JobCheckoutReminders,
		JobExpirationWarnings,
		JobExpireBookings,
		JobExpireEventBookings,
	}, sched.JobNames())

	ctx := context.Background()

	n, err := sched.RunNow(ctx, JobExpireBookings)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, bookings.calls["expire"])
	assert.Equal(t, 0, events.calls)

	n, err = sched.RunNow(ctx, JobExpireEventBookings)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, events.calls)

	n, err = sched.RunNow(ctx, JobCheckoutReminders)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = sched.RunNow(ctx, JobExpirationWarnings)
	assert.Error(t, err)

	_, err = sched.RunNow(ctx, "nope")
	assert.ErrorIs(t, err, cron.ErrUnknownJob)
}

func TestSweeps_InvalidDailyTime(t *testing.T) {
	s := &fakeSweeper{calls: map[string]int{}}
	sweeps := NewSweeps(s, &fakeEvents{}, s)

	sched, err := cron.NewService("UTC", time.Minute)
	require.NoError(t, err)
	err = sweeps.Register(sched, &config.SchedulerConfig{SweepInterval: time.Hour, DailyAt: "25:00"})
	assert.Error(t, err)
}
