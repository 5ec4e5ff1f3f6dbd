package cron

import (
	"context"
	"errors"
	"testing"

	"lockbox/services/lifecycle"
	"lockbox/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSweeps struct {
	advance func(ctx context.Context) (*lifecycle.PhaseReport, error)
	remind  func(ctx context.Context) (*lifecycle.ReminderReport, error)
}

func (f *fakeSweeps) AdvancePhases(ctx context.Context) (*lifecycle.PhaseReport, error) {
	return f.advance(ctx)
}

func (f *fakeSweeps) SendReminders(ctx context.Context) (*lifecycle.ReminderReport, error) {
	return f.remind(ctx)
}

func TestMuxRoutesSweeps(t *testing.T) {
	var advanced, reminded int
	mux := NewMux(&fakeSweeps{
		advance: func(context.Context) (*lifecycle.PhaseReport, error) {
			advanced++
			return &lifecycle.PhaseReport{Promoted: []string{"b-1"}}, nil
		},
		remind: func(context.Context) (*lifecycle.ReminderReport, error) {
			reminded++
			return &lifecycle.ReminderReport{CheckoutSent: 1}, nil
		},
	}, zap.NewNop())

	phase, err := tasks.NewPhaseSweepTask("test")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), phase))

	remind, err := tasks.NewReminderSweepTask("test")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), remind))

	assert.Equal(t, 1, advanced)
	assert.Equal(t, 1, reminded)
}

func TestSweepErrorsAreRetried(t *testing.T) {
	boom := errors.New("mongo unavailable")
	mux := NewMux(&fakeSweeps{
		advance: func(context.Context) (*lifecycle.PhaseReport, error) { return nil, boom },
	}, zap.NewNop())

	phase, err := tasks.NewPhaseSweepTask("test")
	require.NoError(t, err)
	err = mux.ProcessTask(context.Background(), phase)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	mux := NewMux(&fakeSweeps{}, zap.NewNop())
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeReminderSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
