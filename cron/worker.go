package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lockbox/services/lifecycle"
	"lockbox/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sweeps is the lifecycle work the worker runs on schedule.
type Sweeps interface {
	AdvancePhases(ctx context.Context) (*lifecycle.PhaseReport, error)
	SendReminders(ctx context.Context) (*lifecycle.ReminderReport, error)
}

type Schedule struct {
	PhaseCron    string
	ReminderCron string
	Location     *time.Location
}

// Worker owns the asynq scheduler that enqueues sweeps and the server that runs them.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func NewWorker(redisOpts asynq.RedisClientOpt, sweeps Sweeps, sched Schedule, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sched.Location == nil {
		sched.Location = time.UTC
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("sweep task failed", zap.String("task", task.Type()), zap.Error(err))
			}),
		},
	)

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: sched.Location})
	phase, err := tasks.NewPhaseSweepTask("schedule")
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(sched.PhaseCron, phase); err != nil {
		return nil, fmt.Errorf("register phase sweep %q: %w", sched.PhaseCron, err)
	}
	remind, err := tasks.NewReminderSweepTask("schedule")
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(sched.ReminderCron, remind); err != nil {
		return nil, fmt.Errorf("register reminder sweep %q: %w", sched.ReminderCron, err)
	}

	return &Worker{server: srv, scheduler: scheduler, mux: NewMux(sweeps, logger), logger: logger}, nil
}

// Start runs the scheduler and the task server in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start sweep server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start sweep scheduler: %w", err)
	}
	w.logger.Info("lifecycle worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.logger.Info("lifecycle worker stopped")
}

// NewMux routes sweep tasks to the lifecycle sweeper.
func NewMux(sweeps Sweeps, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePhaseSweep, handlePhaseSweep(sweeps, logger))
	mux.HandleFunc(tasks.TypeReminderSweep, handleReminderSweep(sweeps, logger))
	return mux
}

func handlePhaseSweep(sweeps Sweeps, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		trigger, err := triggerOf(task)
		if err != nil {
			return err
		}
		report, err := sweeps.AdvancePhases(ctx)
		if err != nil {
			return err
		}
		logger.Info("phase sweep task done", zap.String("trigger", trigger),
			zap.Int("promoted", len(report.Promoted)), zap.Int("retired", len(report.Retired)))
		return nil
	}
}

func handleReminderSweep(sweeps Sweeps, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		trigger, err := triggerOf(task)
		if err != nil {
			return err
		}
		report, err := sweeps.SendReminders(ctx)
		if err != nil {
			// everything already emitted is deduplicated, so a retry only fills gaps
			return err
		}
		logger.Info("reminder sweep task done", zap.String("trigger", trigger),
			zap.Int("review_sent", report.ReviewSent), zap.Int("checkout_sent", report.CheckoutSent))
		return nil
	}
}

func triggerOf(task *asynq.Task) (string, error) {
	var p tasks.SweepPayload
	if len(task.Payload()) == 0 {
		return "", nil
	}
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return "", fmt.Errorf("invalid sweep payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.Trigger, nil
}
