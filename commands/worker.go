package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lockbox/config"
	"lockbox/cron"

	"github.com/spf13/cobra"
)

func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduled lifecycle sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			w, err := newWorker(app)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			w.Shutdown()
			return nil
		},
	}
}

func newWorker(app *App) (*cron.Worker, error) {
	cfg := config.AppConfig
	return cron.NewWorker(queueRedisOpt(cfg), app.Sweeper, cron.Schedule{
		PhaseCron:    cfg.PhaseSweepCron,
		ReminderCron: cfg.ReminderSweepCron,
		Location:     cfg.Location(),
	}, app.Logger)
}
