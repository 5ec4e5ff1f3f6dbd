package commands

import (
	"context"
	"fmt"

	"lockbox/config"
	"lockbox/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

// SweepCmd runs a lifecycle sweep once, inline or through the task queue.
func SweepCmd() *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a lifecycle sweep once",
	}
	cmd.PersistentFlags().BoolVar(&enqueue, "enqueue", false, "enqueue the sweep for the worker instead of running it here")

	cmd.AddCommand(&cobra.Command{
		Use:   "advance",
		Short: "Advance booking phases (future to current to past)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				return enqueueSweep(tasks.NewPhaseSweepTask)
			}
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			report, err := app.Sweeper.AdvancePhases(cmd.Context())
			if report != nil {
				fmt.Printf("promoted %d, retired %d\n", len(report.Promoted), len(report.Retired))
			}
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remind",
		Short: "Send review and checkout reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				return enqueueSweep(tasks.NewReminderSweepTask)
			}
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			report, err := app.Sweeper.SendReminders(cmd.Context())
			if report != nil {
				fmt.Printf("review sent %d (skipped %d), checkout sent %d (skipped %d)\n",
					report.ReviewSent, report.ReviewSkipped, report.CheckoutSent, report.CheckoutSkipped)
			}
			return err
		},
	})
	return cmd
}

func enqueueSweep(build func(trigger string) (*asynq.Task, error)) error {
	task, err := build("cli")
	if err != nil {
		return err
	}
	client := asynq.NewClient(queueRedisOpt(config.AppConfig))
	defer client.Close()

	info, err := client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
	return nil
}
