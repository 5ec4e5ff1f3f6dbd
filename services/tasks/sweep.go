package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePhaseSweep    = "lifecycle:advance"
	TypeReminderSweep = "lifecycle:remind"
)

// SweepPayload is constant per trigger so asynq.Unique collapses duplicate
// enqueues from several scheduler replicas into one run.
type SweepPayload struct {
	Trigger string `json:"trigger"`
}

func newSweepTask(typename, trigger string, uniqueFor time.Duration) (*asynq.Task, error) {
	b, err := json.Marshal(SweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, b,
		asynq.Unique(uniqueFor),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

func NewPhaseSweepTask(trigger string) (*asynq.Task, error) {
	return newSweepTask(TypePhaseSweep, trigger, 30*time.Minute)
}

func NewReminderSweepTask(trigger string) (*asynq.Task, error) {
	return newSweepTask(TypeReminderSweep, trigger, 30*time.Minute)
}
