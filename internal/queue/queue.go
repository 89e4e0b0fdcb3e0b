package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueDispatch schedules a publish task for platform at the given time.
// The task ID encodes the platform and slot so re-running the scheduler loop
// cannot double-book the same slot.
func EnqueueDispatch(asynqClient *asynq.Client, platform string, at time.Time) error {
	taskPayload, err := json.Marshal(DispatchPayload{Platform: platform})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatchPublish, taskPayload)

	_, err = asynqClient.Enqueue(task,
		asynq.ProcessAt(at),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TaskTypeDispatchPublish, platform, at.Unix())),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("dispatch scheduled", "platform", platform, "at", at)
	return nil
}

// Dispatcher adapts an asynq client for the scheduler loop.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, platform string, at time.Time) error {
	return EnqueueDispatch(d.client, platform, at)
}
