package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer puts tasks on the asynq queues
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates a new enqueuer
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueEmail schedules an e-mail
func (e *Enqueuer) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	task, err := NewEmailTask(p)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}

// EnqueueMaintenance schedules a maintenance job. A job of the same type
// already queued within uniqueFor is not duplicated.
func (e *Enqueuer) EnqueueMaintenance(ctx context.Context, typename string, uniqueFor time.Duration) error {
	task := asynq.NewTask(typename, nil, asynq.Queue(QueueMaintenance), asynq.Unique(uniqueFor), asynq.MaxRetry(3))
	_, err := e.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", typename, err)
	}
	return nil
}
