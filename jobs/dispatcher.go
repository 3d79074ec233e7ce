package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/mail"
)

// EmailDispatcher enqueues rendered emails for background delivery.
type EmailDispatcher struct {
	client *asynq.Client
}

// NewEmailDispatcher wraps an Asynq client.
func NewEmailDispatcher(client *asynq.Client) *EmailDispatcher {
	return &EmailDispatcher{client: client}
}

// Dispatch implements mail.Dispatcher.
func (d *EmailDispatcher) Dispatch(ctx context.Context, msg mail.Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

var _ mail.Dispatcher = (*EmailDispatcher)(nil)
