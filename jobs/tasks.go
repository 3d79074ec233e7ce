package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// NewSendEmailTask constructs an Asynq task carrying a rendered email.
func NewSendEmailTask(msg mail.Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler returns the worker-side handler delivering queued
// emails through the given mailer. Malformed payloads are dropped;
// delivery failures are returned so Asynq retries them.
func NewSendEmailHandler(mailer mail.Mailer, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var msg mail.Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			logger.Error("send email payload", slog.Any("error", err))
			return asynq.SkipRetry
		}
		if err := mailer.Send(ctx, msg); err != nil {
			logger.Warn("send email", slog.String("to", msg.To), slog.Any("error", err))
			return err
		}
		logger.Info("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
		return nil
	}
}
