package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/mail"
)

type stubMailer struct {
	sent []mail.Message
	err  error
}

func (m *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestSendEmailTaskRoundTrip(t *testing.T) {
	msg := mail.Message{To: "ada@example.com", Subject: "Verify your email", Body: "<html></html>"}

	task, err := NewSendEmailTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendEmail, task.Type())

	mailer := &stubMailer{}
	handler := NewSendEmailHandler(mailer, nil)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, msg, mailer.sent[0])
}

func TestSendEmailHandlerDropsMalformedPayload(t *testing.T) {
	mailer := &stubMailer{}
	handler := NewSendEmailHandler(mailer, nil)

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{corrupt"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, mailer.sent)
}

func TestSendEmailHandlerRetriesDeliveryFailure(t *testing.T) {
	sendErr := errors.New("smtp down")
	handler := NewSendEmailHandler(&stubMailer{err: sendErr}, nil)

	task, err := NewSendEmailTask(mail.Message{To: "ada@example.com"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
