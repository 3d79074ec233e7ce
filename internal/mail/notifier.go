package mail

import (
	"context"
	"time"
)

// Dispatcher hands a rendered message off for delivery, typically onto
// the background job queue so HTTP requests never wait on SMTP.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// SyncDispatcher delivers inline through a Mailer, used in tests and
// worker-less deployments.
type SyncDispatcher struct {
	Mailer Mailer
}

func (d SyncDispatcher) Dispatch(ctx context.Context, msg Message) error {
	return d.Mailer.Send(ctx, msg)
}

// Notifier renders account emails and dispatches them. It implements
// the auth service's notifier port.
type Notifier struct {
	dispatcher Dispatcher
	baseURL    string
	resetTTL   time.Duration
}

// NewNotifier constructs a Notifier. baseURL is the public origin used
// in email links.
func NewNotifier(dispatcher Dispatcher, baseURL string, resetTTL time.Duration) *Notifier {
	return &Notifier{dispatcher: dispatcher, baseURL: baseURL, resetTTL: resetTTL}
}

// SendVerificationEmail dispatches the verification mail.
func (n *Notifier) SendVerificationEmail(ctx context.Context, to, token string) error {
	return n.dispatcher.Dispatch(ctx, VerificationMessage(to, n.baseURL, token))
}

// SendPasswordResetEmail dispatches the reset mail.
func (n *Notifier) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	return n.dispatcher.Dispatch(ctx, PasswordResetMessage(to, n.baseURL, token, n.resetTTL))
}
