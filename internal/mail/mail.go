// Package mail builds and delivers transactional account emails.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers a message. Delivery is best-effort; callers log
// failures instead of surfacing them to the triggering request.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage renders the email-ownership verification mail.
func VerificationMessage(to, baseURL, token string) Message {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", baseURL, url.QueryEscape(token))
	return Message{
		To:      to,
		Subject: "Verify your email",
		Body: fmt.Sprintf(`<html><body>
<h2>Welcome to Meridian</h2>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href=%q>Verify email</a></p>
<p>If the button does not work, copy this URL into your browser:<br>%s</p>
<p>If you did not create an account, you can ignore this email.</p>
</body></html>`, link, link),
	}
}

// PasswordResetMessage renders the password reset mail.
func PasswordResetMessage(to, baseURL, token string, expiresIn time.Duration) Message {
	link := fmt.Sprintf("%s/api/auth/reset-password?token=%s", baseURL, url.QueryEscape(token))
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf(`<html><body>
<h2>Password reset</h2>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href=%q>Reset password</a></p>
<p>If the button does not work, copy this URL into your browser:<br>%s</p>
<p>This link expires in %d minutes. If you did not request a reset, ignore this email.</p>
</body></html>`, link, link, int(expiresIn.Minutes())),
	}
}
