package services

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

// LogMailer writes the verification link to the log instead of sending it.
// Useful in development and until an SMTP provider is wired in.
type LogMailer struct{}

func (LogMailer) SendVerification(ctx context.Context, email, link string) error {
	slog.InfoContext(ctx, "verification email", "action", "send_verification", "email", email, "link", link)
	return nil
}
