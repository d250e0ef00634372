// Package email delivers operator alerts over SMTP.
package email

import "context"

// Sender delivers a plain-text alert to the configured operator mailbox.
type Sender interface {
	SendAlert(ctx context.Context, subject, body string) error
}

// NoopSender drops every alert. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendAlert(context.Context, string, string) error { return nil }
