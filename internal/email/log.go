package email

import (
	"context"
	"log/slog"
)

// LogSender logs emails instead of delivering them. Used in development when
// no mail provider is configured. The full message contents end up in the
// logs, so this is not suitable for production.
type LogSender struct{}

// NewLogSender creates a new LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("email (not sent, no provider configured)",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
