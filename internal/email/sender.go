package email

import "context"

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender is responsible for actually delivering an email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
