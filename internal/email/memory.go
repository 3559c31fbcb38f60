package email

import (
	"context"
	"sync"
)

// MemorySender collects sent emails in memory. Test use only.
type MemorySender struct {
	mu   sync.Mutex
	sent []Message
}

// NewMemorySender creates a new MemorySender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send records the message.
func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Messages returns a copy of all recorded messages.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
