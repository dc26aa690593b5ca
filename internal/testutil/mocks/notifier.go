package mocks

import (
	"context"
	"sync"
)

// Notification is one captured delivery
type Notification struct {
	Email   string
	Subject string
	Body    string
}

// Notifier captures notifications for assertions
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

// NewNotifier creates a capturing notifier
func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(_ context.Context, email, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Email: email, Subject: subject, Body: body})
	return nil
}

// Sent returns a snapshot of captured notifications
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}
