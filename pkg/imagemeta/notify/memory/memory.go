// Package memory provides a capturing Notifier for tests.
package memory

import (
	"context"
	"sync"
)

// Sent is one captured notification.
type Sent struct {
	Subject    string
	HTMLBody   string
	Recipients []string
}

// Notifier implements imagemeta.Notifier by recording sends in memory
type Notifier struct {
	mu   sync.Mutex
	sent []Sent

	// Err, when set, is returned from every Publish to simulate a transport
	// failure.
	Err error
}

// New creates a new capturing notifier
func New() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Publish(ctx context.Context, subject, htmlBody string, recipients []string) error {
	if n.Err != nil {
		return n.Err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Sent{Subject: subject, HTMLBody: htmlBody, Recipients: recipients})
	return nil
}

// Sent returns a copy of all captured notifications.
func (n *Notifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Sent, len(n.sent))
	copy(out, n.sent)
	return out
}
