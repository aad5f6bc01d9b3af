package testutil

import (
	"context"
	"sync"

	"github.com/vidinfra/billsync/internal/notification"
)

// InMemoryNotifier captures published notifications for assertions
type InMemoryNotifier struct {
	mu     sync.Mutex
	events []*notification.InvoiceAvailableEvent
}

// NewInMemoryNotifier creates a capturing notifier
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{}
}

func (n *InMemoryNotifier) InvoiceAvailable(ctx context.Context, event *notification.InvoiceAvailableEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns the captured notifications in publish order
func (n *InMemoryNotifier) Events() []*notification.InvoiceAvailableEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notification.InvoiceAvailableEvent(nil), n.events...)
}

// Clear drops the captured notifications
func (n *InMemoryNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}
