package eventbus

import (
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// Buffer collects events while a caller holds its own lock and publishes them
// later, so that handlers re-entering the caller cannot deadlock.
type Buffer struct {
	bus ports.EventBus

	mu      sync.Mutex
	pending []domain.Event
}

// NewBuffer creates a buffer in front of bus.
func NewBuffer(bus ports.EventBus) *Buffer {
	return &Buffer{bus: bus}
}

// Add queues an event.
func (b *Buffer) Add(events ...domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range events {
		if e != nil {
			b.pending = append(b.pending, e)
		}
	}
}

// Flush publishes queued events in order and empties the buffer.
// Events queued by handlers during the flush are delivered in the same call.
func (b *Buffer) Flush() {
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			b.bus.Publish(e)
		}
	}
}
