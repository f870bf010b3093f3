package eventbus

import (
	"testing"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func TestBuffer_FlushPublishesInOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var seen []domain.EventType
	bus.SubscribeAll(func(e domain.Event) { seen = append(seen, e.Type()) })

	buf := NewBuffer(bus)
	buf.Add(domain.NewTrackStoppedEvent(), nil, domain.NewVolumeChangedEvent(0.5))

	if len(seen) != 0 {
		t.Fatalf("Events must not be delivered before Flush, got %v", seen)
	}
	buf.Flush()

	if len(seen) != 2 || seen[0] != domain.EventTrackStopped || seen[1] != domain.EventVolumeChanged {
		t.Errorf("Unexpected delivery order: %v", seen)
	}

	buf.Flush()
	if len(seen) != 2 {
		t.Errorf("Buffer should be empty after Flush, got %d deliveries", len(seen))
	}
}

func TestBuffer_EventsAddedDuringFlushAreDelivered(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	buf := NewBuffer(bus)
	var stopped int
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) {
		buf.Add(domain.NewTrackStoppedEvent())
	})
	bus.Subscribe(domain.EventTrackStopped, func(domain.Event) { stopped++ })

	buf.Add(domain.NewVolumeChangedEvent(1))
	buf.Flush()

	if stopped != 1 {
		t.Errorf("Expected re-entrant event to be delivered, got %d", stopped)
	}
}
