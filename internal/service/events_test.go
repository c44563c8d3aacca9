package service

import "testing"

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 4)
	full := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(full)

	bus.Publish(Event{Type: EventPositionsSaved, Payload: map[string]int{"count": 2}})

	select {
	case ev := <-fast:
		if ev.Type != EventPositionsSaved {
			t.Errorf("expected %s, got %s", EventPositionsSaved, ev.Type)
		}
	default:
		t.Fatal("expected event on subscribed channel")
	}

	bus.Unsubscribe(fast)
	bus.Publish(Event{Type: EventSnapshotApplied})
	if len(fast) != 0 {
		t.Errorf("expected no events after unsubscribe, got %d", len(fast))
	}

	var nilBus *EventBus
	nilBus.Publish(Event{Type: EventSnapshotApplied})
}
