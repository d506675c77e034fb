package events

import (
	"sync"
	"testing"
	"time"
)

func TestEventBus_Subscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()

	bus.Publish(NewCardMovedEvent("card-1", "novo", "documentacao", 3, "u-1"))

	select {
	case received := <-ch:
		if received.EventType() != TypeCardMoved {
			t.Errorf("expected %s, got %s", TypeCardMoved, received.EventType())
		}
		if received.CardID() != "card-1" {
			t.Errorf("expected card-1, got %s", received.CardID())
		}
		moved, ok := received.(CardMovedEvent)
		if !ok {
			t.Fatalf("expected CardMovedEvent, got %T", received)
		}
		if moved.NewPosition != 3 || moved.ToStage != "documentacao" {
			t.Errorf("unexpected payload: %+v", moved)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	auditCh := bus.Subscribe(TypeAuditWriteFailed)
	allCh := bus.Subscribe()

	bus.Publish(NewCardMovedEvent("card-1", "a", "b", 0, "u-1"))
	bus.Publish(NewAuditWriteFailedEvent("card-1", AuditKindHistory, "a", "b", "boom"))

	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("allCh should receive event %d", i)
		}
	}

	select {
	case received := <-auditCh:
		if received.EventType() != TypeAuditWriteFailed {
			t.Errorf("expected %s, got %s", TypeAuditWriteFailed, received.EventType())
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("auditCh should receive audit event")
	}

	select {
	case extra := <-auditCh:
		t.Errorf("auditCh should not receive %s", extra.EventType())
	default:
	}
}

func TestEventBus_RingBufferDropsOldest(t *testing.T) {
	bus := New(5)
	defer bus.Close()

	ch := bus.Subscribe()

	for i := 0; i < 10; i++ {
		bus.Publish(NewCardMovedEvent("card-1", "a", "b", i, "u-1"))
	}

	if bus.DroppedCount() == 0 {
		t.Error("expected some events to be dropped")
	}

	// The newest event must survive.
	var last CardMovedEvent
drain:
	for {
		select {
		case ev := <-ch:
			last = ev.(CardMovedEvent)
		default:
			break drain
		}
	}
	if last.NewPosition != 9 {
		t.Errorf("last received position = %d, want 9", last.NewPosition)
	}
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := New(100)
	defer bus.Close()

	ch := bus.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(NewCommentAddedEvent("card-1", "c", "u", false))
			}
		}()
	}
	wg.Wait()

	received := 0
drainLoop:
	for {
		select {
		case <-ch:
			received++
		default:
			break drainLoop
		}
	}

	if received == 0 {
		t.Error("should have received some events")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", bus.SubscriberCount())
	}
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := New(10)
	ch := bus.Subscribe()
	bus.Close()

	// Must not panic on a closed bus.
	bus.Publish(NewCardCreatedEvent("card-1", "novo", 0))

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close")
	}

	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscription on a closed bus should be closed")
	}
}
