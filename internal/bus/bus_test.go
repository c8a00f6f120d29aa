package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("feed.", 4)
	defer unsub()

	b.Publish(Event{Kind: KindFeedSnapshot, Timestamp: time.Now()})

	select {
	case evt := <-ch:
		if evt.Kind != KindFeedSnapshot {
			t.Errorf("kind = %q, want %q", evt.Kind, KindFeedSnapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("reply.", 4)
	defer unsub()

	b.Publish(Event{Kind: KindFeedbackUpdated})
	b.Publish(Event{Kind: KindReplySent})

	select {
	case evt := <-ch:
		if evt.Kind != KindReplySent {
			t.Errorf("kind = %q, want %q", evt.Kind, KindReplySent)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected extra event: %q", evt.Kind)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 4)
	unsub()

	b.Publish(Event{Kind: KindReplySent})

	select {
	case evt := <-ch:
		t.Errorf("received %q after unsubscribe", evt.Kind)
	default:
	}
}

func TestFullSubscriberDropsEvents(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe("", 1)
	defer unsub()

	b.Publish(Event{Kind: KindReplySent})
	b.Publish(Event{Kind: KindReplySent})

	if got := b.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}
