package events

import (
	"testing"
	"time"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventThumbnailReady)

	bus.Publish(EventThumbnailReady, Payload{"id": "/D1.mov"})

	select {
	case got := <-sub:
		if got["id"] != "/D1.mov" {
			t.Fatalf("payload = %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventPlaybackSelected)

	bus.Publish(EventPlaybackCleared, Payload{})

	select {
	case got := <-sub:
		t.Fatalf("unexpected event %v", got)
	default:
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventViewportChanged)

	for i := 0; i < cap(sub)+10; i++ {
		bus.Publish(EventViewportChanged, Payload{"n": i})
	}
	if len(sub) != cap(sub) {
		t.Fatalf("buffered = %d, want %d", len(sub), cap(sub))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSessionOpened)

	bus.Unsubscribe(EventSessionOpened, sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
	if n := bus.SubscriberCount(EventSessionOpened); n != 0 {
		t.Fatalf("subscriber count = %d", n)
	}

	// Second unsubscribe must not panic on a closed channel.
	bus.Unsubscribe(EventSessionOpened, sub)
}
