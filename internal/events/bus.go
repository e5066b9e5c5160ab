/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventSessionOpened    EventType = "session.opened"
	EventSessionClosed    EventType = "session.closed"
	EventThumbnailReady   EventType = "thumbnail.ready"
	EventThumbnailStalled EventType = "thumbnail.stalled"
	EventPlaybackSelected EventType = "playback.selected"
	EventPlaybackCleared  EventType = "playback.cleared"
	EventViewportChanged  EventType = "viewport.changed"
)

// All lists every event type the gallery emits.
var All = []EventType{
	EventSessionOpened,
	EventSessionClosed,
	EventThumbnailReady,
	EventThumbnailStalled,
	EventPlaybackSelected,
	EventPlaybackCleared,
	EventViewportChanged,
}

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Publisher is the write side of a bus.
type Publisher interface {
	Publish(eventType EventType, payload Payload)
}

// Broker is implemented by the in-process bus and the distributed backends.
type Broker interface {
	Publisher
	Subscribe(eventType EventType) Subscriber
	Unsubscribe(eventType EventType, sub Subscriber)
	Close() error
}

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 64)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers miss events rather
// than block the publisher.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// subscribers are ignored.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// SubscriberCount reports how many subscribers are registered for eventType.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}

// Close is a no-op for the in-process bus.
func (b *Bus) Close() error { return nil }
