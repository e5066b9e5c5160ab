package gallery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/viewport"
)

func newTestManager(maxSessions int, stallAfter time.Duration) (*Manager, *events.Bus) {
	bus := events.NewBus()
	return NewManager(ManagerConfig{
		Catalog:     twoEntryCatalog(),
		Publisher:   bus,
		MaxSessions: maxSessions,
		StallAfter:  stallAfter,
		Logger:      zerolog.Nop(),
	}), bus
}

func TestManagerOpenGetClose(t *testing.T) {
	m, bus := newTestManager(10, 0)
	opened := bus.Subscribe(events.EventSessionOpened)
	closed := bus.Subscribe(events.EventSessionClosed)

	s, err := m.Open(&recordingClient{}, viewport.ModeMobile)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Mode() != viewport.ModeMobile {
		t.Fatalf("hint ignored: mode = %s", s.Mode())
	}
	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("get = %v, %v", got, err)
	}

	if err := m.Close(s.ID()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("get after close err = %v", err)
	}
	if err := m.Close(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("double close err = %v", err)
	}
	if len(opened) != 1 || len(closed) != 1 {
		t.Fatalf("opened=%d closed=%d", len(opened), len(closed))
	}
}

func TestManagerSessionLimit(t *testing.T) {
	m, _ := newTestManager(1, 0)
	if _, err := m.Open(nil, ""); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := m.Open(nil, ""); !errors.Is(err, ErrSessionLimit) {
		t.Fatalf("second open err = %v, want ErrSessionLimit", err)
	}
	m.CloseAll()
	if m.Count() != 0 {
		t.Fatalf("count after CloseAll = %d", m.Count())
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(10, 0)
	a, _ := m.Open(&recordingClient{}, "")
	b, _ := m.Open(&recordingClient{}, "")

	_ = a.Apply(ctx, Event{Kind: KindHello, Width: 1280})
	_ = b.Apply(ctx, Event{Kind: KindHello, Width: 400})
	_ = a.Apply(ctx, Event{Kind: KindDataLoaded, ID: "A"})
	_ = a.Apply(ctx, Event{Kind: KindSeeked, ID: "A"})
	_ = a.Select(ctx, "A")

	if !a.IsReady("A") || b.IsReady("A") {
		t.Fatal("readiness leaked between sessions")
	}
	if _, ok := b.Selected(); ok {
		t.Fatal("selection leaked between sessions")
	}
	if a.Mode() != viewport.ModeDesktop || b.Mode() != viewport.ModeMobile {
		t.Fatalf("modes a=%s b=%s", a.Mode(), b.Mode())
	}
}

func TestManagerSweepReportsWithoutChangingState(t *testing.T) {
	ctx := context.Background()
	m, bus := newTestManager(10, time.Minute)
	stalled := bus.Subscribe(events.EventThumbnailStalled)

	s, _ := m.Open(&recordingClient{}, "")
	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})
	_ = s.Apply(ctx, Event{Kind: KindDataLoaded, ID: "A"})
	_ = s.Apply(ctx, Event{Kind: KindSeeked, ID: "A"})

	if n := m.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh sweep found %d", n)
	}
	if n := m.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("late sweep found %d, want 1", n)
	}
	if s.IsReady("B") {
		t.Fatal("sweep must not change state")
	}

	// B can still become ready after being reported.
	_ = s.Apply(ctx, Event{Kind: KindDataLoaded, ID: "B"})
	_ = s.Apply(ctx, Event{Kind: KindSeeked, ID: "B"})
	if !s.IsReady("B") {
		t.Fatal("B should become ready after late notifications")
	}
	if len(stalled) != 2 {
		t.Fatalf("stalled events = %d, want 2", len(stalled))
	}
}

func TestManagerRunDisabledReturns(t *testing.T) {
	m, _ := newTestManager(10, 0)
	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return when stall reporting is disabled")
	}
}
