package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/thumbnail"
	"github.com/friendsincode/videogallery/internal/viewport"
)

type recordingClient struct {
	mu   sync.Mutex
	cmds []Command
}

func (c *recordingClient) Send(_ context.Context, cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmds = append(c.cmds, cmd)
	return nil
}

func (c *recordingClient) ops(op CommandOp) []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Command
	for _, cmd := range c.cmds {
		if cmd.Op == op {
			out = append(out, cmd)
		}
	}
	return out
}

type prefixResolver struct{ prefix string }

func (r prefixResolver) Resolve(_ context.Context, locator string) (string, error) {
	if strings.HasPrefix(locator, "bad") {
		return "", errors.New("unresolvable")
	}
	return r.prefix + locator, nil
}

func twoEntryCatalog() *catalog.Catalog {
	return catalog.MustNew([]catalog.MediaDescriptor{
		{ID: "A", Source: "/a.mov", Title: "Alpha"},
		{ID: "B", Source: "/b.mov", Title: "Bravo"},
	})
}

func newTestSession(t *testing.T) (*Session, *recordingClient, *events.Bus) {
	t.Helper()
	client := &recordingClient{}
	bus := events.NewBus()
	s := NewSession(SessionConfig{
		ID:        "s1",
		Catalog:   twoEntryCatalog(),
		Client:    client,
		Resolver:  prefixResolver{prefix: "/media"},
		Publisher: bus,
		Logger:    zerolog.Nop(),
	})
	return s, client, bus
}

func entryState(t *testing.T, snap Snapshot, id string) thumbnail.State {
	t.Helper()
	for _, e := range snap.Entries {
		if e.ID == id {
			return e.State
		}
	}
	t.Fatalf("entry %s missing from snapshot", id)
	return ""
}

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	s, client, _ := newTestSession(t)

	if err := s.Apply(ctx, Event{Kind: KindHello, Width: 1280}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	snap := s.Snapshot()
	if entryState(t, snap, "A") != thumbnail.StatePending || entryState(t, snap, "B") != thumbnail.StatePending {
		t.Fatalf("entries after init = %+v", snap.Entries)
	}
	loads := client.ops(OpLoad)
	if len(loads) != 2 || loads[0].URL != "/media/a.mov" {
		t.Fatalf("load commands = %+v", loads)
	}

	if err := s.Apply(ctx, Event{Kind: KindDataLoaded, ID: "A"}); err != nil {
		t.Fatalf("data loaded: %v", err)
	}
	snap = s.Snapshot()
	if entryState(t, snap, "A") != thumbnail.StateSeekRequested || entryState(t, snap, "B") != thumbnail.StatePending {
		t.Fatalf("entries after data loaded = %+v", snap.Entries)
	}
	seeks := client.ops(OpSeek)
	if len(seeks) != 1 || seeks[0].ID != "A" || seeks[0].Seconds != thumbnail.SeekOffsetSeconds {
		t.Fatalf("seek commands = %+v", seeks)
	}

	if err := s.Apply(ctx, Event{Kind: KindSeeked, ID: "A"}); err != nil {
		t.Fatalf("seeked: %v", err)
	}
	if !s.IsReady("A") || s.IsReady("B") {
		t.Fatalf("ready A=%v B=%v", s.IsReady("A"), s.IsReady("B"))
	}
	readies := client.ops(OpReady)
	if len(readies) != 1 || readies[0].ID != "A" {
		t.Fatalf("ready commands = %+v", readies)
	}

	if err := s.Select(ctx, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if cur, ok := s.Selected(); !ok || cur != "/b.mov" {
		t.Fatalf("selected = %q, %v", cur, ok)
	}
	shows := client.ops(OpShow)
	if len(shows) != 1 || shows[0].URL != "/media/b.mov" || !shows[0].Autoplay {
		t.Fatalf("show commands = %+v", shows)
	}

	if err := s.Apply(ctx, Event{Kind: KindEnded, Src: "/b.mov"}); err != nil {
		t.Fatalf("ended: %v", err)
	}
	if _, ok := s.Selected(); ok {
		t.Fatal("selection should be cleared after ended")
	}
	if len(client.ops(OpHide)) != 1 {
		t.Fatalf("hide commands = %+v", client.ops(OpHide))
	}
}

func TestSessionRepeatedSeekedIsNoop(t *testing.T) {
	ctx := context.Background()
	s, client, bus := newTestSession(t)
	ready := bus.Subscribe(events.EventThumbnailReady)

	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})
	_ = s.Apply(ctx, Event{Kind: KindDataLoaded, ID: "A"})
	_ = s.Apply(ctx, Event{Kind: KindSeeked, ID: "A"})

	if err := s.Apply(ctx, Event{Kind: KindSeeked, ID: "A"}); err != nil {
		t.Fatalf("repeated seeked: %v", err)
	}
	if !s.IsReady("A") {
		t.Fatal("A should stay ready")
	}
	if len(ready) != 1 {
		t.Fatalf("ready events = %d, want 1", len(ready))
	}
	if got := client.ops(OpReady); len(got) != 1 {
		t.Fatalf("ready commands = %d, want 1", len(got))
	}
}

func TestSessionViewportHasNoHysteresis(t *testing.T) {
	ctx := context.Background()
	s, client, bus := newTestSession(t)
	changes := bus.Subscribe(events.EventViewportChanged)

	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1024})
	for _, width := range []int{1024, 500, 1024} {
		if err := s.Apply(ctx, Event{Kind: KindResize, Width: width}); err != nil {
			t.Fatalf("resize %d: %v", width, err)
		}
		if got, want := s.Mode(), viewport.Classify(width); got != want {
			t.Fatalf("width %d: mode = %s, want %s", width, got, want)
		}
	}

	if len(changes) != 2 {
		t.Fatalf("viewport change events = %d, want 2", len(changes))
	}
	layouts := client.ops(OpLayout)
	if len(layouts) != 3 {
		t.Fatalf("layout commands = %+v", layouts)
	}
	for i, want := range []viewport.Mode{viewport.ModeDesktop, viewport.ModeMobile, viewport.ModeDesktop} {
		got := layouts[i]
		if got.Mode != want.String() || got.Layout == nil || *got.Layout != viewport.LayoutFor(want) {
			t.Fatalf("layout %d = %+v, want full %s layout", i, got, want)
		}
	}
}

func TestSessionRejectsEventsBeforeHello(t *testing.T) {
	s, client, _ := newTestSession(t)
	if err := s.Apply(context.Background(), Event{Kind: KindSeeked, ID: "A"}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
	if len(client.cmds) != 0 {
		t.Fatalf("commands sent before hello: %+v", client.cmds)
	}
}

func TestSessionUnknownMedia(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 800})

	for _, ev := range []Event{
		{Kind: KindDataLoaded, ID: "Z"},
		{Kind: KindSeeked, ID: "Z"},
		{Kind: KindCellClicked, ID: "Z"},
		{Kind: KindThumbnailError, ID: "Z"},
	} {
		if err := s.Apply(ctx, ev); !errors.Is(err, thumbnail.ErrUnknownMedia) {
			t.Errorf("%s: err = %v, want ErrUnknownMedia", ev.Kind, err)
		}
	}
}

func TestSessionStaleEndedKeepsNewSelection(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})

	_ = s.Select(ctx, "A")
	_ = s.Select(ctx, "B")
	_ = s.Apply(ctx, Event{Kind: KindEnded, Src: "/a.mov"})

	if cur, ok := s.Selected(); !ok || cur != "/b.mov" {
		t.Fatalf("selected = %q, %v", cur, ok)
	}
}

func TestSessionPlayerErrorClosesPlayer(t *testing.T) {
	ctx := context.Background()
	s, _, bus := newTestSession(t)
	cleared := bus.Subscribe(events.EventPlaybackCleared)
	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})

	_ = s.Select(ctx, "A")
	if err := s.Apply(ctx, Event{Kind: KindPlayerError, Src: "/a.mov", Message: "decode"}); err != nil {
		t.Fatalf("player error: %v", err)
	}
	if _, ok := s.Selected(); ok {
		t.Fatal("player should be closed after error")
	}
	got := <-cleared
	if got["reason"] != "error" || got["session_id"] != "s1" {
		t.Fatalf("cleared payload = %v", got)
	}
}

func TestSessionCloseRejectsFurtherEvents(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Close()
	s.Close()
	if err := s.Apply(context.Background(), Event{Kind: KindHello, Width: 900}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

func TestSessionResolveFailureLeavesSessionUnstarted(t *testing.T) {
	s := NewSession(SessionConfig{
		ID:       "s2",
		Catalog:  catalog.MustNew([]catalog.MediaDescriptor{{ID: "X", Source: "bad.mov"}}),
		Resolver: prefixResolver{},
		Logger:   zerolog.Nop(),
	})
	if err := s.Apply(context.Background(), Event{Kind: KindHello, Width: 900}); err == nil {
		t.Fatal("expected resolve error")
	}
	if s.Snapshot().Started {
		t.Fatal("session should not be started")
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		ev      Event
		wantErr bool
	}{
		{Event{Kind: KindHello, Width: 320}, false},
		{Event{Kind: KindHello}, true},
		{Event{Kind: KindSeeked}, true},
		{Event{Kind: KindCloseClicked}, false},
		{Event{Kind: "teleport"}, true},
	}
	for _, tt := range tests {
		err := tt.ev.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) err = %v, wantErr %v", tt.ev, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("Validate(%+v) err = %v, want ErrInvalidEvent", tt.ev, err)
		}
	}
}

// mintingResolver returns a new signed URL on every call, like a presigner.
type mintingResolver struct {
	mu  sync.Mutex
	gen int
}

func (r *mintingResolver) Resolve(_ context.Context, locator string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return fmt.Sprintf("https://bucket%s?X-Amz-Expires=3600&gen=%d", locator, r.gen), nil
}

func TestSessionShowResolvesURLAtSelection(t *testing.T) {
	ctx := context.Background()
	client := &recordingClient{}
	resolver := &mintingResolver{}
	s := NewSession(SessionConfig{
		ID:       "s1",
		Catalog:  twoEntryCatalog(),
		Client:   client,
		Resolver: resolver,
		Logger:   zerolog.Nop(),
	})

	if err := s.Apply(ctx, Event{Kind: KindHello, Width: 1280}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	loads := client.ops(OpLoad)
	if len(loads) != 2 || !strings.HasSuffix(loads[1].URL, "gen=2") {
		t.Fatalf("load commands = %+v", loads)
	}

	if err := s.Select(ctx, "B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.Select(ctx, "B"); err != nil {
		t.Fatalf("second select: %v", err)
	}

	shows := client.ops(OpShow)
	if len(shows) != 2 {
		t.Fatalf("show commands = %+v", shows)
	}
	if shows[0].URL != "https://bucket/b.mov?X-Amz-Expires=3600&gen=3" {
		t.Fatalf("first show url = %q, want a URL minted at selection", shows[0].URL)
	}
	if shows[1].URL == shows[0].URL {
		t.Fatalf("second show reused %q", shows[1].URL)
	}
	if shows[0].Src != "/b.mov" {
		t.Fatalf("show src = %q", shows[0].Src)
	}
}

// failAfterHello resolves during hello and fails afterwards.
type failAfterHello struct {
	prefixResolver
	started bool
}

func (r *failAfterHello) Resolve(ctx context.Context, locator string) (string, error) {
	if r.started {
		return "", errors.New("presign unavailable")
	}
	return r.prefixResolver.Resolve(ctx, locator)
}

func TestSessionShowFallsBackToHelloURL(t *testing.T) {
	ctx := context.Background()
	client := &recordingClient{}
	resolver := &failAfterHello{prefixResolver: prefixResolver{prefix: "/media"}}
	s := NewSession(SessionConfig{
		ID:       "s1",
		Catalog:  twoEntryCatalog(),
		Client:   client,
		Resolver: resolver,
		Logger:   zerolog.Nop(),
	})

	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})
	resolver.started = true

	if err := s.Select(ctx, "A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	shows := client.ops(OpShow)
	if len(shows) != 1 || shows[0].URL != "/media/a.mov" {
		t.Fatalf("show commands = %+v", shows)
	}
}

func TestSessionThumbnailErrorKeepsEntryPending(t *testing.T) {
	ctx := context.Background()
	s, client, bus := newTestSession(t)
	ready := bus.Subscribe(events.EventThumbnailReady)
	_ = s.Apply(ctx, Event{Kind: KindHello, Width: 1280})

	if err := s.Apply(ctx, Event{Kind: KindThumbnailError, ID: "A", Message: "4"}); err != nil {
		t.Fatalf("thumbnail error for known id: %v", err)
	}

	if got := entryState(t, s.Snapshot(), "A"); got != thumbnail.StatePending {
		t.Fatalf("A state = %s, want pending", got)
	}
	if s.IsReady("A") {
		t.Fatal("A must not be ready after a load failure")
	}
	if n := len(client.ops(OpSeek)) + len(client.ops(OpReady)); n != 0 {
		t.Fatalf("unexpected seek/ready commands: %d", n)
	}
	if len(ready) != 0 {
		t.Fatalf("ready events = %d, want 0", len(ready))
	}

	// A late data_loaded still advances the entry.
	if err := s.Apply(ctx, Event{Kind: KindDataLoaded, ID: "A"}); err != nil {
		t.Fatalf("data loaded: %v", err)
	}
	if got := entryState(t, s.Snapshot(), "A"); got != thumbnail.StateSeekRequested {
		t.Fatalf("A state = %s, want seek_requested", got)
	}
}

func TestSessionApplyRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	s, _, _ := newTestSession(t)

	if err := s.Apply(ctx, Event{Kind: KindSeeked, ID: "A"}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
	if err := s.Apply(ctx, Event{Kind: KindHello, Width: 1280}); err != nil {
		t.Fatalf("hello: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	for _, span := range spans {
		if span.Name() != "gallery.apply" {
			t.Fatalf("span name = %q", span.Name())
		}
	}

	attrs := func(i int) map[attribute.Key]string {
		out := map[attribute.Key]string{}
		for _, kv := range spans[i].Attributes() {
			out[kv.Key] = kv.Value.Emit()
		}
		return out
	}

	rejected := attrs(0)
	if rejected["kind"] != "seeked" || rejected["id"] != "A" || rejected["session_id"] != "s1" {
		t.Fatalf("rejected span attributes = %v", rejected)
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("rejected span status = %+v", spans[0].Status())
	}

	if attrs(1)["kind"] != "hello" {
		t.Fatalf("hello span attributes = %v", attrs(1))
	}
	if spans[1].Status().Code == codes.Error {
		t.Fatal("accepted event marked as failed")
	}
}
