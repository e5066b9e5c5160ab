/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package gallery ties the catalog, viewport classifier, thumbnail tracker
// and playback selector together for one page view.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/playback"
	"github.com/friendsincode/videogallery/internal/telemetry"
	"github.com/friendsincode/videogallery/internal/thumbnail"
	"github.com/friendsincode/videogallery/internal/viewport"
)

const tracerName = "github.com/friendsincode/videogallery/internal/gallery"

var (
	// ErrSessionClosed is returned by Apply after Close.
	ErrSessionClosed = errors.New("gallery session closed")
	// ErrNotStarted is returned for events that arrive before hello.
	ErrNotStarted = errors.New("gallery session not started")
)

// Client delivers commands to the page that owns a session.
type Client interface {
	Send(ctx context.Context, cmd Command) error
}

// Resolver maps a catalog locator to a URL the page can fetch.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (string, error)
}

// EntrySnapshot is one grid cell as seen by the page.
type EntrySnapshot struct {
	ID    string          `json:"id"`
	Src   string          `json:"src"`
	Title string          `json:"title,omitempty"`
	URL   string          `json:"url,omitempty"`
	State thumbnail.State `json:"state"`
	Ready bool            `json:"ready"`
}

// Snapshot is the full observable state of a session.
type Snapshot struct {
	SessionID  string          `json:"session_id"`
	Started    bool            `json:"started"`
	Mode       viewport.Mode   `json:"mode"`
	Width      int             `json:"width,omitempty"`
	Layout     viewport.Layout `json:"layout"`
	Entries    []EntrySnapshot `json:"entries"`
	ReadyCount int             `json:"ready_count"`
	Selected   string          `json:"selected,omitempty"`
	Playing    bool            `json:"playing"`
}

// Session is one page view. Apply serializes every event so the tracker,
// classifier and selector never see concurrent calls.
type Session struct {
	id        string
	catalog   *catalog.Catalog
	client    Client
	resolver  Resolver
	publisher events.Publisher
	logger    zerolog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	viewport *viewport.Classifier
	thumbs   *thumbnail.Tracker
	player   *playback.Selector
	urls     map[string]string
	openedAt time.Time
	started  bool
	closed   bool
}

// SessionConfig carries the collaborators of a session.
type SessionConfig struct {
	ID        string
	Catalog   *catalog.Catalog
	Client    Client
	Resolver  Resolver         // nil serves locators as-is
	Publisher events.Publisher // nil drops events
	Hint      viewport.Mode
	Logger    zerolog.Logger
}

// NewSession creates an unstarted session. Nothing is sent to the client
// until the page says hello with its width.
func NewSession(cfg SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cfg.Logger.With().Str("session_id", cfg.ID).Logger()

	s := &Session{
		id:        cfg.ID,
		catalog:   cfg.Catalog,
		client:    cfg.Client,
		resolver:  cfg.Resolver,
		publisher: cfg.Publisher,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		viewport:  viewport.NewClassifier(cfg.Hint),
		thumbs:    thumbnail.NewTracker(logger),
		urls:      make(map[string]string, cfg.Catalog.Len()),
		openedAt:  time.Now(),
	}
	s.player = playback.NewSelector(surface{s}, logger)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Apply processes one page notification inside a "gallery.apply" span.
// Rejected events mark the span as failed.
func (s *Session) Apply(ctx context.Context, ev Event) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "gallery.apply")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{
		"session_id": s.id,
		"kind":       string(ev.Kind),
		"id":         ev.ID,
	})

	err := s.apply(ctx, ev)
	telemetry.RecordError(span, err)
	return err
}

func (s *Session) apply(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if !s.started && ev.Kind != KindHello {
		return ErrNotStarted
	}

	switch ev.Kind {
	case KindHello:
		if s.started {
			s.resize(ev.Width)
			return nil
		}
		return s.start(ctx, ev.Width)
	case KindResize:
		s.resize(ev.Width)
	case KindDataLoaded:
		_, err := s.thumbs.OnDataLoaded(ev.ID)
		return err
	case KindSeeked:
		tr, err := s.thumbs.OnSeeked(ev.ID)
		if err != nil {
			return err
		}
		if tr.Changed && tr.To == thumbnail.StateReady {
			s.send(Command{Op: OpReady, ID: tr.ID})
			s.publish(events.EventThumbnailReady, events.Payload{
				"id":         tr.ID,
				"elapsed_ms": time.Since(s.openedAt).Milliseconds(),
			})
		}
	case KindThumbnailError:
		if _, ok := s.thumbs.State(ev.ID); !ok {
			return fmt.Errorf("%w: %s", thumbnail.ErrUnknownMedia, ev.ID)
		}
		s.logger.Debug().Str("id", ev.ID).Str("message", ev.Message).Msg("thumbnail media error")
	case KindCellClicked:
		d, ok := s.catalog.Lookup(ev.ID)
		if !ok {
			return fmt.Errorf("%w: %s", thumbnail.ErrUnknownMedia, ev.ID)
		}
		s.selectSource(d.Source)
	case KindCloseClicked:
		s.afterClear(s.player.Clear())
	case KindEnded:
		s.afterClear(s.player.OnEnded(ev.Src))
	case KindPlayerError:
		s.logger.Warn().Str("src", ev.Src).Str("message", ev.Message).Msg("fullscreen playback failed")
		s.afterClear(s.player.OnError(ev.Src))
	}
	return nil
}

// Select starts fullscreen playback of the catalog entry id.
func (s *Session) Select(ctx context.Context, id string) error {
	return s.Apply(ctx, Event{Kind: KindCellClicked, ID: id})
}

// ClearSelection closes the fullscreen player.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.Apply(ctx, Event{Kind: KindCloseClicked})
}

func (s *Session) start(ctx context.Context, width int) error {
	for _, d := range s.catalog.Entries() {
		url := d.Source
		if s.resolver != nil {
			resolved, err := s.resolver.Resolve(ctx, d.Source)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", d.ID, err)
			}
			url = resolved
		}
		s.urls[d.ID] = url
	}

	s.started = true
	s.viewport.Init(width)
	s.sendLayout()
	s.thumbs.Initialize(s.catalog, func(d catalog.MediaDescriptor) thumbnail.Handle {
		return &remoteHandle{session: s, id: d.ID}
	})

	s.logger.Debug().Int("width", width).Str("mode", s.viewport.Mode().String()).Msg("gallery session started")
	return nil
}

func (s *Session) resize(width int) {
	if !s.viewport.Resize(width) {
		return
	}
	mode := s.viewport.Mode()
	s.sendLayout()
	s.publish(events.EventViewportChanged, events.Payload{"mode": mode.String(), "width": width})
}

func (s *Session) sendLayout() {
	mode := s.viewport.Mode()
	layout := viewport.LayoutFor(mode)
	s.send(Command{Op: OpLayout, Mode: mode.String(), Layout: &layout})
}

func (s *Session) selectSource(src string) {
	s.player.Select(src)
	s.publish(events.EventPlaybackSelected, events.Payload{"src": src})
}

func (s *Session) afterClear(change playback.Change) {
	if !change.Changed {
		return
	}
	s.publish(events.EventPlaybackCleared, events.Payload{
		"src":    change.Previous,
		"reason": string(change.Reason),
	})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.viewport.Mode()
	width, _ := s.viewport.Width()
	selected, playing := s.player.Current()

	snap := Snapshot{
		SessionID:  s.id,
		Started:    s.started,
		Mode:       mode,
		Width:      width,
		Layout:     viewport.LayoutFor(mode),
		ReadyCount: s.thumbs.ReadyCount(),
		Selected:   selected,
		Playing:    playing,
	}
	for _, d := range s.catalog.Entries() {
		state, ok := s.thumbs.State(d.ID)
		if !ok {
			state = thumbnail.StatePending
		}
		snap.Entries = append(snap.Entries, EntrySnapshot{
			ID:    d.ID,
			Src:   d.Source,
			Title: d.Title,
			URL:   s.urls[d.ID],
			State: state,
			Ready: state == thumbnail.StateReady,
		})
	}
	return snap
}

// IsReady reports whether the thumbnail for id is available.
func (s *Session) IsReady(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thumbs.IsReady(id)
}

// Mode returns the current viewport mode.
func (s *Session) Mode() viewport.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport.Mode()
}

// Selected returns the locator in the fullscreen player, if any.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Current()
}

// Stalled lists thumbnails still waiting after the given duration.
func (s *Session) Stalled(now time.Time, after time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return nil
	}
	return s.thumbs.Stalled(now, after)
}

// Close ends the session. Later events fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}

func (s *Session) send(cmd Command) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Send(s.ctx, cmd); err != nil {
		s.logger.Debug().Err(err).Str("op", string(cmd.Op)).Msg("send command failed")
		return err
	}
	return nil
}

func (s *Session) publish(eventType events.EventType, payload events.Payload) {
	if s.publisher == nil {
		return
	}
	payload["session_id"] = s.id
	s.publisher.Publish(eventType, payload)
}

// remoteHandle forwards thumbnail commands to the page's hidden video
// element for one entry.
type remoteHandle struct {
	session *Session
	id      string
}

func (h *remoteHandle) Load() error {
	return h.session.send(Command{Op: OpLoad, ID: h.id, URL: h.session.urls[h.id]})
}

func (h *remoteHandle) SeekTo(seconds float64) error {
	return h.session.send(Command{Op: OpSeek, ID: h.id, Seconds: seconds})
}

// surface drives the page's fullscreen overlay.
type surface struct {
	session *Session
}

// Show resolves the locator again because presigned URLs minted at hello may
// have expired. The URL from hello is the fallback.
func (p surface) Show(locator string) error {
	url := locator
	if d, ok := p.session.catalog.BySource(locator); ok {
		if u := p.session.urls[d.ID]; u != "" {
			url = u
		}
	}
	if p.session.resolver != nil {
		fresh, err := p.session.resolver.Resolve(p.session.ctx, locator)
		if err != nil {
			p.session.logger.Warn().Err(err).Str("src", locator).Msg("re-resolve failed, using URL from hello")
		} else {
			url = fresh
		}
	}
	return p.session.send(Command{Op: OpShow, Src: locator, URL: url, Autoplay: true})
}

func (p surface) Hide() error {
	return p.session.send(Command{Op: OpHide})
}
