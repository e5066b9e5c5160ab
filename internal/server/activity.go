/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"

	"github.com/friendsincode/videogallery/internal/eventbus"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/telemetry"
)

// runActivityListener turns gallery events into Prometheus metrics. Events
// relayed from other nodes are skipped so each instance reports its own
// sessions. ready is closed once every subscription is in place.
func (s *Server) runActivityListener(ctx context.Context, ready chan<- struct{}) {
	opened := s.bus.Subscribe(events.EventSessionOpened)
	closed := s.bus.Subscribe(events.EventSessionClosed)
	thumbReady := s.bus.Subscribe(events.EventThumbnailReady)
	stalled := s.bus.Subscribe(events.EventThumbnailStalled)
	selected := s.bus.Subscribe(events.EventPlaybackSelected)
	cleared := s.bus.Subscribe(events.EventPlaybackCleared)
	resized := s.bus.Subscribe(events.EventViewportChanged)

	defer func() {
		s.bus.Unsubscribe(events.EventSessionOpened, opened)
		s.bus.Unsubscribe(events.EventSessionClosed, closed)
		s.bus.Unsubscribe(events.EventThumbnailReady, thumbReady)
		s.bus.Unsubscribe(events.EventThumbnailStalled, stalled)
		s.bus.Unsubscribe(events.EventPlaybackSelected, selected)
		s.bus.Unsubscribe(events.EventPlaybackCleared, cleared)
		s.bus.Unsubscribe(events.EventViewportChanged, resized)
	}()

	close(ready)
	s.logger.Debug().Msg("activity listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("activity listener stopped")
			return
		case p := <-opened:
			recordActivity(events.EventSessionOpened, p)
		case p := <-closed:
			recordActivity(events.EventSessionClosed, p)
		case p := <-thumbReady:
			recordActivity(events.EventThumbnailReady, p)
		case p := <-stalled:
			recordActivity(events.EventThumbnailStalled, p)
		case p := <-selected:
			recordActivity(events.EventPlaybackSelected, p)
		case p := <-cleared:
			recordActivity(events.EventPlaybackCleared, p)
		case p := <-resized:
			recordActivity(events.EventViewportChanged, p)
		}
	}
}

// recordActivity updates metrics for one event.
func recordActivity(eventType events.EventType, p events.Payload) {
	if p == nil {
		return
	}
	if _, remote := p[eventbus.OriginKey]; remote {
		return
	}

	switch eventType {
	case events.EventSessionOpened, events.EventSessionClosed:
		if n, ok := number(p["active"]); ok {
			telemetry.SessionsActive.Set(n)
		}
	case events.EventThumbnailReady:
		telemetry.ThumbnailsReady.Inc()
		if ms, ok := number(p["elapsed_ms"]); ok {
			telemetry.ThumbnailReadySeconds.Observe(ms / 1000)
		}
	case events.EventThumbnailStalled:
		if n, ok := number(p["count"]); ok {
			telemetry.ThumbnailsStalled.Set(n)
		}
	case events.EventPlaybackSelected:
		telemetry.PlaybackSelections.Inc()
	case events.EventPlaybackCleared:
		reason, _ := p["reason"].(string)
		if reason == "" {
			reason = "unknown"
		}
		telemetry.PlaybackClears.WithLabelValues(reason).Inc()
	case events.EventViewportChanged:
		if mode, ok := p["mode"].(string); ok && mode != "" {
			telemetry.ViewportChanges.WithLabelValues(mode).Inc()
		}
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
