/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package gallery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/viewport"
)

var (
	// ErrSessionLimit is returned when MaxSessions sessions are open.
	ErrSessionLimit = errors.New("gallery session limit reached")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("gallery session not found")
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Catalog     *catalog.Catalog
	Resolver    Resolver
	Publisher   events.Publisher
	MaxSessions int
	StallAfter  time.Duration // 0 disables stall reporting
	Logger      zerolog.Logger
}

// Manager owns every open session.
type Manager struct {
	cfg    ManagerConfig
	logger zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger.With().Str("component", "gallery").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Catalog returns the catalog every new session is built from.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.cfg.Catalog
}

// Open registers a new session for a page. hint is the mode used until the
// page reports its width.
func (m *Manager) Open(client Client, hint viewport.Mode) (*Session, error) {
	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		m.logger.Warn().Int("max_sessions", m.cfg.MaxSessions).Msg("session limit reached")
		return nil, ErrSessionLimit
	}

	s := NewSession(SessionConfig{
		ID:        uuid.NewString(),
		Catalog:   m.cfg.Catalog,
		Client:    client,
		Resolver:  m.cfg.Resolver,
		Publisher: m.cfg.Publisher,
		Hint:      hint,
		Logger:    m.logger,
	})
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.publish(events.EventSessionOpened, events.Payload{"session_id": s.ID(), "active": count})
	m.logger.Debug().Str("session_id", s.ID()).Int("active", count).Msg("session opened")
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends and forgets a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	m.publish(events.EventSessionClosed, events.Payload{"session_id": id, "active": count})
	m.logger.Debug().Str("session_id", id).Int("active", count).Msg("session closed")
	return nil
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep reports thumbnails that have waited longer than StallAfter and
// returns how many it found. Stalled entries keep waiting.
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.StallAfter <= 0 {
		return 0
	}

	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	total := 0
	for _, s := range sessions {
		stalled := s.Stalled(now, m.cfg.StallAfter)
		if len(stalled) == 0 {
			continue
		}
		total += len(stalled)
		m.logger.Warn().
			Str("session_id", s.ID()).
			Strs("ids", stalled).
			Dur("after", m.cfg.StallAfter).
			Msg("thumbnails not ready")
	}
	m.publish(events.EventThumbnailStalled, events.Payload{"count": total})
	return total
}

// Run sweeps for stalled thumbnails until ctx is done. It returns at once
// when stall reporting is disabled.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.StallAfter <= 0 {
		return
	}
	interval := m.cfg.StallAfter / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

func (m *Manager) publish(eventType events.EventType, payload events.Payload) {
	if m.cfg.Publisher != nil {
		m.cfg.Publisher.Publish(eventType, payload)
	}
}
