/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/gallery"
	"github.com/friendsincode/videogallery/internal/logbuffer"
	"github.com/friendsincode/videogallery/internal/thumbnail"
)

// API exposes the JSON endpoints next to the gallery page.
type API struct {
	manager   *gallery.Manager
	bus       events.Broker
	logBuffer *logbuffer.Buffer
	logger    zerolog.Logger
}

// New creates the API router wrapper. logBuf may be nil, which disables the
// log endpoints.
func New(manager *gallery.Manager, bus events.Broker, logBuf *logbuffer.Buffer, logger zerolog.Logger) *API {
	return &API{
		manager:   manager,
		bus:       bus,
		logBuffer: logBuf,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers the API routes on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/catalog", a.handleCatalog)
		r.Get("/events", a.handleEvents)
		r.Get("/logs", a.handleLogs)
		r.Get("/logs/stats", a.handleLogStats)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", a.handleSessionGet)
			r.Post("/select", a.handleSessionSelect)
			r.Post("/close", a.handleSessionClose)
		})
	})
}

type catalogResponse struct {
	Count   int                       `json:"count"`
	Entries []catalog.MediaDescriptor `json:"entries"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": a.manager.Count(),
	})
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := a.manager.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{Count: c.Len(), Entries: c.Entries()})
}

func (a *API) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type selectRequest struct {
	ID string `json:"id"`
}

func (a *API) handleSessionSelect(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id_required")
		return
	}

	if err := s.Select(r.Context(), req.ID); err != nil {
		a.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (a *API) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := s.ClearSelection(r.Context()); err != nil {
		a.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (a *API) session(w http.ResponseWriter, r *http.Request) (*gallery.Session, bool) {
	s, err := a.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found")
		return nil, false
	}
	return s, true
}

func (a *API) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, thumbnail.ErrUnknownMedia):
		writeError(w, http.StatusNotFound, "unknown_media")
	case errors.Is(err, gallery.ErrNotStarted):
		writeError(w, http.StatusConflict, "session_not_started")
	case errors.Is(err, gallery.ErrSessionClosed):
		writeError(w, http.StatusGone, "session_closed")
	default:
		a.logger.Error().Err(err).Msg("session operation failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
