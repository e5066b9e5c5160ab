/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes registers all web UI routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Handle("/static/*", h.StaticHandler())
	if media := h.MediaHandler(); media != nil {
		r.Handle("/media/*", media)
	}

	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32"><rect x="3" y="7" width="26" height="18" rx="3" fill="#111"/><path d="M13 11v10l8-5z" fill="white"/></svg>`))
	})

	r.Get("/", h.GalleryPage)
	r.Get("/ws/gallery", h.GalleryWebSocket)
}
