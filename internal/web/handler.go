/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/gallery"
	"github.com/friendsincode/videogallery/internal/media"
	"github.com/friendsincode/videogallery/internal/version"
	"github.com/friendsincode/videogallery/internal/viewport"
)

// Handler serves the gallery page, its assets and the session websocket.
type Handler struct {
	manager   *gallery.Manager
	media     *media.Service
	logger    zerolog.Logger
	templates map[string]*template.Template // Each page gets its own template set
}

// PageData holds common data passed to all templates.
type PageData struct {
	Title       string
	Subtitle    string
	CurrentPath string
	Version     string
	Mode        viewport.Mode
	Layout      viewport.Layout
	Entries     []catalog.MediaDescriptor
	Data        any
}

// NewHandler creates a new web handler.
func NewHandler(manager *gallery.Manager, mediaSvc *media.Service, logger zerolog.Logger) (*Handler, error) {
	h := &Handler{
		manager: manager,
		media:   mediaSvc,
		logger:  logger.With().Str("component", "web").Logger(),
	}
	if err := h.loadTemplates(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return h, nil
}

func (h *Handler) loadTemplates() error {
	h.templates = make(map[string]*template.Template)

	var layoutFiles, pageFiles []string
	err := fs.WalkDir(TemplateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		switch {
		case strings.HasPrefix(path, "templates/layouts/"):
			layoutFiles = append(layoutFiles, path)
		case strings.HasPrefix(path, "templates/pages/"):
			pageFiles = append(pageFiles, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, pagePath := range pageFiles {
		tmpl := template.New("")
		for _, path := range append(append([]string{}, layoutFiles...), pagePath) {
			content, err := fs.ReadFile(TemplateFS, path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if _, err := tmpl.New(templateName(path)).Parse(string(content)); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
		}
		name := templateName(pagePath)
		h.templates[name] = tmpl
		h.logger.Debug().Str("template", name).Msg("loaded template")
	}
	return nil
}

func templateName(path string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
}

// Render renders a page inside the base layout. Pages define a "content"
// block.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	data.CurrentPath = r.URL.Path
	data.Version = version.Version

	tmpl, ok := h.templates[name]
	if !ok {
		h.logger.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layouts/base", data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("template render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GalleryPage renders the grid. The first paint uses a mode guessed from the
// User-Agent; the page corrects it once it reports its real width.
func (h *Handler) GalleryPage(w http.ResponseWriter, r *http.Request) {
	mode := viewport.HintFromUserAgent(r.UserAgent())
	h.Render(w, r, "pages/gallery", PageData{
		Title:    "Video Gallery",
		Subtitle: "Click on any video to play in fullscreen mode",
		Mode:     mode,
		Layout:   viewport.LayoutFor(mode),
		Entries:  h.manager.Catalog().Entries(),
	})
}

// staticResponseWriter wraps http.ResponseWriter to force correct MIME types
type staticResponseWriter struct {
	http.ResponseWriter
	contentType string
	wroteHeader bool
}

func (w *staticResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader && w.contentType != "" {
		w.Header().Set("Content-Type", w.contentType)
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *staticResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// StaticHandler returns an http.Handler for static files.
func (h *Handler) StaticHandler() http.Handler {
	fsys, _ := fs.Sub(StaticFS, "static")
	fileServer := http.FileServer(http.FS(fsys))
	return http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var contentType string
		switch {
		case strings.HasSuffix(r.URL.Path, ".css"):
			contentType = "text/css; charset=utf-8"
		case strings.HasSuffix(r.URL.Path, ".js"):
			contentType = "application/javascript; charset=utf-8"
		case strings.HasSuffix(r.URL.Path, ".svg"):
			contentType = "image/svg+xml"
		}
		fileServer.ServeHTTP(&staticResponseWriter{ResponseWriter: w, contentType: contentType}, r)
	}))
}

// MediaHandler serves the filesystem media root under /media/. It returns nil
// when media lives in object storage and URLs point there directly.
func (h *Handler) MediaHandler() http.Handler {
	if h.media == nil {
		return nil
	}
	fsStorage, ok := h.media.Storage().(*media.FilesystemStorage)
	if !ok {
		return nil
	}
	return http.StripPrefix(strings.TrimSuffix(media.MediaPathPrefix, "/"), http.FileServer(http.Dir(fsStorage.Root())))
}
