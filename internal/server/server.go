/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/videogallery/internal/api"
	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/config"
	"github.com/friendsincode/videogallery/internal/db"
	"github.com/friendsincode/videogallery/internal/eventbus"
	"github.com/friendsincode/videogallery/internal/events"
	"github.com/friendsincode/videogallery/internal/gallery"
	"github.com/friendsincode/videogallery/internal/logbuffer"
	"github.com/friendsincode/videogallery/internal/media"
	"github.com/friendsincode/videogallery/internal/telemetry"
	"github.com/friendsincode/videogallery/internal/web"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db         *gorm.DB
	catalog    *catalog.Catalog
	media      *media.Service
	bus        events.Broker
	manager    *gallery.Manager
	logBuffer  *logbuffer.Buffer
	api        *api.API
	webHandler *web.Handler

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.HTTPMiddleware("videogallery"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(requestTimeout(60 * time.Second))

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		logBuffer: logBuf,
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// Websockets and media range requests manage their own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		// media-src allows presigned object storage URLs.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; media-src 'self' blob: https: http:; connect-src 'self' ws: wss:; img-src 'self' data:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// requestTimeout applies middleware.Timeout to ordinary requests. Websocket
// upgrades and media downloads are long lived and skip it.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(d)
		limited := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, media.MediaPathPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func (s *Server) initDependencies() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, database, err := LoadCatalog(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	if database != nil {
		s.db = database
		s.DeferClose(func() error { return db.Close(database) })
	}
	s.catalog = c
	telemetry.CatalogEntries.Set(float64(c.Len()))

	if s.cfg.S3Bucket == "" {
		if err := os.MkdirAll(s.cfg.MediaRoot, 0o755); err != nil {
			return fmt.Errorf("failed to create media directory %s: %w", s.cfg.MediaRoot, err)
		}
		s.logger.Info().Str("path", s.cfg.MediaRoot).Msg("media directory ready")
	}

	mediaService, err := media.NewService(ctx, s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media service: %w", err)
	}
	s.media = mediaService

	if err := mediaService.CheckStorageAccess(ctx); err != nil {
		s.logger.Warn().Err(err).Str("backend", mediaService.Storage().Kind()).Msg("media storage not reachable")
	} else if missing, err := mediaService.Missing(ctx, c); err != nil {
		s.logger.Warn().Err(err).Msg("media presence check failed")
	} else if len(missing) > 0 {
		// Missing files only stall their own thumbnails.
		s.logger.Warn().Strs("sources", missing).Msg("catalog entries without media")
	}

	s.bus = eventbus.New(s.cfg, s.logger)
	s.DeferClose(s.bus.Close)

	s.manager = gallery.NewManager(gallery.ManagerConfig{
		Catalog:     c,
		Resolver:    mediaService,
		Publisher:   s.bus,
		MaxSessions: s.cfg.MaxSessions,
		StallAfter:  s.cfg.ThumbnailStallAfter,
		Logger:      s.logger,
	})
	// Runs before the bus closes; closers run in reverse.
	s.DeferClose(func() error {
		s.manager.CloseAll()
		return nil
	})

	webHandler, err := web.NewHandler(s.manager, mediaService, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}
	s.webHandler = webHandler

	s.api = api.New(s.manager, s.bus, s.logBuffer, s.logger)

	s.logger.Info().
		Int("entries", c.Len()).
		Str("catalog_source", string(s.cfg.CatalogSource)).
		Str("media_backend", mediaService.Storage().Kind()).
		Str("event_bus", string(s.cfg.EventBus)).
		Msg("gallery ready")

	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// LogBuffer returns the server's log buffer.
func (s *Server) LogBuffer() *logbuffer.Buffer {
	return s.logBuffer
}

// Manager returns the gallery session manager.
func (s *Server) Manager() *gallery.Manager {
	return s.manager
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	if s.manager == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	// Stall watchdog; returns at once when disabled.
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.manager.Run(ctx)
	}()

	ready := make(chan struct{})
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runActivityListener(ctx, ready)
	}()
	<-ready
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":          "ok",
			"sessions":        s.manager.Count(),
			"catalog_entries": s.catalog.Len(),
			"media_backend":   s.media.Storage().Kind(),
			"event_bus":       string(s.cfg.EventBus),
		})
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)

	// Gallery page, assets and session websocket
	s.webHandler.Routes(s.router)
}
