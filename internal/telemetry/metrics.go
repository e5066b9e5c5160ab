/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_api_request_duration_seconds",
			Help:    "HTTP request duration by method, route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// Session metrics
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_sessions_active",
		Help: "Open gallery sessions.",
	})

	SessionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_sessions_rejected_total",
		Help: "Sessions refused because the session limit was reached.",
	})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_websocket_connections",
		Help: "Connected gallery websocket clients.",
	})

	// Thumbnail metrics
	ThumbnailsReady = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_thumbnails_ready_total",
		Help: "Thumbnails that reached the ready state.",
	})

	ThumbnailsStalled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_thumbnails_stalled",
		Help: "Thumbnails not ready after the configured stall threshold, as of the last sweep.",
	})

	ThumbnailReadySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gallery_thumbnail_ready_seconds",
		Help:    "Time from session start to a thumbnail becoming ready.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// Playback metrics
	PlaybackSelections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_playback_selections_total",
		Help: "Media items selected for fullscreen playback.",
	})

	PlaybackClears = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_playback_clears_total",
			Help: "Fullscreen playback closures by reason.",
		},
		[]string{"reason"},
	)

	ViewportChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewport_changes_total",
			Help: "Viewport mode changes by new mode.",
		},
		[]string{"mode"},
	)

	// Catalog metrics
	CatalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_catalog_entries",
		Help: "Descriptors in the loaded catalog.",
	})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
