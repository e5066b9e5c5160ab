/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package e2e provides end-to-end browser tests for the gallery page.
package e2e

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/gallery"
	"github.com/friendsincode/videogallery/internal/media"
	"github.com/friendsincode/videogallery/internal/web"
)

func startGallery(t *testing.T) (*httptest.Server, *gallery.Manager) {
	t.Helper()

	logger := zerolog.Nop()
	mediaSvc := media.NewServiceWithStorage(media.NewFilesystemStorage(t.TempDir(), logger), logger)
	manager := gallery.NewManager(gallery.ManagerConfig{
		Catalog:     catalog.Builtin(),
		Resolver:    mediaSvc,
		MaxSessions: 10,
		Logger:      logger,
	})

	handler, err := web.NewHandler(manager, mediaSvc, logger)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	r := chi.NewRouter()
	handler.Routes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, manager
}

func launchBrowser(t *testing.T) *rod.Browser {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"

	l := launcher.New().Headless(headless)
	url := l.MustLaunch()
	browser := rod.New().ControlURL(url).MustConnect()
	t.Cleanup(browser.MustClose)
	return browser
}

// waitFor polls fn until it returns true or the timeout passes.
func waitFor(t *testing.T, what string, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func bodyAttr(page *rod.Page, name string) string {
	v, err := page.MustElement("body").Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

// TestGallerySession drives a real browser through connect, select and
// resize.
func TestGallerySession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}

	server, manager := startGallery(t)
	browser := launchBrowser(t)

	page := browser.MustPage("")
	defer page.MustClose()
	page.MustSetViewport(1280, 800, 1, false)
	page.MustNavigate(server.URL + "/").MustWaitLoad()

	if n := len(page.MustElements(".cell")); n != 7 {
		t.Fatalf("rendered %d cells, want 7", n)
	}

	waitFor(t, "session", func() bool { return bodyAttr(page, "data-session-id") != "" })
	sessionID := bodyAttr(page, "data-session-id")
	session, err := manager.Get(sessionID)
	if err != nil {
		t.Fatalf("session %s not registered: %v", sessionID, err)
	}
	waitFor(t, "hello", func() bool { return session.Snapshot().Started })

	if got := bodyAttr(page, "data-viewport"); got != "desktop" {
		t.Fatalf("data-viewport=%q, want desktop", got)
	}

	page.MustElement(`.cell[data-id="D3"]`).MustClick()
	waitFor(t, "selection", func() bool { return bodyAttr(page, "data-last-selected") == "/D3.mov" })

	// The clip does not exist, so the player reports an error and the
	// selection clears itself.
	waitFor(t, "player closed", func() bool {
		_, selected := session.Selected()
		return !selected
	})

	page.MustSetViewport(500, 800, 1, true)
	page.MustEval(`() => window.dispatchEvent(new Event("resize"))`)
	waitFor(t, "mobile layout", func() bool { return bodyAttr(page, "data-viewport") == "mobile" })
	if mode := session.Mode(); mode != "mobile" {
		t.Fatalf("session mode=%q, want mobile", mode)
	}

	page.MustNavigate("about:blank")
	waitFor(t, "session cleanup", func() bool { return manager.Count() == 0 })
}

// TestGalleryMobileUserAgent loads the page as a phone and expects the
// single column layout.
func TestGalleryMobileUserAgent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}

	server, _ := startGallery(t)
	browser := launchBrowser(t)

	page := browser.MustPage("")
	defer page.MustClose()
	page.MustSetViewport(390, 844, 3, true)
	page.MustSetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	})
	page.MustNavigate(server.URL + "/").MustWaitLoad()

	waitFor(t, "session", func() bool { return bodyAttr(page, "data-session-id") != "" })
	if got := bodyAttr(page, "data-viewport"); got != "mobile" {
		t.Fatalf("data-viewport=%q, want mobile", got)
	}
	columns := page.MustEval(`() => getComputedStyle(document.body).getPropertyValue("--columns").trim()`).String()
	if columns != "1" {
		t.Fatalf("--columns=%q, want 1", columns)
	}
}
