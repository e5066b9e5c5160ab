/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package gallery

import (
	"errors"
	"fmt"

	"github.com/friendsincode/videogallery/internal/viewport"
)

// ErrInvalidEvent is returned for notifications missing required fields.
var ErrInvalidEvent = errors.New("invalid gallery event")

// EventKind names a notification forwarded by the browser.
type EventKind string

const (
	KindHello          EventKind = "hello"
	KindResize         EventKind = "resize"
	KindDataLoaded     EventKind = "data_loaded"
	KindSeeked         EventKind = "seeked"
	KindThumbnailError EventKind = "thumbnail_error"
	KindCellClicked    EventKind = "cell_clicked"
	KindCloseClicked   EventKind = "close_clicked"
	KindEnded          EventKind = "ended"
	KindPlayerError    EventKind = "player_error"
)

// Event is one notification from the page. ID names a catalog entry for
// thumbnail and cell events; Src names the fullscreen locator for player
// events.
type Event struct {
	Kind    EventKind `json:"kind"`
	ID      string    `json:"id,omitempty"`
	Src     string    `json:"src,omitempty"`
	Width   int       `json:"width,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Validate checks the fields each kind needs.
func (e Event) Validate() error {
	switch e.Kind {
	case KindHello, KindResize:
		if e.Width <= 0 {
			return fmt.Errorf("%w: %s needs a positive width", ErrInvalidEvent, e.Kind)
		}
	case KindDataLoaded, KindSeeked, KindThumbnailError, KindCellClicked:
		if e.ID == "" {
			return fmt.Errorf("%w: %s needs an id", ErrInvalidEvent, e.Kind)
		}
	case KindCloseClicked, KindEnded, KindPlayerError:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// CommandOp names an instruction for the page.
type CommandOp string

const (
	OpLoad   CommandOp = "load"
	OpSeek   CommandOp = "seek"
	OpReady  CommandOp = "ready"
	OpShow   CommandOp = "show"
	OpHide   CommandOp = "hide"
	OpLayout CommandOp = "layout"
)

// Command is an instruction the page executes against its media elements.
type Command struct {
	Op       CommandOp        `json:"op"`
	ID       string           `json:"id,omitempty"`
	Src      string           `json:"src,omitempty"`
	URL      string           `json:"url,omitempty"`
	Seconds  float64          `json:"seconds,omitempty"`
	Autoplay bool             `json:"autoplay,omitempty"`
	Mode     string           `json:"mode,omitempty"`
	Layout   *viewport.Layout `json:"layout,omitempty"`
}
