/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package viewport classifies the display width into a layout mode.
package viewport

// MobileBreakpoint is the first width classified as Desktop.
const MobileBreakpoint = 768

// Mode is the binary layout mode derived from the viewport width.
type Mode string

const (
	ModeDesktop Mode = "desktop"
	ModeMobile  Mode = "mobile"
)

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Classify maps a width in CSS pixels to a mode. It is pure: widths below
// MobileBreakpoint are Mobile, everything else is Desktop.
func Classify(widthPixels int) Mode {
	if widthPixels < MobileBreakpoint {
		return ModeMobile
	}
	return ModeDesktop
}

// Classifier tracks the current mode of one page. Every resize recomputes the
// mode from scratch, with no debouncing and no hysteresis.
type Classifier struct {
	mode     Mode
	width    int
	measured bool
}

// NewClassifier starts in the given mode until a width is reported.
// An empty mode defaults to Desktop.
func NewClassifier(initial Mode) *Classifier {
	if initial == "" {
		initial = ModeDesktop
	}
	return &Classifier{mode: initial}
}

// Init records the width measured when the page mounts.
func (c *Classifier) Init(widthPixels int) Mode {
	c.Resize(widthPixels)
	return c.mode
}

// Resize recomputes the mode for a new width and reports whether it changed.
func (c *Classifier) Resize(widthPixels int) bool {
	next := Classify(widthPixels)
	changed := next != c.mode
	c.mode = next
	c.width = widthPixels
	c.measured = true
	return changed
}

// Mode returns the current mode.
func (c *Classifier) Mode() Mode {
	return c.mode
}

// Width returns the last reported width and whether any width was reported yet.
func (c *Classifier) Width() (int, bool) {
	return c.width, c.measured
}
