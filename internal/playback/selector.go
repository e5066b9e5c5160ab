/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playback tracks the single media item shown in the fullscreen player.
package playback

import "github.com/rs/zerolog"

// Surface is the exclusive fullscreen presentation. Show must start the given
// locator from the beginning with autoplay.
type Surface interface {
	Show(locator string) error
	Hide() error
}

// Reason records why a selection ended.
type Reason string

const (
	ReasonClosed Reason = "closed"
	ReasonEnded  Reason = "ended"
	ReasonError  Reason = "error"
)

// Change describes the effect of one selector operation.
type Change struct {
	Previous string
	Current  string
	Changed  bool
	Reason   Reason // set when the selection was cleared
}

// Selector holds at most one selection. Like the thumbnail tracker it is
// owned by one session and is not safe for concurrent use.
type Selector struct {
	selected string
	active   bool
	surface  Surface
	logger   zerolog.Logger
}

// NewSelector creates a selector with nothing selected. surface may be nil.
func NewSelector(surface Surface, logger zerolog.Logger) *Selector {
	return &Selector{
		surface: surface,
		logger:  logger.With().Str("component", "playback").Logger(),
	}
}

// Select replaces any current selection with locator. The last call wins;
// there is no queue. Selecting the locator already shown restarts it.
func (s *Selector) Select(locator string) Change {
	prev := s.selected
	s.selected = locator
	s.active = true

	if s.surface != nil {
		if err := s.surface.Show(locator); err != nil {
			s.logger.Debug().Err(err).Str("src", locator).Msg("surface show failed")
		}
	}

	s.logger.Debug().Str("src", locator).Str("previous", prev).Msg("selection set")
	return Change{Previous: prev, Current: locator, Changed: true}
}

// Clear drops the selection and hides the surface.
func (s *Selector) Clear() Change {
	return s.clear(ReasonClosed)
}

func (s *Selector) clear(reason Reason) Change {
	if !s.active {
		return Change{Reason: reason}
	}
	prev := s.selected
	s.selected = ""
	s.active = false

	if s.surface != nil {
		if err := s.surface.Hide(); err != nil {
			s.logger.Debug().Err(err).Msg("surface hide failed")
		}
	}

	s.logger.Debug().Str("previous", prev).Str("reason", string(reason)).Msg("selection cleared")
	return Change{Previous: prev, Changed: true, Reason: reason}
}

// OnEnded handles the fullscreen handle's end-of-playback notification. It
// clears only when locator is the active selection, so a late ended from a
// replaced selection cannot close the new one.
func (s *Selector) OnEnded(locator string) Change {
	if !s.isActive(locator) {
		return Change{Previous: s.selected, Current: s.selected}
	}
	return s.clear(ReasonEnded)
}

// OnError handles a playback error from the fullscreen handle by closing the
// player, with the same staleness rule as OnEnded.
func (s *Selector) OnError(locator string) Change {
	if !s.isActive(locator) {
		return Change{Previous: s.selected, Current: s.selected}
	}
	return s.clear(ReasonError)
}

func (s *Selector) isActive(locator string) bool {
	return s.active && (locator == "" || locator == s.selected)
}

// Current returns the selected locator, if any.
func (s *Selector) Current() (string, bool) {
	return s.selected, s.active
}
