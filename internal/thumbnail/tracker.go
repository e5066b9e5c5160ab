/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package thumbnail

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
)

// ErrUnknownMedia indicates a notification for an id the tracker does not hold.
var ErrUnknownMedia = errors.New("unknown media id")

// Handle is the external player/decoder for one catalog entry. The tracker
// only commands it; notifications come back through OnDataLoaded/OnSeeked.
type Handle interface {
	Load() error
	SeekTo(seconds float64) error
}

// Opener returns the handle for a descriptor.
type Opener func(d catalog.MediaDescriptor) Handle

// Transition describes the effect of one notification.
type Transition struct {
	ID      string
	From    State
	To      State
	Changed bool
}

// EntryStatus is a read-only view of one entry.
type EntryStatus struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Ready bool   `json:"ready"`
}

type entry struct {
	state     State
	handle    Handle
	createdAt time.Time
	readyAt   time.Time
}

// Tracker holds one readiness state machine per catalog entry. It has no
// locking: it belongs to a single gallery session whose event loop
// serializes every call.
type Tracker struct {
	order   []string
	entries map[string]*entry
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		logger:  logger.With().Str("component", "thumbnail").Logger(),
		now:     time.Now,
	}
}

// Initialize creates a Pending entry per descriptor and tells each handle to
// load. Entries stay Pending until their handle reports data. There is no
// timeout: a handle that never reports keeps its entry Pending.
func (t *Tracker) Initialize(c *catalog.Catalog, open Opener) {
	now := t.now()
	t.order = c.IDs()
	t.entries = make(map[string]*entry, c.Len())

	for _, d := range c.Entries() {
		e := &entry{state: StatePending, handle: open(d), createdAt: now}
		t.entries[d.ID] = e
		t.execute(d.ID, e, Command{Op: OpLoad})
	}

	t.logger.Debug().Int("entries", len(t.order)).Msg("thumbnail tracker initialized")
}

// OnDataLoaded handles the handle's "initial data available" notification.
func (t *Tracker) OnDataLoaded(id string) (Transition, error) {
	return t.apply(id, NotifyDataLoaded)
}

// OnSeeked handles the handle's "seek completed" notification.
func (t *Tracker) OnSeeked(id string) (Transition, error) {
	return t.apply(id, NotifySeeked)
}

func (t *Tracker) apply(id string, n Notification) (Transition, error) {
	e, ok := t.entries[id]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownMedia, id)
	}

	from := e.state
	to, cmd := Reduce(from, n)
	tr := Transition{ID: id, From: from, To: to, Changed: to != from}
	if !tr.Changed {
		t.logger.Debug().
			Str("media_id", id).
			Str("state", string(from)).
			Str("notification", string(n)).
			Msg("notification ignored")
		return tr, nil
	}

	e.state = to
	if to == StateReady {
		e.readyAt = t.now()
	}

	t.logger.Debug().
		Str("media_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("thumbnail transition")

	t.execute(id, e, cmd)
	return tr, nil
}

// execute runs a command against the handle. Failures are logged and do not
// change state; the entry simply keeps waiting.
func (t *Tracker) execute(id string, e *entry, cmd Command) {
	if e.handle == nil || cmd.Op == OpNone {
		return
	}

	var err error
	switch cmd.Op {
	case OpLoad:
		err = e.handle.Load()
	case OpSeek:
		err = e.handle.SeekTo(cmd.Seconds)
	}
	if err != nil {
		t.logger.Debug().Err(err).Str("media_id", id).Str("op", string(cmd.Op)).Msg("handle command failed")
	}
}

// IsReady reports whether the preview frame for id is available.
func (t *Tracker) IsReady(id string) bool {
	e, ok := t.entries[id]
	return ok && e.state == StateReady
}

// State returns the current state for id.
func (t *Tracker) State(id string) (State, bool) {
	e, ok := t.entries[id]
	if !ok {
		return "", false
	}
	return e.state, true
}

// ReadyCount returns how many entries reached Ready.
func (t *Tracker) ReadyCount() int {
	n := 0
	for _, e := range t.entries {
		if e.state == StateReady {
			n++
		}
	}
	return n
}

// Snapshot lists every entry in catalog order.
func (t *Tracker) Snapshot() []EntryStatus {
	out := make([]EntryStatus, 0, len(t.order))
	for _, id := range t.order {
		e := t.entries[id]
		out = append(out, EntryStatus{ID: id, State: e.state, Ready: e.state == StateReady})
	}
	return out
}

// Stalled returns the ids that have not reached Ready within after of their
// creation. It only reports; entries keep waiting.
func (t *Tracker) Stalled(now time.Time, after time.Duration) []string {
	if after <= 0 {
		return nil
	}
	var stalled []string
	for _, id := range t.order {
		e := t.entries[id]
		if e.state != StateReady && now.Sub(e.createdAt) >= after {
			stalled = append(stalled, id)
		}
	}
	return stalled
}
