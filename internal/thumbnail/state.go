/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package thumbnail drives each gallery entry's media handle to a preview
// frame and records when that frame is available.
package thumbnail

// SeekOffsetSeconds is the play position used as the preview frame.
const SeekOffsetSeconds = 1.5

// State is the readiness of one entry. It only ever moves forward:
// Pending -> SeekRequested -> Ready.
type State string

const (
	// StatePending means the handle was told to load but has not reported data yet.
	StatePending State = "pending"

	// StateSeekRequested means data arrived and the handle was told to seek.
	StateSeekRequested State = "seek_requested"

	// StateReady means the seek completed and the preview frame is showing.
	StateReady State = "ready"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateReady
}

// rank orders states so forward progress can be asserted.
func (s State) rank() int {
	switch s {
	case StatePending:
		return 0
	case StateSeekRequested:
		return 1
	case StateReady:
		return 2
	default:
		return -1
	}
}

// Notification is a lifecycle signal emitted by a media handle.
type Notification string

const (
	NotifyDataLoaded Notification = "data_loaded"
	NotifySeeked     Notification = "seeked"
)

// CommandOp is an instruction for a media handle.
type CommandOp string

const (
	OpNone CommandOp = ""
	OpLoad CommandOp = "load"
	OpSeek CommandOp = "seek"
)

// Command is what the tracker asks the handle to do after a transition.
type Command struct {
	Op      CommandOp
	Seconds float64
}

// Reduce is the transition function for one entry. Notifications that do not
// apply to the current state (duplicates, out-of-order arrivals, anything
// after Ready) leave the state unchanged and produce no command.
func Reduce(current State, n Notification) (State, Command) {
	switch {
	case current == StatePending && n == NotifyDataLoaded:
		return StateSeekRequested, Command{Op: OpSeek, Seconds: SeekOffsetSeconds}
	case current == StateSeekRequested && n == NotifySeeked:
		return StateReady, Command{}
	default:
		return current, Command{}
	}
}
