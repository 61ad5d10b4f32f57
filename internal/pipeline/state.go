package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrConfirmDisabled is returned by Confirm while the session has nothing
	// valid to bake, such as a crop session without a selection.
	ErrConfirmDisabled = errors.New("confirm is disabled")

	// ErrSessionClosed is returned once a session is done or cancelled.
	ErrSessionClosed = errors.New("session is closed")
)

// State is the step a session is at.
type State int

const (
	SelectFile State = iota
	Detecting
	Editing
	Baking
	Uploading
	Recognizing
	Done
	Failed
	Cancelled
)

var stateNames = [...]string{
	SelectFile:  "select_file",
	Detecting:   "detecting",
	Editing:     "editing",
	Baking:      "baking",
	Uploading:   "uploading",
	Recognizing: "recognizing",
	Done:        "done",
	Failed:      "failed",
	Cancelled:   "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Busy reports whether a background call is in flight. Gestures are refused
// while busy.
func (s State) Busy() bool {
	switch s {
	case Detecting, Baking, Uploading, Recognizing:
		return true
	default:
		return false
	}
}

// Closed reports whether the session has ended for good.
func (s State) Closed() bool {
	return s == Done || s == Cancelled
}

// Mode selects the workflow.
type Mode int

const (
	// ModeRedact detects, masks and uploads a document.
	ModeRedact Mode = iota

	// ModeCrop selects one area and sends it for recognition.
	ModeCrop
)

func (m Mode) String() string {
	if m == ModeCrop {
		return "crop"
	}
	return "redact"
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Transition describes one state change.
type Transition struct {
	SessionID string
	From      State
	To        State

	// Err is the cause of a move to Failed, or a detection error that was
	// tolerated on the way to Editing.
	Err error
}

// Listener observes transitions. It is called outside the session lock, in
// the order transitions happen, and may call back into the session.
type Listener func(Transition)
