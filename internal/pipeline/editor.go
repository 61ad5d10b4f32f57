package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/logging"
)

// ErrNoSession is returned when the editor has no active session.
var ErrNoSession = errors.New("no active session")

// Editor holds the single active session. Opening a session cancels the one
// before it.
type Editor struct {
	mu     sync.Mutex
	redact *RedactFlow
	crop   *CropFlow
	active *Session
}

// NewEditor returns an editor that opens sessions through redact and crop.
// Either flow may be nil, in which case that workflow is unavailable.
func NewEditor(redact *RedactFlow, crop *CropFlow) *Editor {
	return &Editor{redact: redact, crop: crop}
}

// OpenRedact discards the active session and starts a redact session.
func (e *Editor) OpenRedact(ctx context.Context, src *imaging.Source, target Target) (*Session, error) {
	if e.redact == nil {
		return nil, errors.New("redaction is not configured")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.discardLocked()
	s, err := e.redact.Open(ctx, src, target)
	if err != nil {
		return nil, err
	}
	e.active = s
	return s, nil
}

// OpenCrop discards the active session and starts a crop session.
func (e *Editor) OpenCrop(ctx context.Context, src *imaging.Source) (*Session, error) {
	if e.crop == nil {
		return nil, errors.New("recognition is not configured")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.discardLocked()
	s, err := e.crop.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	e.active = s
	return s, nil
}

// Active returns the current session, or ErrNoSession.
func (e *Editor) Active() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil, ErrNoSession
	}
	return e.active, nil
}

// Close cancels the active session, if any.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardLocked()
}

func (e *Editor) discardLocked() {
	if e.active == nil {
		return
	}
	if !e.active.State().Closed() {
		logging.Debugf("Discarding session %s", e.active.ID())
		e.active.Cancel()
	}
	e.active = nil
}
