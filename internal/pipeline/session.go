package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
	"github.com/ironsheep/region-editor-mcp/internal/detection"
	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/gesture"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/logging"
	"github.com/ironsheep/region-editor-mcp/internal/recognition"
	"github.com/ironsheep/region-editor-mcp/internal/region"
	"github.com/ironsheep/region-editor-mcp/internal/upload"
)

// Session is one editing session over one source image. All methods are
// safe for concurrent use.
type Session struct {
	id     string
	mode   Mode
	opts   Options
	target Target

	handles    *imaging.HandleRegistry
	uploader   upload.Uploader
	recognizer recognition.Recognizer

	mu       sync.Mutex
	state    State
	src      *imaging.Source
	info     imaging.SourceInfo
	handle   *imaging.DisplayHandle
	ctrl     *gesture.Controller
	edited   bool
	err      error
	warning  error
	skipped  int
	output   *bake.Output
	result   *recognition.Result
	changed  chan struct{}
	pending  []Transition
	watchers []Listener

	notifyMu sync.Mutex
}

func newSession(mode Mode, src *imaging.Source, handles *imaging.HandleRegistry, opts Options) (*Session, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("no source image")
	}
	if handles == nil {
		handles = imaging.NewHandleRegistry()
	}

	handle, err := handles.Acquire(src, opts.PreviewMaxDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create display handle: %w", err)
	}

	set := region.NewSet(src.NaturalWidth, src.NaturalHeight)
	if mode == ModeCrop {
		set = region.NewSelection(src.NaturalWidth, src.NaturalHeight)
	}
	frame := geometry.Frame{NaturalWidth: src.NaturalWidth, NaturalHeight: src.NaturalHeight}

	ctrl := gesture.NewController(set, frame, opts.Gesture)
	ctrl.Lock(true)

	return &Session{
		id:      uuid.NewString(),
		mode:    mode,
		opts:    opts,
		handles: handles,
		state:   SelectFile,
		src:     src,
		info:    src.Info(),
		handle:  handle,
		ctrl:    ctrl,
		changed: make(chan struct{}),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the workflow the session runs.
func (s *Session) Mode() Mode {
	return s.mode
}

// Target returns the upload destination of a redact session.
func (s *Session) Target() Target {
	return s.target
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the cause of the last failure, nil unless the session is Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Warning returns a detection error that was tolerated on the way to manual
// editing.
func (s *Session) Warning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// OnTransition registers l for every later state change.
func (s *Session) OnTransition(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, l)
}

// Wait blocks until no background call is in flight and returns the state
// reached.
func (s *Session) Wait(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		state, ch := s.state, s.changed
		s.mu.Unlock()

		if !state.Busy() {
			return state, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// CanConfirm reports whether Confirm would start. A crop session needs a
// non-empty selection; every session needs to be editable with no gesture in
// progress.
func (s *Session) CanConfirm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canConfirmLocked() == nil
}

func (s *Session) canConfirmLocked() error {
	switch {
	case s.state.Closed():
		return ErrSessionClosed
	case s.state == Editing, s.state == Failed && s.edited:
	default:
		return fmt.Errorf("%w: cannot confirm while %s", ErrInvalidState, s.state)
	}

	if _, idle := s.ctrl.State().(gesture.Idle); !idle {
		return fmt.Errorf("%w: gesture in progress", ErrConfirmDisabled)
	}
	if s.mode == ModeCrop {
		sel, err := s.ctrl.Set().Selected()
		if err != nil || sel.Rect.Empty() {
			return fmt.Errorf("%w: no selection", ErrConfirmDisabled)
		}
	}
	return nil
}

// Confirm bakes the edits and hands the result to the upload or recognition
// collaborator, blocking until that call returns. It is allowed from Editing,
// and from Failed after a bake or delivery failure, which retries with the
// same regions.
func (s *Session) Confirm(ctx context.Context) error {
	done, err := s.ConfirmAsync(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// Retry re-bakes the unchanged regions of a failed session and sends the
// result again.
func (s *Session) Retry(ctx context.Context) error {
	if st := s.State(); st != Failed {
		return fmt.Errorf("%w: nothing to retry while %s", ErrInvalidState, st)
	}
	return s.Confirm(ctx)
}

// ConfirmAsync moves the session to Baking before returning, so no gesture
// can slip in, and runs the bake and the delivery in the background. The
// channel receives the outcome once.
func (s *Session) ConfirmAsync(ctx context.Context) (<-chan error, error) {
	s.mu.Lock()
	if err := s.canConfirmLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.ctrl.Lock(true)
	s.err = nil
	s.output = nil
	src, set := s.src, s.ctrl.Set()
	s.transitionLocked(Baking, nil)
	s.mu.Unlock()
	s.flush()

	done := make(chan error, 1)
	go func() {
		done <- s.run(context.WithoutCancel(ctx), src, set)
	}()
	return done, nil
}

func (s *Session) run(ctx context.Context, src *imaging.Source, set region.Set) error {
	out, err := s.bake(src, set)

	s.mu.Lock()
	if s.state != Baking {
		s.mu.Unlock()
		logging.Debugf("Session %s: dropping bake result after %s", s.id, s.State())
		return ErrSessionClosed
	}
	if err != nil {
		err = fmt.Errorf("bake failed: %w", err)
		s.failLocked(err)
		s.mu.Unlock()
		s.flush()
		return err
	}

	next := Uploading
	if s.mode == ModeCrop {
		next = Recognizing
	}
	s.output = out
	s.transitionLocked(next, nil)
	s.mu.Unlock()
	s.flush()

	dctx := ctx
	if s.opts.DeliverTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.opts.DeliverTimeout)
		defer cancel()
	}

	start := time.Now()
	var result *recognition.Result
	if s.mode == ModeCrop {
		result, err = s.recognizer.Recognize(dctx, out)
		if err != nil {
			err = fmt.Errorf("recognition failed: %w", err)
		}
	} else {
		err = s.uploader.Upload(dctx, upload.Document{
			SubjectID:   s.target.SubjectID,
			DocumentID:  s.target.DocumentID,
			FileName:    src.Name,
			Format:      out.Format,
			ContentType: out.ContentType,
			Data:        out.Data,
		})
		if err != nil {
			err = fmt.Errorf("upload failed: %w", err)
		}
	}
	logging.Debugf("Session %s: %s finished in %v", s.id, next, time.Since(start))

	s.mu.Lock()
	if s.state != next {
		state := s.state
		s.mu.Unlock()
		logging.Debugf("Session %s: dropping %s result after %s", s.id, next, state)
		return ErrSessionClosed
	}
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		s.flush()
		return err
	}

	s.result = result
	s.transitionLocked(Done, nil)
	s.releaseLocked()
	s.mu.Unlock()
	s.flush()
	return nil
}

func (s *Session) bake(src *imaging.Source, set region.Set) (*bake.Output, error) {
	if s.mode == ModeCrop {
		return bake.Cropped(src.Image, src.Format, set, s.opts.Bake)
	}

	out, err := bake.Redacted(src.Image, src.Format, set, s.opts.Bake)
	if err != nil {
		return nil, err
	}
	if s.opts.VerifyRedaction {
		if err := bake.VerifyRedaction(out, set, s.opts.Bake.Fill); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Resume returns a session that failed after editing to Editing, so regions
// can be changed before the next Confirm.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != Failed || !s.edited {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidState, s.state)
	}
	s.err = nil
	s.ctrl.Lock(false)
	s.transitionLocked(Editing, nil)
	s.mu.Unlock()
	s.flush()
	return nil
}

// Cancel ends the session from any state that is not Done or Cancelled.
// That covers Editing and Failed, and also the busy states Detecting,
// Baking, Uploading and Recognizing, so a user can walk away from a slow
// service. An in-flight detection, upload or recognition call is not
// aborted; its result is dropped when it returns. Cancel on a closed session
// returns ErrSessionClosed.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state.Closed() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.transitionLocked(Cancelled, nil)
	s.releaseLocked()
	s.mu.Unlock()
	s.flush()
	return nil
}

// detect runs in the background while the session is Detecting.
func (s *Session) detect(ctx context.Context, d detection.Detector, src *imaging.Source) {
	if s.opts.DetectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DetectTimeout)
		defer cancel()
	}

	start := time.Now()
	entities, err := d.Detect(ctx, src)

	s.mu.Lock()
	if s.state != Detecting {
		state := s.state
		s.mu.Unlock()
		logging.Debugf("Session %s: dropping detection result after %s", s.id, state)
		return
	}

	if err != nil {
		err = fmt.Errorf("detection failed: %w", err)
		if !s.opts.ManualOnFailure {
			logging.Printf("Session %s: %v", s.id, err)
			s.err = err
			s.transitionLocked(Failed, err)
			s.releaseLocked()
			s.mu.Unlock()
			s.flush()
			return
		}
		logging.Printf("Session %s: %v; continuing with manual editing", s.id, err)
		s.warning = err
	} else {
		set, skipped := s.ctrl.Set().Seed(detection.ToSeeds(entities))
		if rerr := s.ctrl.Replace(set); rerr != nil {
			logging.Printf("Session %s: failed to seed regions: %v", s.id, rerr)
		}
		s.skipped = skipped
		logging.Debugf("Session %s: %d entities detected in %v, %d skipped",
			s.id, len(entities), time.Since(start), skipped)
	}

	s.enterEditingLocked(s.warning)
	s.mu.Unlock()
	s.flush()
}

func (s *Session) enterEditingLocked(cause error) {
	s.edited = true
	s.ctrl.Lock(false)
	s.transitionLocked(Editing, cause)
}

// failLocked records a failure after editing. Edits and the display handle
// are kept so the user can retry.
func (s *Session) failLocked(err error) {
	logging.Printf("Session %s: %v", s.id, err)
	s.err = err
	s.transitionLocked(Failed, err)
}

// releaseLocked frees the display handle and drops the source and regions.
func (s *Session) releaseLocked() {
	if s.handle != nil {
		s.handles.Release(s.handle.ID)
		s.handle = nil
	}
	s.src = nil
	if s.ctrl != nil {
		s.ctrl.Lock(true)
		s.ctrl = nil
	}
}

func (s *Session) transitionLocked(to State, cause error) {
	from := s.state
	s.state = to
	close(s.changed)
	s.changed = make(chan struct{})
	s.pending = append(s.pending, Transition{SessionID: s.id, From: from, To: to, Err: cause})
	logging.Debugf("Session %s: %s -> %s", s.id, from, to)
}

// flush delivers pending transitions in order. Only one goroutine delivers at
// a time; the others leave their transitions queued for it.
func (s *Session) flush() {
	for {
		if !s.notifyMu.TryLock() {
			return
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		watchers := append([]Listener(nil), s.watchers...)
		s.mu.Unlock()

		for _, t := range batch {
			for _, w := range watchers {
				w(t)
			}
		}
		s.notifyMu.Unlock()

		// A transition queued while we were delivering had its own flush
		// turned away; pick it up.
		s.mu.Lock()
		more := len(s.pending) > 0
		s.mu.Unlock()
		if !more {
			return
		}
	}
}

// editorLocked returns the controller when the session accepts edits.
func (s *Session) editorLocked() (*gesture.Controller, error) {
	if s.state.Closed() || s.ctrl == nil {
		return nil, ErrSessionClosed
	}
	if s.state != Editing {
		return nil, fmt.Errorf("%w: session is %s", gesture.ErrLocked, s.state)
	}
	return s.ctrl, nil
}

// SetFrame reports the rendered size of the image element. It is accepted
// in every open state.
func (s *Session) SetFrame(width, height float64) (geometry.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Closed() || s.ctrl == nil {
		return geometry.Frame{}, ErrSessionClosed
	}
	f := s.ctrl.Frame().WithDisplay(width, height)
	s.ctrl.SetFrame(f)
	return f, nil
}

// HitTest reports what lies under p.
func (s *Session) HitTest(p geometry.DisplayPoint) (gesture.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Closed() || s.ctrl == nil {
		return gesture.Target{}, ErrSessionClosed
	}
	return s.ctrl.HitTest(p), nil
}

// Press starts a gesture at p.
func (s *Session) Press(p geometry.DisplayPoint) (gesture.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return nil, err
	}
	return ctrl.Press(p)
}

// Move tracks the pointer during a gesture.
func (s *Session) Move(p geometry.DisplayPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return err
	}
	ctrl.Move(p)
	return nil
}

// Release finishes the gesture at p.
func (s *Session) Release(p geometry.DisplayPoint) (gesture.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return gesture.Result{}, err
	}
	return ctrl.Release(p), nil
}

// Leave finishes the gesture where the pointer was last seen.
func (s *Session) Leave() (gesture.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return gesture.Result{}, err
	}
	return ctrl.Leave(), nil
}

// Toggle flips a detected region on or off.
func (s *Session) Toggle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return err
	}
	return ctrl.Toggle(id)
}

// Delete removes a custom region.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, err := s.editorLocked()
	if err != nil {
		return err
	}
	return ctrl.Delete(id)
}

// Regions returns the committed regions, detected first in detection order.
func (s *Session) Regions() ([]region.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return nil, ErrSessionClosed
	}
	return s.ctrl.Set().All(), nil
}

// Preview returns the live display rectangle of the gesture in progress.
func (s *Session) Preview() (geometry.DisplayRect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return geometry.DisplayRect{}, false
	}
	return s.ctrl.Preview()
}

// Overlay renders the regions and any live gesture over the display preview.
func (s *Session) Overlay(opts imaging.OverlayOptions) (*imaging.OverlayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil || s.handle == nil {
		return nil, ErrSessionClosed
	}

	var live *geometry.NaturalRect
	if r, ok := s.ctrl.Preview(); ok {
		f := s.ctrl.Frame()
		n := geometry.ClampToImage(geometry.ToNaturalRect(r, f), f.NaturalWidth, f.NaturalHeight)
		live = &n
	}
	return imaging.RenderOverlay(s.handle, s.ctrl.Set().All(), live, opts)
}

// CropPreview renders the current selection of a crop session at up to
// maxDim pixels.
func (s *Session) CropPreview(maxDim int) (*imaging.CropResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeCrop {
		return nil, fmt.Errorf("%w: not a crop session", ErrInvalidState)
	}
	if s.ctrl == nil || s.src == nil {
		return nil, ErrSessionClosed
	}
	sel, err := s.ctrl.Set().Selected()
	if err != nil {
		return nil, err
	}
	return imaging.CropPreview(s.src.Image, sel.Rect, maxDim)
}

// Output returns the baked image once Baking has succeeded.
func (s *Session) Output() *bake.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// Recognition returns the recognized items of a finished crop session.
func (s *Session) Recognition() *recognition.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// HandleID returns the id of the session's display handle, empty once
// released.
func (s *Session) HandleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return ""
	}
	return s.handle.ID
}
