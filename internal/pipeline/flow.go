package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
	"github.com/ironsheep/region-editor-mcp/internal/detection"
	"github.com/ironsheep/region-editor-mcp/internal/gesture"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/recognition"
	"github.com/ironsheep/region-editor-mcp/internal/upload"
)

// Options tunes sessions opened by a flow.
type Options struct {
	Bake    bake.Options
	Gesture gesture.Options

	// PreviewMaxDim bounds the longer side of the display preview.
	PreviewMaxDim int

	// VerifyRedaction re-decodes every redacted output and fails the session
	// if any active region still shows source pixels.
	VerifyRedaction bool

	DetectTimeout  time.Duration
	DeliverTimeout time.Duration

	// ManualOnFailure continues to Editing with no detected regions when
	// detection fails, instead of failing the session.
	ManualOnFailure bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Bake:            bake.DefaultOptions(),
		Gesture:         gesture.DefaultOptions(),
		PreviewMaxDim:   1024,
		VerifyRedaction: true,
		DetectTimeout:   60 * time.Second,
		DeliverTimeout:  60 * time.Second,
	}
}

// Target names where a redacted document is filed.
type Target struct {
	SubjectID  string `json:"subject_id"`
	DocumentID string `json:"document_id"`
}

// RedactFlow opens sessions that detect sensitive regions, let the user
// adjust them, and upload the masked document.
type RedactFlow struct {
	Detector detection.Detector
	Uploader upload.Uploader
	Handles  *imaging.HandleRegistry
	Options  Options
}

// Open starts a redact session for src. The session is returned in Detecting;
// detection keeps running if ctx is cancelled and is bounded by
// Options.DetectTimeout instead.
func (f *RedactFlow) Open(ctx context.Context, src *imaging.Source, target Target) (*Session, error) {
	if f.Detector == nil || f.Uploader == nil {
		return nil, fmt.Errorf("redact flow needs a detector and an uploader")
	}
	if target.SubjectID == "" {
		return nil, fmt.Errorf("subject id is required")
	}
	if target.DocumentID == "" {
		// Fixed here so a retried upload replaces the same document.
		target.DocumentID = uuid.NewString()
	}

	s, err := newSession(ModeRedact, src, f.Handles, f.Options)
	if err != nil {
		return nil, err
	}
	s.target = target
	s.uploader = f.Uploader

	s.mu.Lock()
	s.transitionLocked(Detecting, nil)
	s.mu.Unlock()

	go s.detect(context.WithoutCancel(ctx), f.Detector, src)
	return s, nil
}

// CropFlow opens sessions that select one area of an image and send it for
// recognition.
type CropFlow struct {
	Recognizer recognition.Recognizer
	Handles    *imaging.HandleRegistry
	Options    Options
}

// Open starts a crop session for src, already in Editing with an empty
// selection.
func (f *CropFlow) Open(ctx context.Context, src *imaging.Source) (*Session, error) {
	if f.Recognizer == nil {
		return nil, fmt.Errorf("crop flow needs a recognizer")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := newSession(ModeCrop, src, f.Handles, f.Options)
	if err != nil {
		return nil, err
	}
	s.recognizer = f.Recognizer

	s.mu.Lock()
	s.enterEditingLocked(nil)
	s.mu.Unlock()
	return s, nil
}
