package pipeline

import (
	"github.com/ironsheep/region-editor-mcp/internal/bake"
	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/recognition"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// Status is a point-in-time snapshot of a session.
type Status struct {
	SessionID   string              `json:"session_id"`
	Mode        Mode                `json:"mode"`
	State       State               `json:"state"`
	Gesture     string              `json:"gesture"`
	CanConfirm  bool                `json:"can_confirm"`
	Retryable   bool                `json:"retryable,omitempty"`
	Error       string              `json:"error,omitempty"`
	Warning     string              `json:"warning,omitempty"`
	Source      imaging.SourceInfo  `json:"source"`
	Frame       geometry.Frame      `json:"frame"`
	Target      *Target             `json:"target,omitempty"`
	Regions     []region.Region     `json:"regions,omitempty"`
	Skipped     int                 `json:"skipped_detections,omitempty"`
	Output      *bake.Output        `json:"output,omitempty"`
	Recognition *recognition.Result `json:"recognition,omitempty"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID:   s.id,
		Mode:        s.mode,
		State:       s.state,
		Gesture:     "idle",
		CanConfirm:  s.canConfirmLocked() == nil,
		Retryable:   s.state == Failed && s.edited,
		Source:      s.info,
		Skipped:     s.skipped,
		Output:      s.output,
		Recognition: s.result,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	if s.warning != nil {
		st.Warning = s.warning.Error()
	}
	if s.mode == ModeRedact {
		t := s.target
		st.Target = &t
	}
	if s.ctrl != nil {
		st.Gesture = s.ctrl.State().Name()
		st.Frame = s.ctrl.Frame()
		st.Regions = s.ctrl.Set().All()
	}
	return st
}
