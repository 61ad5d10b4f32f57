package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/gesture"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/pipeline"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "redact_open", "pointer_down").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Sessions
	case "redact_open":
		return s.handleRedactOpen(args)
	case "crop_open":
		return s.handleCropOpen(args)
	case "session_status":
		return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
			return sess.Status(), nil
		})
	case "session_wait":
		return s.handleSessionWait(args)
	case "session_confirm":
		return s.handleSessionConfirm(args)
	case "session_resume":
		return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
			if err := sess.Resume(); err != nil {
				return nil, err
			}
			return sess.Status(), nil
		})
	case "session_cancel":
		return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
			if err := sess.Cancel(); err != nil {
				return nil, err
			}
			return sess.Status(), nil
		})
	case "session_preview":
		return s.handleSessionPreview(args)

	// Pointer input
	case "frame_set":
		return s.handleFrameSet(args)
	case "pointer_down":
		return s.handlePointerDown(args)
	case "pointer_move":
		return s.handlePointerMove(args)
	case "pointer_up":
		return s.handlePointerUp(args)
	case "pointer_leave":
		return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
			return sess.Leave()
		})

	// Regions
	case "regions_list":
		return s.withSession(regionsView)
	case "region_toggle":
		return s.handleRegionEdit(args, (*pipeline.Session).Toggle)
	case "region_delete":
		return s.handleRegionEdit(args, (*pipeline.Session).Delete)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) withSession(fn func(*pipeline.Session) (interface{}, error)) (interface{}, error) {
	sess, err := s.editor.Active()
	if err != nil {
		return nil, err
	}
	return fn(sess)
}

// === Session Handlers ===

type redactOpenArgs struct {
	Path       string `json:"path"`
	SubjectID  string `json:"subject_id"`
	DocumentID string `json:"document_id"`
}

func (s *Server) handleRedactOpen(args json.RawMessage) (interface{}, error) {
	var a redactOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := imaging.LoadSource(a.Path)
	if err != nil {
		return nil, err
	}
	sess, err := s.editor.OpenRedact(context.Background(), src, pipeline.Target{
		SubjectID:  a.SubjectID,
		DocumentID: a.DocumentID,
	})
	if err != nil {
		return nil, err
	}
	return sess.Status(), nil
}

type cropOpenArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleCropOpen(args json.RawMessage) (interface{}, error) {
	var a cropOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := imaging.LoadSource(a.Path)
	if err != nil {
		return nil, err
	}
	sess, err := s.editor.OpenCrop(context.Background(), src)
	if err != nil {
		return nil, err
	}
	return sess.Status(), nil
}

type waitArgs struct {
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

func (s *Server) handleSessionWait(args json.RawMessage) (interface{}, error) {
	var a waitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.TimeoutSeconds <= 0 {
		a.TimeoutSeconds = 30
	}

	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.TimeoutSeconds*float64(time.Second)))
		defer cancel()
		// A timeout is not an error; the status shows the session still busy.
		sess.Wait(ctx)
		return sess.Status(), nil
	})
}

type confirmArgs struct {
	Wait bool `json:"wait"`
}

func (s *Server) handleSessionConfirm(args json.RawMessage) (interface{}, error) {
	var a confirmArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		done, err := sess.ConfirmAsync(context.Background())
		if err != nil {
			return nil, err
		}
		if a.Wait {
			// Failures show up in the status.
			<-done
		}
		return sess.Status(), nil
	})
}

type previewArgs struct {
	Kind   string `json:"kind"`
	MaxDim int    `json:"max_dim"`
}

func (s *Server) handleSessionPreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		switch a.Kind {
		case "", "overlay":
			return sess.Overlay(imaging.DefaultOverlayOptions())
		case "crop":
			if a.MaxDim <= 0 {
				a.MaxDim = 512
			}
			return sess.CropPreview(a.MaxDim)
		default:
			return nil, fmt.Errorf("unknown preview kind: %q (use overlay or crop)", a.Kind)
		}
	})
}

// === Pointer Handlers ===

type frameArgs struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleFrameSet(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		return sess.SetFrame(a.Width, a.Height)
	})
}

type pointArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a pointArgs) point() geometry.DisplayPoint {
	return geometry.DisplayPoint{X: a.X, Y: a.Y}
}

type pointerResult struct {
	Gesture string                `json:"gesture"`
	Target  *gesture.Target       `json:"target,omitempty"`
	Preview *geometry.DisplayRect `json:"preview,omitempty"`
}

func (s *Server) handlePointerDown(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		target, err := sess.HitTest(a.point())
		if err != nil {
			return nil, err
		}
		state, err := sess.Press(a.point())
		if err != nil {
			return nil, err
		}
		return pointerResult{Gesture: state.Name(), Target: &target}, nil
	})
}

func (s *Server) handlePointerMove(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		if err := sess.Move(a.point()); err != nil {
			return nil, err
		}
		st := sess.Status()
		res := pointerResult{Gesture: st.Gesture}
		if r, ok := sess.Preview(); ok {
			res.Preview = &r
		}
		return res, nil
	})
}

func (s *Server) handlePointerUp(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		return sess.Release(a.point())
	})
}

// === Region Handlers ===

type regionArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleRegionEdit(args json.RawMessage, edit func(*pipeline.Session, string) error) (interface{}, error) {
	var a regionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	return s.withSession(func(sess *pipeline.Session) (interface{}, error) {
		if err := edit(sess, a.ID); err != nil {
			return nil, err
		}
		return regionsView(sess)
	})
}

// regionEntry pairs a region with where it is drawn in the current frame.
type regionEntry struct {
	region.Region
	Display geometry.DisplayRect `json:"display"`
}

type regionsResult struct {
	Frame   geometry.Frame `json:"frame"`
	Regions []regionEntry  `json:"regions"`
}

func regionsView(sess *pipeline.Session) (interface{}, error) {
	regions, err := sess.Regions()
	if err != nil {
		return nil, err
	}
	frame := sess.Status().Frame

	out := regionsResult{Frame: frame, Regions: make([]regionEntry, 0, len(regions))}
	for _, r := range regions {
		out.Regions = append(out.Regions, regionEntry{
			Region:  r,
			Display: geometry.ToDisplayRect(r.Rect, frame),
		})
	}
	return out, nil
}
