package gesture

import (
	"fmt"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
)

// State is the gesture in progress. The concrete types are Idle, Drawing,
// Moving and Resizing.
type State interface {
	Name() string
	gesture()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Drawing is a new custom region being dragged out from Origin.
type Drawing struct {
	Origin  geometry.DisplayPoint
	Current geometry.DisplayPoint
}

// Moving is an existing custom region being dragged by its body. Grab is the
// pointer position at press time and Start the region's display rect then.
type Moving struct {
	RegionID string
	Start    geometry.DisplayRect
	Grab     geometry.DisplayPoint
	Current  geometry.DisplayPoint
}

// Resizing is an existing custom region being dragged by one of its handles.
type Resizing struct {
	RegionID string
	Handle   Handle
	Start    geometry.DisplayRect
	Current  geometry.DisplayPoint
}

func (Idle) Name() string     { return "idle" }
func (Drawing) Name() string  { return "drawing" }
func (Moving) Name() string   { return "moving" }
func (Resizing) Name() string { return "resizing" }

func (Idle) gesture()     {}
func (Drawing) gesture()  {}
func (Moving) gesture()   {}
func (Resizing) gesture() {}

// Handle identifies a resize grip on a region outline.
type Handle int

const (
	HandleNone Handle = iota
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

var handleNames = map[Handle]string{
	HandleNone: "none",
	HandleN:    "n",
	HandleS:    "s",
	HandleE:    "e",
	HandleW:    "w",
	HandleNE:   "ne",
	HandleNW:   "nw",
	HandleSE:   "se",
	HandleSW:   "sw",
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return fmt.Sprintf("handle(%d)", int(h))
}

// MarshalText encodes the handle as its compass name.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// edges reports which rectangle edges the handle drags.
func (h Handle) edges() (left, top, right, bottom bool) {
	switch h {
	case HandleN:
		top = true
	case HandleS:
		bottom = true
	case HandleE:
		right = true
	case HandleW:
		left = true
	case HandleNE:
		top, right = true, true
	case HandleNW:
		top, left = true, true
	case HandleSE:
		bottom, right = true, true
	case HandleSW:
		bottom, left = true, true
	}
	return
}

// TargetKind classifies what lies under the pointer.
type TargetKind int

const (
	// TargetEmpty is bare canvas, or a detected region's body.
	TargetEmpty TargetKind = iota
	// TargetBody is the interior of a custom region.
	TargetBody
	// TargetHandle is a resize grip of a custom region.
	TargetHandle
	// TargetPredefined is a detected region with no custom region above it.
	TargetPredefined
)

func (k TargetKind) String() string {
	switch k {
	case TargetBody:
		return "body"
	case TargetHandle:
		return "handle"
	case TargetPredefined:
		return "predefined"
	default:
		return "empty"
	}
}

// Target is the result of a hit test.
type Target struct {
	Kind     TargetKind `json:"kind"`
	RegionID string     `json:"region_id,omitempty"`
	Handle   Handle     `json:"handle,omitempty"`
}

// Action describes what a finished gesture did to the region set.
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionMoved
	ActionResized
	ActionDiscarded
	ActionRejected
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionMoved:
		return "moved"
	case ActionResized:
		return "resized"
	case ActionDiscarded:
		return "discarded"
	case ActionRejected:
		return "rejected"
	default:
		return "none"
	}
}

// MarshalText encodes the action as its name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
