package gesture

import (
	"errors"
	"math"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

var (
	// ErrBusy is returned when a gesture is already in progress.
	ErrBusy = errors.New("gesture already in progress")

	// ErrLocked is returned while the session refuses edits.
	ErrLocked = errors.New("editor is locked")

	// ErrNotReady is returned while the display frame has no usable size.
	ErrNotReady = errors.New("display frame not ready")
)

// Options tunes hit testing and drawing.
type Options struct {
	// MinDrawSize is the smallest width and height, in display pixels, that
	// a drawn rectangle needs to be committed.
	MinDrawSize float64

	// HandleSize is the side, in display pixels, of a resize grip.
	HandleSize float64
}

// DefaultOptions returns the default gesture tuning.
func DefaultOptions() Options {
	return Options{MinDrawSize: 3, HandleSize: 8}
}

// Result reports the outcome of a finished gesture.
type Result struct {
	Action Action        `json:"action"`
	Region region.Region `json:"region"`
}

// Controller applies pointer gestures to a region set.
type Controller struct {
	set    region.Set
	frame  geometry.Frame
	state  State
	opts   Options
	locked bool
}

// NewController creates an idle controller over set, rendered as frame.
func NewController(set region.Set, frame geometry.Frame, opts Options) *Controller {
	if opts.MinDrawSize <= 0 {
		opts.MinDrawSize = DefaultOptions().MinDrawSize
	}
	if opts.HandleSize <= 0 {
		opts.HandleSize = DefaultOptions().HandleSize
	}
	return &Controller{set: set, frame: frame, state: Idle{}, opts: opts}
}

// Set returns the committed region set.
func (c *Controller) Set() region.Set {
	return c.set
}

// Replace swaps in a new region set. It fails while a gesture is in progress.
func (c *Controller) Replace(set region.Set) error {
	if !c.idle() {
		return ErrBusy
	}
	c.set = set
	return nil
}

// Frame returns the current display frame.
func (c *Controller) Frame() geometry.Frame {
	return c.frame
}

// State returns the gesture in progress.
func (c *Controller) State() State {
	return c.state
}

// Lock makes the controller refuse or accept new edits. Locking does not
// abort a gesture that is already in progress.
func (c *Controller) Lock(locked bool) {
	c.locked = locked
}

// Locked reports whether edits are refused.
func (c *Controller) Locked() bool {
	return c.locked
}

// SetFrame applies a new rendered size. An in-flight gesture is carried over
// through natural space so the live rectangle stays under the pointer.
func (c *Controller) SetFrame(f geometry.Frame) {
	old := c.frame
	c.frame = f
	if !old.Ready() || !f.Ready() {
		return
	}

	rescale := func(p geometry.DisplayPoint) geometry.DisplayPoint {
		return geometry.ToDisplayPoint(geometry.ToNaturalPoint(p, old), f)
	}

	switch s := c.state.(type) {
	case Drawing:
		s.Origin = rescale(s.Origin)
		s.Current = rescale(s.Current)
		c.state = s
	case Moving:
		s.Start = c.displayRect(s.RegionID, s.Start)
		s.Grab = rescale(s.Grab)
		s.Current = rescale(s.Current)
		c.state = s
	case Resizing:
		s.Start = c.displayRect(s.RegionID, s.Start)
		s.Current = rescale(s.Current)
		c.state = s
	}
}

// HitTest reports what lies under p. Custom regions are searched topmost
// first, handles before bodies. Detected regions are reported only when no
// custom region is hit, and never expose handles.
func (c *Controller) HitTest(p geometry.DisplayPoint) Target {
	regions := c.set.All()

	for i := len(regions) - 1; i >= 0; i-- {
		r := regions[i]
		if r.Kind != region.KindCustom {
			continue
		}
		dr := geometry.ToDisplayRect(r.Rect, c.frame)
		if h := c.handleAt(dr, p); h != HandleNone {
			return Target{Kind: TargetHandle, RegionID: r.ID, Handle: h}
		}
		if dr.Contains(p) {
			return Target{Kind: TargetBody, RegionID: r.ID}
		}
	}

	for i := len(regions) - 1; i >= 0; i-- {
		r := regions[i]
		if r.Kind == region.KindPredefined && geometry.ToDisplayRect(r.Rect, c.frame).Contains(p) {
			return Target{Kind: TargetPredefined, RegionID: r.ID}
		}
	}

	return Target{Kind: TargetEmpty}
}

// Press starts a gesture at p.
func (c *Controller) Press(p geometry.DisplayPoint) (State, error) {
	if c.locked {
		return c.state, ErrLocked
	}
	if !c.frame.Ready() {
		return c.state, ErrNotReady
	}
	if !c.idle() {
		return c.state, ErrBusy
	}

	p = geometry.ClampDisplayPoint(p, c.frame)
	t := c.HitTest(p)

	switch t.Kind {
	case TargetHandle:
		c.state = Resizing{RegionID: t.RegionID, Handle: t.Handle, Start: c.displayRect(t.RegionID, geometry.DisplayRect{}), Current: p}
	case TargetBody:
		c.state = Moving{RegionID: t.RegionID, Start: c.displayRect(t.RegionID, geometry.DisplayRect{}), Grab: p, Current: p}
	default:
		c.state = Drawing{Origin: p, Current: p}
	}
	return c.state, nil
}

// Move tracks the pointer during a gesture. Outside a gesture it does nothing.
func (c *Controller) Move(p geometry.DisplayPoint) {
	p = geometry.ClampDisplayPoint(p, c.frame)

	switch s := c.state.(type) {
	case Drawing:
		s.Current = p
		c.state = s
	case Moving:
		s.Current = p
		c.state = s
	case Resizing:
		s.Current = p
		c.state = s
	}
}

// Release finishes the gesture at p and commits it to the region set.
func (c *Controller) Release(p geometry.DisplayPoint) Result {
	if c.idle() {
		return Result{}
	}
	c.Move(p)
	return c.commit()
}

// Leave finishes the gesture at the last known pointer position. It is used
// when the pointer exits the editing surface mid-gesture.
func (c *Controller) Leave() Result {
	if c.idle() {
		return Result{}
	}
	return c.commit()
}

// Preview returns the live display rectangle of the gesture in progress.
func (c *Controller) Preview() (geometry.DisplayRect, bool) {
	switch s := c.state.(type) {
	case Drawing:
		return geometry.RectFromPoints(s.Origin, s.Current), true
	case Moving:
		moved := s.Start.Translate(s.Current.X-s.Grab.X, s.Current.Y-s.Grab.Y)
		return geometry.ConstrainDisplayOrigin(moved, c.frame), true
	case Resizing:
		return resizeRect(s.Start, s.Handle, s.Current), true
	default:
		return geometry.DisplayRect{}, false
	}
}

// Toggle flips a detected region on or off.
func (c *Controller) Toggle(id string) error {
	if err := c.editable(); err != nil {
		return err
	}
	set, err := c.set.Toggle(id)
	if err != nil {
		return err
	}
	c.set = set
	return nil
}

// Delete removes a custom region.
func (c *Controller) Delete(id string) error {
	if err := c.editable(); err != nil {
		return err
	}
	set, err := c.set.Remove(id)
	if err != nil {
		return err
	}
	c.set = set
	return nil
}

func (c *Controller) commit() Result {
	defer func() { c.state = Idle{} }()

	live, _ := c.Preview()

	switch s := c.state.(type) {
	case Drawing:
		if live.Width < c.opts.MinDrawSize || live.Height < c.opts.MinDrawSize {
			return Result{Action: ActionDiscarded}
		}
		set, r, err := c.set.AddCustom(geometry.ToNaturalRect(live, c.frame))
		if err != nil {
			return Result{Action: ActionDiscarded}
		}
		c.set = set
		return Result{Action: ActionCreated, Region: r}

	case Moving:
		r, ok := c.set.Get(s.RegionID)
		if !ok {
			return Result{Action: ActionDiscarded}
		}
		if s.Current == s.Grab {
			return Result{Action: ActionNone, Region: r}
		}
		origin := geometry.ToNaturalRect(geometry.DisplayRect{X: live.X, Y: live.Y}, c.frame)
		w, h := c.set.Size()
		moved := geometry.ConstrainOrigin(geometry.NaturalRect{
			X: origin.X, Y: origin.Y, Width: r.Rect.Width, Height: r.Rect.Height,
		}, w, h)
		return c.update(r, moved, ActionMoved)

	case Resizing:
		r, ok := c.set.Get(s.RegionID)
		if !ok {
			return Result{Action: ActionDiscarded}
		}
		return c.update(r, resizeNatural(r.Rect, s.Handle, live, c.frame), ActionResized)
	}

	return Result{}
}

func (c *Controller) update(r region.Region, rect geometry.NaturalRect, action Action) Result {
	set, err := c.set.Update(r.ID, region.Patch{Rect: &rect})
	if err != nil {
		return Result{Action: ActionRejected, Region: r}
	}
	c.set = set
	updated, _ := set.Get(r.ID)
	return Result{Action: action, Region: updated}
}

func (c *Controller) editable() error {
	if c.locked {
		return ErrLocked
	}
	if !c.idle() {
		return ErrBusy
	}
	return nil
}

func (c *Controller) idle() bool {
	_, ok := c.state.(Idle)
	return ok
}

// displayRect returns the region's current display rectangle, or fallback
// when the region no longer exists.
func (c *Controller) displayRect(id string, fallback geometry.DisplayRect) geometry.DisplayRect {
	if r, ok := c.set.Get(id); ok {
		return geometry.ToDisplayRect(r.Rect, c.frame)
	}
	return fallback
}

// handleAt returns the grip of r under p. Corners win over edges.
func (c *Controller) handleAt(r geometry.DisplayRect, p geometry.DisplayPoint) Handle {
	half := c.opts.HandleSize / 2
	near := func(a, b float64) bool { return math.Abs(a-b) <= half }

	left, right := r.X, r.X+r.Width
	top, bottom := r.Y, r.Y+r.Height
	inX := p.X >= left-half && p.X <= right+half
	inY := p.Y >= top-half && p.Y <= bottom+half

	switch {
	case near(p.X, left) && near(p.Y, top):
		return HandleNW
	case near(p.X, right) && near(p.Y, top):
		return HandleNE
	case near(p.X, left) && near(p.Y, bottom):
		return HandleSW
	case near(p.X, right) && near(p.Y, bottom):
		return HandleSE
	case near(p.Y, top) && inX:
		return HandleN
	case near(p.Y, bottom) && inX:
		return HandleS
	case near(p.X, left) && inY:
		return HandleW
	case near(p.X, right) && inY:
		return HandleE
	}
	return HandleNone
}

// resizeRect moves the edges grabbed by h to p. A dragged edge stops at the
// opposite edge, so the size never goes negative and the rect never flips.
func resizeRect(r geometry.DisplayRect, h Handle, p geometry.DisplayPoint) geometry.DisplayRect {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	left, top, right, bottom := h.edges()

	if left {
		x0 = math.Min(p.X, x1)
	}
	if right {
		x1 = math.Max(p.X, x0)
	}
	if top {
		y0 = math.Min(p.Y, y1)
	}
	if bottom {
		y1 = math.Max(p.Y, y0)
	}
	return geometry.DisplayRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// resizeNatural converts only the dragged edges of live into natural space.
// Edges that were not grabbed keep their committed pixel position.
func resizeNatural(committed geometry.NaturalRect, h Handle, live geometry.DisplayRect, f geometry.Frame) geometry.NaturalRect {
	conv := geometry.ToNaturalRect(live, f)
	x0, y0 := committed.X, committed.Y
	x1, y1 := committed.X+committed.Width, committed.Y+committed.Height
	left, top, right, bottom := h.edges()

	if left {
		x0 = conv.X
	}
	if right {
		x1 = conv.X + conv.Width
	}
	if top {
		y0 = conv.Y
	}
	if bottom {
		y1 = conv.Y + conv.Height
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return geometry.NaturalRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
