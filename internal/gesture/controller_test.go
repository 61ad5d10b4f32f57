package gesture

import (
	"errors"
	"testing"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// scaledFrame is a 1000x2000 image shown at 250x500 (scale 4).
func scaledFrame() geometry.Frame {
	return geometry.Frame{NaturalWidth: 1000, NaturalHeight: 2000, DisplayWidth: 250, DisplayHeight: 500}
}

func pt(x, y float64) geometry.DisplayPoint {
	return geometry.DisplayPoint{X: x, Y: y}
}

func newController(t *testing.T) *Controller {
	t.Helper()
	f := scaledFrame()
	return NewController(region.NewSet(f.NaturalWidth, f.NaturalHeight), f, DefaultOptions())
}

// withCustom adds a custom region at the given natural rect.
func withCustom(t *testing.T, c *Controller, r geometry.NaturalRect) region.Region {
	t.Helper()
	set, reg, err := c.Set().AddCustom(r)
	if err != nil {
		t.Fatalf("AddCustom failed: %v", err)
	}
	if err := c.Replace(set); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	return reg
}

func TestDrawScenario(t *testing.T) {
	c := newController(t)

	st, err := c.Press(pt(10, 10))
	if err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	if _, ok := st.(Drawing); !ok {
		t.Fatalf("expected Drawing, got %s", st.Name())
	}

	c.Move(pt(30, 40))
	if c.Set().Len() != 0 {
		t.Fatal("intermediate move must not touch the region set")
	}

	res := c.Release(pt(60, 60))
	if res.Action != ActionCreated {
		t.Fatalf("Action: got %s, want created", res.Action)
	}
	want := geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200}
	if res.Region.Rect != want {
		t.Errorf("committed rect: got %+v, want %+v", res.Region.Rect, want)
	}
	if _, ok := c.State().(Idle); !ok {
		t.Errorf("expected Idle after release, got %s", c.State().Name())
	}
}

func TestDraw_ReverseDirection(t *testing.T) {
	c := newController(t)
	if _, err := c.Press(pt(60, 60)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	res := c.Release(pt(10, 10))
	want := geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200}
	if res.Region.Rect != want {
		t.Errorf("got %+v, want %+v", res.Region.Rect, want)
	}
}

func TestDraw_TinyDiscarded(t *testing.T) {
	tests := []struct {
		name string
		to   geometry.DisplayPoint
	}{
		{"click", pt(10, 10)},
		{"thin", pt(50, 11)},
		{"narrow", pt(12, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			if _, err := c.Press(pt(10, 10)); err != nil {
				t.Fatalf("Press failed: %v", err)
			}
			res := c.Release(tt.to)
			if res.Action != ActionDiscarded {
				t.Errorf("Action: got %s, want discarded", res.Action)
			}
			if c.Set().Len() != 0 {
				t.Error("tiny drawing was committed")
			}
		})
	}
}

func TestPress_Refusals(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		c := NewController(region.NewSet(100, 100), geometry.Frame{NaturalWidth: 100, NaturalHeight: 100}, DefaultOptions())
		if _, err := c.Press(pt(1, 1)); !errors.Is(err, ErrNotReady) {
			t.Errorf("expected ErrNotReady, got %v", err)
		}
	})

	t.Run("locked", func(t *testing.T) {
		c := newController(t)
		c.Lock(true)
		if _, err := c.Press(pt(1, 1)); !errors.Is(err, ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("busy", func(t *testing.T) {
		c := newController(t)
		if _, err := c.Press(pt(1, 1)); err != nil {
			t.Fatalf("Press failed: %v", err)
		}
		if _, err := c.Press(pt(5, 5)); !errors.Is(err, ErrBusy) {
			t.Errorf("expected ErrBusy, got %v", err)
		}
		if _, ok := c.State().(Drawing); !ok {
			t.Error("refused press changed the gesture")
		}
	})
}

func TestMoveRegion(t *testing.T) {
	c := newController(t)
	reg := withCustom(t, c, geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200})

	// Display rect of the region is (10,10)-(60,60); grab its middle.
	st, err := c.Press(pt(35, 35))
	if err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	if _, ok := st.(Moving); !ok {
		t.Fatalf("expected Moving, got %s", st.Name())
	}

	c.Move(pt(40, 40))
	c.Move(pt(45, 50))
	res := c.Release(pt(45, 50))

	if res.Action != ActionMoved {
		t.Fatalf("Action: got %s, want moved", res.Action)
	}
	want := geometry.NaturalRect{X: 80, Y: 100, Width: 200, Height: 200}
	if got, _ := c.Set().Get(reg.ID); got.Rect != want {
		t.Errorf("moved rect: got %+v, want %+v", got.Rect, want)
	}
}

func TestMoveRegion_ConstrainedToImage(t *testing.T) {
	c := newController(t)
	reg := withCustom(t, c, geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200})

	if _, err := c.Press(pt(35, 35)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	res := c.Release(pt(500, 35))
	if res.Action != ActionMoved {
		t.Fatalf("Action: got %s, want moved", res.Action)
	}

	got, _ := c.Set().Get(reg.ID)
	if got.Rect.Width != 200 || got.Rect.Height != 200 {
		t.Errorf("move changed size: %+v", got.Rect)
	}
	if got.Rect.X+got.Rect.Width != 1000 {
		t.Errorf("region should sit against the right edge: %+v", got.Rect)
	}
}

func TestMoveRegion_ClickKeepsGeometry(t *testing.T) {
	c := newController(t)
	orig := geometry.NaturalRect{X: 41, Y: 43, Width: 201, Height: 199}
	reg := withCustom(t, c, orig)

	if _, err := c.Press(pt(35, 35)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	res := c.Release(pt(35, 35))
	if res.Action != ActionNone {
		t.Errorf("Action: got %s, want none", res.Action)
	}
	if got, _ := c.Set().Get(reg.ID); got.Rect != orig {
		t.Errorf("click drifted geometry: %+v", got.Rect)
	}
}

func TestResize_RightEdge(t *testing.T) {
	c := newController(t)
	reg := withCustom(t, c, geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200})

	st, err := c.Press(pt(60, 35))
	if err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	rs, ok := st.(Resizing)
	if !ok || rs.Handle != HandleE {
		t.Fatalf("expected Resizing on east handle, got %#v", st)
	}

	res := c.Release(pt(80, 90))
	if res.Action != ActionResized {
		t.Fatalf("Action: got %s, want resized", res.Action)
	}
	want := geometry.NaturalRect{X: 40, Y: 40, Width: 280, Height: 200}
	if got, _ := c.Set().Get(reg.ID); got.Rect != want {
		t.Errorf("resized rect: got %+v, want %+v", got.Rect, want)
	}
}

func TestResize_CornerDragsTwoEdges(t *testing.T) {
	c := newController(t)
	reg := withCustom(t, c, geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200})

	if _, err := c.Press(pt(10, 10)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	if rs, ok := c.State().(Resizing); !ok || rs.Handle != HandleNW {
		t.Fatalf("expected NW resize, got %#v", c.State())
	}
	c.Release(pt(5, 20))

	want := geometry.NaturalRect{X: 20, Y: 80, Width: 220, Height: 160}
	if got, _ := c.Set().Get(reg.ID); got.Rect != want {
		t.Errorf("got %+v, want %+v", got.Rect, want)
	}
}

func TestResize_PastOppositeEdgeStops(t *testing.T) {
	c := newController(t)
	orig := geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200}
	reg := withCustom(t, c, orig)

	// Grab the right edge and drag well past the left edge.
	if _, err := c.Press(pt(60, 35)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	c.Move(pt(0, 35))

	live, ok := c.Preview()
	if !ok {
		t.Fatal("expected a live preview")
	}
	if live.Width != 0 || live.X != 10 {
		t.Errorf("edge should stop at the left edge, got %+v", live)
	}

	res := c.Release(pt(0, 35))
	if res.Action != ActionRejected {
		t.Errorf("Action: got %s, want rejected", res.Action)
	}
	if got, _ := c.Set().Get(reg.ID); got.Rect != orig {
		t.Errorf("rejected resize changed geometry: %+v", got.Rect)
	}
}

func TestLeave_CommitsLastPosition(t *testing.T) {
	c := newController(t)
	if _, err := c.Press(pt(10, 10)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	c.Move(pt(60, 60))
	c.Move(pt(400, 900)) // outside the surface, pinned to (250,500)

	res := c.Leave()
	if res.Action != ActionCreated {
		t.Fatalf("Action: got %s, want created", res.Action)
	}
	want := geometry.NaturalRect{X: 40, Y: 40, Width: 960, Height: 1960}
	if res.Region.Rect != want {
		t.Errorf("got %+v, want %+v", res.Region.Rect, want)
	}
	if _, ok := c.State().(Idle); !ok {
		t.Error("expected Idle after leave")
	}
}

func TestPressOnPredefinedStartsDrawing(t *testing.T) {
	c := newController(t)
	set, _ := c.Set().Seed([]region.Seed{{Rect: geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200}}})
	if err := c.Replace(set); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if got := c.HitTest(pt(35, 35)); got.Kind != TargetPredefined {
		t.Errorf("HitTest: got %s, want predefined", got.Kind)
	}
	// A predefined corner has no grip.
	if got := c.HitTest(pt(10, 10)); got.Kind == TargetHandle {
		t.Error("predefined region must not expose handles")
	}

	st, err := c.Press(pt(35, 35))
	if err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	if _, ok := st.(Drawing); !ok {
		t.Errorf("expected Drawing, got %s", st.Name())
	}
}

func TestHitTest_TopmostFirst(t *testing.T) {
	c := newController(t)
	withCustom(t, c, geometry.NaturalRect{X: 0, Y: 0, Width: 400, Height: 400})
	top := withCustom(t, c, geometry.NaturalRect{X: 100, Y: 100, Width: 200, Height: 200})

	got := c.HitTest(pt(50, 50))
	if got.Kind != TargetBody || got.RegionID != top.ID {
		t.Errorf("expected topmost body, got %+v", got)
	}
}

func TestToggleAndDelete(t *testing.T) {
	c := newController(t)
	set, _ := c.Set().Seed([]region.Seed{{Rect: geometry.NaturalRect{X: 100, Y: 100, Width: 200, Height: 50}}})
	if err := c.Replace(set); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	pre := c.Set().All()[0]
	custom := withCustom(t, c, geometry.NaturalRect{X: 0, Y: 0, Width: 10, Height: 10})

	if err := c.Toggle(pre.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if got, _ := c.Set().Get(pre.ID); got.Active {
		t.Error("toggle should deactivate")
	}

	if err := c.Delete(pre.ID); !errors.Is(err, region.ErrPredefinedRemoval) {
		t.Errorf("expected ErrPredefinedRemoval, got %v", err)
	}
	if err := c.Delete(custom.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	c.Lock(true)
	if err := c.Toggle(pre.ID); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestSetFrame_RescalesGesture(t *testing.T) {
	c := newController(t)
	if _, err := c.Press(pt(10, 10)); err != nil {
		t.Fatalf("Press failed: %v", err)
	}
	c.Move(pt(60, 60))

	// The element doubles in size mid-gesture.
	c.SetFrame(scaledFrame().WithDisplay(500, 1000))
	live, _ := c.Preview()
	if live.X != 20 || live.Width != 100 {
		t.Errorf("gesture not rescaled: %+v", live)
	}

	res := c.Release(pt(120, 120))
	want := geometry.NaturalRect{X: 40, Y: 40, Width: 200, Height: 200}
	if res.Region.Rect != want {
		t.Errorf("got %+v, want %+v", res.Region.Rect, want)
	}
}

func TestSelectionReplacesOnDraw(t *testing.T) {
	f := scaledFrame()
	c := NewController(region.NewSelection(f.NaturalWidth, f.NaturalHeight), f, DefaultOptions())

	drags := [][2]geometry.DisplayPoint{
		{pt(10, 10), pt(60, 60)},
		{pt(100, 150), pt(120, 200)},
	}
	for _, d := range drags {
		if _, err := c.Press(d[0]); err != nil {
			t.Fatalf("Press failed: %v", err)
		}
		if res := c.Release(d[1]); res.Action != ActionCreated {
			t.Fatalf("Action: got %s, want created", res.Action)
		}
	}
	if c.Set().Len() != 1 {
		t.Errorf("selection should hold one region, got %d", c.Set().Len())
	}
}

func TestReleaseWhileIdle(t *testing.T) {
	c := newController(t)
	if res := c.Release(pt(5, 5)); res.Action != ActionNone {
		t.Errorf("Action: got %s, want none", res.Action)
	}
	if _, ok := c.Preview(); ok {
		t.Error("idle controller should have no preview")
	}
}
