package geometry

import (
	"errors"
	"image"
	"math"
)

// ErrFrameNotReady is returned when a conversion is requested against a frame
// that has not been laid out yet.
var ErrFrameNotReady = errors.New("display frame not ready")

// DisplayPoint is a point in display (layout pixel) space.
type DisplayPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayRect is a rectangle in display space.
type DisplayRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NaturalPoint is a point in natural (intrinsic pixel) space. It is fractional
// so that sub-pixel pointer positions survive until a rectangle is committed.
type NaturalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NaturalRect is a rectangle on the image's intrinsic pixel grid.
type NaturalRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds is the corner form of a natural rectangle used on the wire by
// detection services: (X1, Y1) inclusive, (X2, Y2) exclusive.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Frame pairs the image's intrinsic size with the rendered element size.
type Frame struct {
	NaturalWidth  int     `json:"natural_width"`
	NaturalHeight int     `json:"natural_height"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
}

// Ready reports whether the element has a usable rendered size.
func (f Frame) Ready() bool {
	return f.DisplayWidth > 0 && f.DisplayHeight > 0 && f.NaturalWidth > 0 && f.NaturalHeight > 0
}

// Scale returns the natural-per-display scale factors. A frame that is not
// ready yields the identity mapping.
func (f Frame) Scale() (sx, sy float64) {
	if !f.Ready() {
		return 1, 1
	}
	return float64(f.NaturalWidth) / f.DisplayWidth, float64(f.NaturalHeight) / f.DisplayHeight
}

// WithDisplay returns a copy of the frame with a new rendered size.
func (f Frame) WithDisplay(width, height float64) Frame {
	f.DisplayWidth = width
	f.DisplayHeight = height
	return f
}

// ToNaturalPoint maps a display point into natural space.
func ToNaturalPoint(p DisplayPoint, f Frame) NaturalPoint {
	sx, sy := f.Scale()
	return NaturalPoint{X: p.X * sx, Y: p.Y * sy}
}

// ToDisplayPoint maps a natural point into display space.
func ToDisplayPoint(p NaturalPoint, f Frame) DisplayPoint {
	sx, sy := f.Scale()
	return DisplayPoint{X: p.X / sx, Y: p.Y / sy}
}

// ToNaturalRect maps a display rectangle onto the natural pixel grid. Both
// edges are rounded to the nearest pixel, so the width is the difference of
// rounded edges rather than a separately rounded width.
func ToNaturalRect(r DisplayRect, f Frame) NaturalRect {
	sx, sy := f.Scale()
	x0 := int(math.Round(r.X * sx))
	y0 := int(math.Round(r.Y * sy))
	x1 := int(math.Round((r.X + r.Width) * sx))
	y1 := int(math.Round((r.Y + r.Height) * sy))
	return NaturalRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ToDisplayRect maps a natural rectangle into display space.
func ToDisplayRect(r NaturalRect, f Frame) DisplayRect {
	sx, sy := f.Scale()
	return DisplayRect{
		X:      float64(r.X) / sx,
		Y:      float64(r.Y) / sy,
		Width:  float64(r.Width) / sx,
		Height: float64(r.Height) / sy,
	}
}

// ClampToImage shrinks r so that it lies within [0, width] x [0, height].
// Edges that overflow are pulled back to the boundary; the rectangle is never
// translated and its size never goes below zero.
func ClampToImage(r NaturalRect, width, height int) NaturalRect {
	x0 := clampInt(r.X, 0, width)
	y0 := clampInt(r.Y, 0, height)
	x1 := clampInt(r.X+r.Width, 0, width)
	y1 := clampInt(r.Y+r.Height, 0, height)
	return NaturalRect{X: x0, Y: y0, Width: maxInt(0, x1-x0), Height: maxInt(0, y1-y0)}
}

// ConstrainOrigin translates r so it fits inside [0, width] x [0, height]
// while keeping its size. A rectangle larger than the image is first clamped.
func ConstrainOrigin(r NaturalRect, width, height int) NaturalRect {
	if r.Width > width || r.Height > height || r.Width < 0 || r.Height < 0 {
		return ClampToImage(r, width, height)
	}
	r.X = clampInt(r.X, 0, width-r.Width)
	r.Y = clampInt(r.Y, 0, height-r.Height)
	return r
}

// Empty reports whether the rectangle has no area.
func (r NaturalRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bounds returns the corner form of r.
func (r NaturalRect) Bounds() Bounds {
	return Bounds{X1: r.X, Y1: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height}
}

// Rectangle returns r as an image.Rectangle anchored at the image origin.
func (r NaturalRect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Contains reports whether the natural point lies inside r.
func (r NaturalRect) Contains(p NaturalPoint) bool {
	return p.X >= float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// FromBounds converts corner form into a rectangle. Inverted corners produce a
// negative size, which callers treat as degenerate.
func FromBounds(b Bounds) NaturalRect {
	return NaturalRect{X: b.X1, Y: b.Y1, Width: b.X2 - b.X1, Height: b.Y2 - b.Y1}
}

// Empty reports whether the display rectangle has no area.
func (r DisplayRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r, edges included.
func (r DisplayRect) Contains(p DisplayPoint) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Translate returns r shifted by (dx, dy).
func (r DisplayRect) Translate(dx, dy float64) DisplayRect {
	r.X += dx
	r.Y += dy
	return r
}

// RectFromPoints builds the normalized rectangle spanned by two display points,
// whichever direction the drag went.
func RectFromPoints(a, b DisplayPoint) DisplayRect {
	return DisplayRect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// ClampDisplayPoint pins p onto the rendered surface of f.
func ClampDisplayPoint(p DisplayPoint, f Frame) DisplayPoint {
	return DisplayPoint{
		X: clampFloat(p.X, 0, f.DisplayWidth),
		Y: clampFloat(p.Y, 0, f.DisplayHeight),
	}
}

// ConstrainDisplayOrigin translates r to fit inside the rendered surface
// while keeping its size.
func ConstrainDisplayOrigin(r DisplayRect, f Frame) DisplayRect {
	r.X = clampFloat(r.X, 0, math.Max(0, f.DisplayWidth-r.Width))
	r.Y = clampFloat(r.Y, 0, math.Max(0, f.DisplayHeight-r.Height))
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
