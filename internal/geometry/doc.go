// Package geometry converts rectangles and points between the two coordinate
// spaces used by the region editor.
//
// # Coordinate Spaces
//
// Display space is the layout-pixel grid of the rendered image element the user
// sees and drags on. Values are float64 because layout sizes are fractional.
//
// Natural space is the intrinsic pixel grid of the decoded image. Committed
// regions always live here, as whole pixels.
//
// Both spaces put (0,0) at the top-left corner, with X increasing rightward and
// Y increasing downward. For rectangles, (X, Y) is the inclusive top-left corner
// and (X+Width, Y+Height) is the exclusive bottom-right corner.
//
// The two spaces use distinct types (DisplayPoint, DisplayRect, NaturalPoint,
// NaturalRect). A value moves between them only through ToNatural* and
// ToDisplay*, which take the current Frame.
//
// # Frames
//
// A Frame pairs the image's intrinsic size with the element's current rendered
// size. Scale factors are derived from it on every call and never cached, so a
// layout change takes effect on the next conversion. A frame whose display width
// or height is not positive is not ready: conversions fall back to the identity
// mapping and callers must refuse gestures until the frame is ready.
//
// # Clamping
//
// ClampToImage shrinks a rectangle into [0, width] x [0, height]. It never
// translates and never returns a negative size; a zero width or height marks the
// result as degenerate. ConstrainOrigin is the translating counterpart used when
// a region is moved as a whole.
package geometry
