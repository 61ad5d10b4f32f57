// Package imaging decodes source images and renders what the editor shows.
//
// This package owns everything between the raw bytes of a selected file and
// the pixels a user drags on: decoding a Source once with its intrinsic size,
// managing the scaled display handles shown while a session is open, and
// drawing region outlines over a handle's preview.
//
// # Sources
//
// DecodeSource reads the image header first, so NaturalWidth and
// NaturalHeight are known before the full decode, then decodes the pixels.
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported. The original bytes are
// kept on the Source because the entity detection service wants the file as
// it was selected, not a re-encoding.
//
// # Display Handles
//
// A DisplayHandle is a downscaled preview of a Source, created when a session
// opens and released when it ends. HandleRegistry tracks every live handle.
// Release is idempotent, and Len reports how many handles are alive so
// repeated open and close cycles can be checked for leaks.
//
// HandleRegistry is safe for concurrent use by multiple goroutines.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. For
// rectangles, (x1,y1) is inclusive and (x2,y2) is exclusive. Overlays are drawn
// in preview pixels; region geometry is mapped into them through a
// geometry.Frame whose display size is the preview size.
//
// # Colors
//
// Colors are written as hex strings, "#RRGGBB" or "#RRGGBBAA". ParseColor and
// MatchesColor are backed by go-colorful, and color comparison is done in
// CIE Lab space.
package imaging
