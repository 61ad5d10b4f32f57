// Package bake flattens a committed region set into a new encoded image.
//
// Two entry points share one surface and one encoder:
//
//   - Redacted copies the whole source at natural resolution and overwrites
//     every active region with a flat, fully opaque fill. The fill uses
//     draw.Src, so no source pixel inside a region is blended into the result.
//   - Cropped copies only the pixels inside a single selection into a surface
//     sized exactly to it.
//
// Both are deterministic: the same source, region set and options always
// produce byte-identical output. Encoders never embed timestamps and use
// fixed compression settings.
//
// # Formats
//
// The output keeps the source format when an encoder exists for it:
//
//	png   image/png
//	jpeg  image/jpeg   (Options.JPEGQuality)
//	gif   image/gif    (nearest palette color, no dithering)
//	bmp   image/bmp
//	tiff  image/tiff   (deflate)
//	webp  image/webp   (lossless)
//
// Unknown formats fall back to PNG.
//
// # Verification
//
// VerifyRedaction decodes baked bytes and checks that each active region holds
// the fill color. Lossless formats must match exactly. JPEG and GIF are
// checked on an inset interior with a perceptual tolerance, since block
// artifacts and palette mapping touch the border pixels.
package bake
