package bake

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/region-editor-mcp/internal/region"
)

var (
	// ErrInvalidSelection is returned when a crop is requested without exactly
	// one non-empty, in-bounds selection.
	ErrInvalidSelection = errors.New("invalid crop selection")

	// ErrRedactionLeak is returned when a baked region does not hold the fill.
	ErrRedactionLeak = errors.New("redaction leak")

	// ErrUnsupportedFormat is returned when baked bytes cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Options controls the fill and the encoder.
type Options struct {
	// Fill is painted over redacted regions. Its alpha is forced to opaque.
	Fill color.Color

	// JPEGQuality is used when the output is JPEG, 1-100.
	JPEGQuality int
}

// DefaultOptions returns black fill and JPEG quality 92.
func DefaultOptions() Options {
	return Options{Fill: color.Black, JPEGQuality: 92}
}

// Output is one baked image. It is produced once per confirmed session and
// handed straight to the upload or recognition collaborator.
type Output struct {
	Data        []byte `json:"-"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Redacted returns src with every active region of set overwritten by the
// fill color. An empty active set yields an unmodified copy.
func Redacted(src image.Image, format string, set region.Set, opts Options) (*Output, error) {
	surface := imaging.Clone(src)
	fill := &image.Uniform{C: opaque(opts.Fill)}

	for _, r := range set.Active() {
		rect := r.Rect.Rectangle().Intersect(surface.Bounds())
		if rect.Empty() {
			continue
		}
		draw.Draw(surface, rect, fill, image.Point{}, draw.Src)
	}

	return encode(surface, format, opts)
}

// Cropped returns the pixels inside the single member of sel. The output is
// exactly as large as the selection.
func Cropped(src image.Image, format string, sel region.Set, opts Options) (*Output, error) {
	r, err := sel.Selected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	b := src.Bounds()
	rect := r.Rect.Rectangle().Add(b.Min)
	if !rect.In(b) {
		return nil, fmt.Errorf("%w: %v outside image bounds %v", ErrInvalidSelection, rect, b)
	}

	cropped := imaging.Crop(src, rect)
	if cropped.Bounds().Dx() != r.Rect.Width || cropped.Bounds().Dy() != r.Rect.Height {
		return nil, fmt.Errorf("%w: cropped to %v, want %dx%d", ErrInvalidSelection,
			cropped.Bounds().Size(), r.Rect.Width, r.Rect.Height)
	}

	return encode(cropped, format, opts)
}

func opaque(c color.Color) color.NRGBA {
	if c == nil {
		c = color.Black
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}
