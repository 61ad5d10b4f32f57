package bake

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

const (
	// lossyInset skips the border pixels of a region that JPEG blocks and
	// chroma subsampling blur into their neighbours.
	lossyInset = 8

	// lossyTolerance is the largest accepted Lab distance from the fill, as
	// measured by imaging.MatchesColor.
	lossyTolerance = 0.08
)

// VerifyRedaction decodes out and checks that every active region of set
// holds the fill color.
func VerifyRedaction(out *Output, set region.Set, fill color.Color) error {
	img, err := decode(out.Data, out.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	want := opaque(fill)
	lossless := Lossless(out.Format)

	for _, r := range set.Active() {
		rect := r.Rect.Rectangle().Add(img.Bounds().Min).Intersect(img.Bounds())
		if !lossless {
			rect = rect.Inset(lossyInset)
		}
		if rect.Empty() {
			continue
		}

		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if lossless {
					if got != want {
						return fmt.Errorf("%w: region %s pixel (%d,%d) is %v, want %v",
							ErrRedactionLeak, r.ID, x, y, got, want)
					}
					continue
				}
				if !imaging.MatchesColor(got, want, lossyTolerance) {
					return fmt.Errorf("%w: region %s pixel (%d,%d) is %v, not within %.2f of %v",
						ErrRedactionLeak, r.ID, x, y, got, lossyTolerance, want)
				}
			}
		}
	}
	return nil
}

// Decode reads baked bytes back into an image.
func Decode(out *Output) (image.Image, error) {
	img, err := decode(out.Data, out.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return img, nil
}
