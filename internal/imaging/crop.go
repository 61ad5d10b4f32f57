package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropPreview extracts r from img and shrinks it to fit maxDim, for showing
// what a crop selection currently holds. The result is a preview only; the
// baked crop is always produced at natural resolution.
func CropPreview(img image.Image, r geometry.NaturalRect, maxDim int) (*CropResult, error) {
	bounds := img.Bounds()
	rect := r.Rectangle().Add(bounds.Min)

	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: width and height must be positive")
	}
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}

	cropped := imaging.Crop(img, rect)
	if maxDim > 0 && (r.Width > maxDim || r.Height > maxDim) {
		cropped = imaging.Fit(cropped, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
