package imaging

import (
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
)

func TestCropPreview(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := CropPreview(img, geometry.NaturalRect{X: 0, Y: 0, Width: 50, Height: 50}, 0)
	if err != nil {
		t.Fatalf("CropPreview failed: %v", err)
	}

	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	cropped, err := png.Decode(strings.NewReader(string(decoded)))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	r, g, b, _ := cropped.At(25, 25).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("top-left quadrant should be red, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestCropPreview_Shrinks(t *testing.T) {
	img := createPatternImage(400, 200)

	result, err := CropPreview(img, geometry.NaturalRect{X: 0, Y: 0, Width: 400, Height: 200}, 100)
	if err != nil {
		t.Fatalf("CropPreview failed: %v", err)
	}
	if result.Width != 100 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", result.Width, result.Height)
	}
}

func TestCropPreview_Invalid(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name string
		r    geometry.NaturalRect
	}{
		{"empty", geometry.NaturalRect{X: 10, Y: 10, Width: 0, Height: 10}},
		{"negative origin", geometry.NaturalRect{X: -1, Y: 0, Width: 50, Height: 50}},
		{"too wide", geometry.NaturalRect{X: 60, Y: 0, Width: 50, Height: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropPreview(img, tt.r, 0); err == nil {
				t.Error("CropPreview should fail")
			}
		})
	}
}
