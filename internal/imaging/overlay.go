package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// OverlayOptions selects the colors and marks drawn over a preview.
type OverlayOptions struct {
	ActiveColor   string // outline of detected regions that will be redacted
	InactiveColor string // outline of detected regions toggled off
	CustomColor   string // outline and grips of user drawn regions
	LiveColor     string // outline of the gesture in progress
	Stroke        int
	HandleSize    int
	ShowLabels    bool
}

// DefaultOverlayOptions returns the standard overlay style.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		ActiveColor:   "#FF0000",
		InactiveColor: "#9E9E9E",
		CustomColor:   "#1E88E5",
		LiveColor:     "#FFC107",
		Stroke:        2,
		HandleSize:    6,
		ShowLabels:    true,
	}
}

// OverlayResult contains the preview with region outlines drawn on it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Regions     int    `json:"regions"`
}

// RenderOverlay draws every region, and the live gesture rectangle when
// non-nil, over the handle's preview. Regions are numbered in set order.
func RenderOverlay(h *DisplayHandle, regions []region.Region, live *geometry.NaturalRect, opts OverlayOptions) (*OverlayResult, error) {
	if h == nil || h.Preview == nil {
		return nil, fmt.Errorf("no display handle")
	}
	def := DefaultOverlayOptions()
	if opts.Stroke <= 0 {
		opts.Stroke = def.Stroke
	}
	if opts.HandleSize <= 0 {
		opts.HandleSize = def.HandleSize
	}

	active := colorOr(opts.ActiveColor, def.ActiveColor)
	inactive := colorOr(opts.InactiveColor, def.InactiveColor)
	custom := colorOr(opts.CustomColor, def.CustomColor)
	liveColor := colorOr(opts.LiveColor, def.LiveColor)

	bounds := h.Preview.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	frame := geometry.Frame{
		NaturalWidth:  h.NaturalWidth,
		NaturalHeight: h.NaturalHeight,
		DisplayWidth:  float64(width),
		DisplayHeight: float64(height),
	}

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), h.Preview, bounds.Min, draw.Src)

	for i, r := range regions {
		rect := previewRect(r.Rect, frame)
		switch {
		case r.Kind == region.KindCustom:
			strokeRect(result, rect, custom, opts.Stroke, false)
			drawHandles(result, rect, custom, opts.HandleSize)
		case r.Active:
			strokeRect(result, rect, active, opts.Stroke, false)
		default:
			strokeRect(result, rect, inactive, opts.Stroke, true)
		}
		if opts.ShowLabels {
			drawLabel(result, rect.Min.X+2, rect.Min.Y+2, strconv.Itoa(i+1),
				color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 180})
		}
	}

	if live != nil {
		strokeRect(result, previewRect(*live, frame), liveColor, opts.Stroke, true)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Regions:     len(regions),
	}, nil
}

func colorOr(hex, fallback string) color.NRGBA {
	if c, err := ParseColor(hex); err == nil {
		return c
	}
	c, _ := ParseColor(fallback)
	return c
}

// previewRect maps a natural rectangle onto the preview pixel grid.
func previewRect(r geometry.NaturalRect, f geometry.Frame) image.Rectangle {
	d := geometry.ToDisplayRect(r, f)
	return image.Rect(
		int(math.Round(d.X)), int(math.Round(d.Y)),
		int(math.Round(d.X+d.Width)), int(math.Round(d.Y+d.Height)),
	)
}

// strokeRect draws the outline of r inward, stroke pixels thick. Dashed
// outlines skip every other run of four pixels.
func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color, stroke int, dashed bool) {
	on := func(i int) bool { return !dashed || (i/4)%2 == 0 }

	for s := 0; s < stroke; s++ {
		top, bottom := r.Min.Y+s, r.Max.Y-1-s
		left, right := r.Min.X+s, r.Max.X-1-s
		if left > right || top > bottom {
			return
		}
		for x := left; x <= right; x++ {
			if on(x - r.Min.X) {
				setPixel(img, x, top, c)
				setPixel(img, x, bottom, c)
			}
		}
		for y := top; y <= bottom; y++ {
			if on(y - r.Min.Y) {
				setPixel(img, left, y, c)
				setPixel(img, right, y, c)
			}
		}
	}
}

// drawHandles marks the four corners of r with filled grips.
func drawHandles(img *image.RGBA, r image.Rectangle, c color.Color, size int) {
	half := size / 2
	corners := []image.Point{
		r.Min,
		{X: r.Max.X - 1, Y: r.Min.Y},
		{X: r.Min.X, Y: r.Max.Y - 1},
		{X: r.Max.X - 1, Y: r.Max.Y - 1},
	}
	for _, p := range corners {
		grip := image.Rect(p.X-half, p.Y-half, p.X-half+size, p.Y-half+size).Intersect(img.Bounds())
		draw.Draw(img, grip, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font for digits.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						setPixel(img, cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
