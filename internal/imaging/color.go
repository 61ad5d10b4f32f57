package imaging

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a hex color string like "#FF0000" or "#FF000080".
//
// The six-digit form is opaque. The eight-digit form carries alpha in the
// last two digits. The leading '#' is optional.
func ParseColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	alpha := uint8(0xff)
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in color %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// MatchesColor reports whether a and b are within tolerance of each other in
// CIE Lab space. A tolerance of 0 demands equal RGB values. Fully transparent
// colors only match each other.
func MatchesColor(a, b color.Color, tolerance float64) bool {
	ca, okA := colorful.MakeColor(a)
	cb, okB := colorful.MakeColor(b)
	if !okA || !okB {
		return okA == okB
	}
	if tolerance <= 0 {
		ar, ag, ab := ca.RGB255()
		br, bg, bb := cb.RGB255()
		return ar == br && ag == bg && ab == bb
	}
	return ca.DistanceLab(cb) <= tolerance
}
