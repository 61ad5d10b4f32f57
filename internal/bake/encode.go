package bake

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// NormalizeFormat maps a format or extension name to one of the supported
// output formats, falling back to png.
func NormalizeFormat(format string) string {
	f := strings.TrimPrefix(strings.ToLower(format), ".")
	switch f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	if _, ok := contentTypes[f]; ok {
		return f
	}
	return "png"
}

// ContentType returns the MIME type for a format name.
func ContentType(format string) string {
	return contentTypes[NormalizeFormat(format)]
}

// Lossless reports whether baked pixels survive the encoder unchanged.
func Lossless(format string) bool {
	switch NormalizeFormat(format) {
	case "jpeg", "gif":
		return false
	default:
		return true
	}
}

func encode(img image.Image, format string, opts Options) (*Output, error) {
	format = NormalizeFormat(format)

	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		q := opts.JPEGQuality
		if q < 1 || q > 100 {
			q = jpeg.DefaultQuality
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: q})
	case "gif":
		err = gif.Encode(&buf, img, &gif.Options{
			NumColors: 256,
			Quantizer: fillQuantizer{fill: opaque(opts.Fill)},
			Drawer:    draw.Src,
		})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	default:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	b := img.Bounds()
	return &Output{
		Data:        buf.Bytes(),
		Format:      format,
		ContentType: contentTypes[format],
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// fillQuantizer builds a GIF palette whose first entry is the exact fill, so
// redacted pixels keep their color. The rest is Plan 9.
type fillQuantizer struct {
	fill color.NRGBA
}

func (q fillQuantizer) Quantize(p color.Palette, _ image.Image) color.Palette {
	p = append(p[:0], q.fill)
	for _, c := range palette.Plan9 {
		if len(p) == cap(p) {
			break
		}
		p = append(p, c)
	}
	return p
}

func decode(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch NormalizeFormat(format) {
	case "jpeg":
		return jpeg.Decode(r)
	case "gif":
		return gif.Decode(r)
	case "bmp":
		return bmp.Decode(r)
	case "tiff":
		return tiff.Decode(r)
	case "webp":
		return webp.Decode(r)
	default:
		return png.Decode(r)
	}
}
