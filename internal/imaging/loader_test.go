package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// createTestImage creates a simple test image file and returns its path.
// The caller is responsible for removing the file.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := createInMemoryImage(width, height, c)

	tmpFile, err := os.CreateTemp("", "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

func encodeAs(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown format %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecodeSource_Formats(t *testing.T) {
	img := createPatternImage(120, 80)

	for _, format := range []string{"png", "jpeg", "gif", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			data := encodeAs(t, img, format)
			src, err := DecodeSource(data, "scan."+format)
			if err != nil {
				t.Fatalf("DecodeSource failed: %v", err)
			}
			if src.Format != format {
				t.Errorf("Format: got %s, want %s", src.Format, format)
			}
			if src.NaturalWidth != 120 || src.NaturalHeight != 80 {
				t.Errorf("natural size: got %dx%d, want 120x80", src.NaturalWidth, src.NaturalHeight)
			}
			if !bytes.Equal(src.Data, data) {
				t.Error("original bytes not kept")
			}
		})
	}
}

func TestDecodeSource_Invalid(t *testing.T) {
	if _, err := DecodeSource(nil, "empty.png"); !errors.Is(err, ErrEmptySource) {
		t.Errorf("expected ErrEmptySource, got %v", err)
	}
	if _, err := DecodeSource([]byte("not an image"), "bad.png"); err == nil {
		t.Error("DecodeSource should fail for garbage bytes")
	}
}

func TestLoadSource(t *testing.T) {
	path := createTestImage(t, 64, 48, color.RGBA{255, 0, 0, 255})
	defer os.Remove(path)

	src, err := LoadSource(path)
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	info := src.Info()
	if info.Width != 64 || info.Height != 48 || info.Format != "png" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.SizeBytes == 0 {
		t.Error("SizeBytes should be set")
	}
}

func TestLoadSource_NonExistent(t *testing.T) {
	if _, err := LoadSource("/nonexistent/path/to/image.png"); err == nil {
		t.Error("LoadSource should fail for non-existent file")
	}
}

func testSource(t *testing.T, width, height int) *Source {
	t.Helper()
	src, err := DecodeSource(encodeAs(t, createPatternImage(width, height), "png"), "test.png")
	if err != nil {
		t.Fatalf("DecodeSource failed: %v", err)
	}
	return src
}

func TestHandleRegistry_AcquireScales(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim        int
		wantW, wantH  int
	}{
		{"landscape", 1000, 500, 250, 250, 125},
		{"portrait", 500, 2000, 500, 125, 500},
		{"already fits", 100, 80, 250, 100, 80},
		{"no limit", 300, 200, 0, 300, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewHandleRegistry()
			h, err := reg.Acquire(testSource(t, tt.width, tt.height), tt.maxDim)
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
			w, hh := h.Size()
			if w != tt.wantW || hh != tt.wantH {
				t.Errorf("preview size: got %dx%d, want %dx%d", w, hh, tt.wantW, tt.wantH)
			}
			if h.NaturalWidth != tt.width || h.NaturalHeight != tt.height {
				t.Errorf("natural size not kept: %dx%d", h.NaturalWidth, h.NaturalHeight)
			}
		})
	}
}

func TestHandleRegistry_ReleaseIdempotent(t *testing.T) {
	reg := NewHandleRegistry()
	h, err := reg.Acquire(testSource(t, 10, 10), 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, ok := reg.Get(h.ID); !ok {
		t.Fatal("acquired handle not found")
	}

	if !reg.Release(h.ID) {
		t.Error("first Release should report a release")
	}
	if reg.Release(h.ID) {
		t.Error("second Release should be a no-op")
	}
	if reg.Len() != 0 {
		t.Errorf("Len: got %d, want 0", reg.Len())
	}
}

func TestHandleRegistry_OpenCloseCycles(t *testing.T) {
	reg := NewHandleRegistry()
	src := testSource(t, 40, 40)

	for i := 0; i < 50; i++ {
		h, err := reg.Acquire(src, 20)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		reg.Release(h.ID)
	}
	if reg.Len() != 0 {
		t.Errorf("handles leaked: %d live", reg.Len())
	}
}

func TestHandleRegistry_Concurrent(t *testing.T) {
	reg := NewHandleRegistry()
	src := testSource(t, 40, 40)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := reg.Acquire(src, 16)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			reg.Get(h.ID)
			reg.Release(h.ID)
		}()
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Errorf("Len: got %d, want 0", reg.Len())
	}
}

func TestHandleRegistry_NilSource(t *testing.T) {
	if _, err := NewHandleRegistry().Acquire(nil, 10); err == nil {
		t.Error("Acquire should fail without a source")
	}
}
