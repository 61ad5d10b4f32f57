package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptySource is returned when a file holds no bytes.
var ErrEmptySource = errors.New("empty image source")

// Source is an immutable, decoded image selected for editing.
type Source struct {
	// Name is the file name the bytes were selected under.
	Name string

	// Format is the decoder name: "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string

	// NaturalWidth and NaturalHeight are the intrinsic pixel dimensions,
	// read once from the image header.
	NaturalWidth  int
	NaturalHeight int

	// Image is the decoded pixel data.
	Image image.Image

	// Data holds the original file bytes.
	Data []byte
}

// DecodeSource decodes data into a Source.
//
// Parameters:
//   - data: The raw file bytes. Must not be empty.
//   - name: The file name, kept for uploads and logs.
//
// Returns:
//   - *Source: The decoded source.
//   - error: Non-nil if the header or pixel data cannot be decoded, or if the
//     decoded size disagrees with the header.
func DecodeSource(data []byte, name string) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptySource
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		return nil, fmt.Errorf("decoded size %dx%d does not match header %dx%d", b.Dx(), b.Dy(), cfg.Width, cfg.Height)
	}

	return &Source{
		Name:          name,
		Format:        format,
		NaturalWidth:  cfg.Width,
		NaturalHeight: cfg.Height,
		Image:         img,
		Data:          data,
	}, nil
}

// LoadSource reads and decodes the file at path.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return DecodeSource(data, filepath.Base(path))
}

// SourceInfo contains metadata about a source image.
type SourceInfo struct {
	// Name is the file name of the source.
	Name string `json:"name"`

	// Width is the natural image width in pixels.
	Width int `json:"width"`

	// Height is the natural image height in pixels.
	Height int `json:"height"`

	// Format is the decoded image format.
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the original file in bytes.
	SizeBytes int `json:"size_bytes"`
}

// Info returns metadata about the source.
func (s *Source) Info() SourceInfo {
	hasAlpha := false
	switch s.Image.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}
	return SourceInfo{
		Name:      s.Name,
		Width:     s.NaturalWidth,
		Height:    s.NaturalHeight,
		Format:    s.Format,
		HasAlpha:  hasAlpha,
		SizeBytes: len(s.Data),
	}
}

// DisplayHandle is the scaled preview of a Source shown during a session.
type DisplayHandle struct {
	// ID identifies the handle in its registry.
	ID string

	// Preview is the image the user sees, at most maxDim pixels on its
	// longer side.
	Preview image.Image

	// NaturalWidth and NaturalHeight repeat the source dimensions.
	NaturalWidth  int
	NaturalHeight int
}

// Size returns the preview dimensions.
func (h *DisplayHandle) Size() (width, height int) {
	b := h.Preview.Bounds()
	return b.Dx(), b.Dy()
}

// HandleRegistry tracks the display handles of open sessions.
//
// Every handle created by Acquire stays registered until Release is called
// with its id. A session acquires one handle when it opens and releases it on
// every exit path, so Len returns to zero once all sessions have ended.
//
// HandleRegistry is safe for concurrent use by multiple goroutines.
type HandleRegistry struct {
	mu      sync.RWMutex
	handles map[string]*DisplayHandle
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		handles: make(map[string]*DisplayHandle),
	}
}

// Acquire renders a preview of src and registers it.
//
// Parameters:
//   - src: The source to preview. Must not be nil.
//   - maxDim: Longest preview side in pixels. Sources that already fit, and
//     any maxDim <= 0, are shown at natural size.
func (r *HandleRegistry) Acquire(src *Source, maxDim int) (*DisplayHandle, error) {
	if src == nil || src.Image == nil {
		return nil, errors.New("no source to display")
	}

	w, h := previewSize(src.NaturalWidth, src.NaturalHeight, maxDim)
	var preview image.Image = src.Image
	if w != src.NaturalWidth || h != src.NaturalHeight {
		preview = transform.Resize(src.Image, w, h, transform.Linear)
	}

	handle := &DisplayHandle{
		ID:            uuid.NewString(),
		Preview:       preview,
		NaturalWidth:  src.NaturalWidth,
		NaturalHeight: src.NaturalHeight,
	}

	r.mu.Lock()
	r.handles[handle.ID] = handle
	r.mu.Unlock()

	return handle, nil
}

// Get returns a live handle by id.
func (r *HandleRegistry) Get(id string) (*DisplayHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Release frees the handle with the given id. It reports whether a live
// handle was released; releasing an unknown or already released id does
// nothing.
func (r *HandleRegistry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[id]; !ok {
		return false
	}
	delete(r.handles, id)
	return true
}

// Len returns the number of live handles.
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// previewSize fits width x height into a maxDim square, keeping the aspect
// ratio and never upscaling.
func previewSize(width, height, maxDim int) (int, int) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height
	}
	if width >= height {
		h := height * maxDim / width
		if h < 1 {
			h = 1
		}
		return maxDim, h
	}
	w := width * maxDim / height
	if w < 1 {
		w = 1
	}
	return w, maxDim
}
