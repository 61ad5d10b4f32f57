package detection

import (
	"context"
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
)

// TypeFace is the entity type of a detected face.
const TypeFace = "FACE"

// FaceOptions tunes the cascade run.
type FaceOptions struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64

	// IoUThreshold merges overlapping detections.
	IoUThreshold float64

	// MinQuality drops detections the cascade scores below it.
	MinQuality float32
}

// DefaultFaceOptions returns settings suited to ID photos on scanned pages.
func DefaultFaceOptions() FaceOptions {
	return FaceOptions{
		MinSize:      20,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5.0,
	}
}

// FaceDetector finds faces (photo IDs, badge photos) with a pigo cascade.
type FaceDetector struct {
	classifier *pigo.Pigo
	opts       FaceOptions
}

// NewFaceDetector unpacks the cascade file at modelPath.
func NewFaceDetector(modelPath string, opts FaceOptions) (*FaceDetector, error) {
	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read face cascade: %w", err)
	}
	return NewFaceDetectorFromData(data, opts)
}

// NewFaceDetectorFromData unpacks an in-memory cascade.
func NewFaceDetectorFromData(data []byte, opts FaceOptions) (*FaceDetector, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty face cascade")
	}
	p := pigo.NewPigo()
	classifier, err := p.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return &FaceDetector{classifier: classifier, opts: opts}, nil
}

// Name returns "faces".
func (d *FaceDetector) Name() string {
	return "faces"
}

// Detect runs the cascade over the grayscale source.
func (d *FaceDetector) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("no source image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := src.Image.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()

	maxSize := d.opts.MaxSize
	if maxSize <= 0 || maxSize > max(cols, rows) {
		maxSize = max(cols, rows)
	}

	params := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src.Image),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.opts.IoUThreshold)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.opts.MinQuality {
			continue
		}
		entities = append(entities, Entity{
			Type:        TypeFace,
			Category:    "biometric",
			Score:       faceScore(det.Q),
			BoundingBox: faceBounds(det.Col, det.Row, det.Scale, cols, rows),
		})
	}
	return entities, nil
}

// faceBounds converts a centre and side length into clipped corner form.
func faceBounds(col, row, scale, width, height int) geometry.Bounds {
	half := scale / 2
	r := geometry.ClampToImage(geometry.NaturalRect{
		X:      col - half,
		Y:      row - half,
		Width:  scale,
		Height: scale,
	}, width, height)
	return r.Bounds()
}

// faceScore maps cascade quality onto 0..1. Quality 5 is a borderline face
// scoring 0.5, and 10 or more is a certain one.
func faceScore(q float32) float64 {
	s := float64(q) / 10.0
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
