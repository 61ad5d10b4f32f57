package detection

import (
	"path/filepath"
	"testing"
)

func TestNewFaceDetector_MissingModel(t *testing.T) {
	_, err := NewFaceDetector(filepath.Join(t.TempDir(), "facefinder"), DefaultFaceOptions())
	if err == nil {
		t.Error("NewFaceDetector should fail for a missing cascade file")
	}
}

func TestNewFaceDetectorFromData_Empty(t *testing.T) {
	if _, err := NewFaceDetectorFromData(nil, DefaultFaceOptions()); err == nil {
		t.Error("NewFaceDetectorFromData should fail for empty data")
	}
}

func TestFaceBounds(t *testing.T) {
	tests := []struct {
		name                  string
		col, row, scale, w, h int
		want                  [4]int
	}{
		{"centred", 100, 100, 40, 400, 400, [4]int{80, 80, 120, 120}},
		{"clipped top-left", 10, 5, 40, 400, 400, [4]int{0, 0, 30, 25}},
		{"clipped bottom-right", 390, 395, 40, 400, 400, [4]int{370, 375, 400, 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := faceBounds(tt.col, tt.row, tt.scale, tt.w, tt.h)
			got := [4]int{b.X1, b.Y1, b.X2, b.Y2}
			if got != tt.want {
				t.Errorf("faceBounds: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFaceScore(t *testing.T) {
	tests := []struct {
		q    float32
		want float64
	}{
		{-1, 0},
		{5, 0.5},
		{10, 1},
		{42, 1},
	}

	for _, tt := range tests {
		if got := faceScore(tt.q); got != tt.want {
			t.Errorf("faceScore(%v): got %v, want %v", tt.q, got, tt.want)
		}
	}
}
