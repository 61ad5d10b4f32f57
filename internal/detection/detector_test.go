package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// fakeDetector returns fixed entities or a fixed error.
type fakeDetector struct {
	name     string
	entities []Entity
	err      error
	delay    time.Duration
}

func (f *fakeDetector) Name() string { return f.name }

func (f *fakeDetector) Detect(ctx context.Context, _ *imaging.Source) ([]Entity, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.entities, f.err
}

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func testSource(img image.Image) *imaging.Source {
	b := img.Bounds()
	return &imaging.Source{
		Name:          "page.png",
		Format:        "png",
		NaturalWidth:  b.Dx(),
		NaturalHeight: b.Dy(),
		Image:         img,
		Data:          []byte("png-bytes"),
	}
}

func entity(kind string, score float64, x1, y1, x2, y2 int) Entity {
	return Entity{Type: kind, Score: score, BoundingBox: geometry.Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

func TestComposite_MergesAndFilters(t *testing.T) {
	a := &fakeDetector{name: "a", entities: []Entity{
		entity(TypeName, 0.9, 50, 200, 150, 220),
		entity(TypeDate, 0.3, 10, 10, 40, 20),
	}}
	b := &fakeDetector{name: "b", entities: []Entity{
		entity(TypeFace, 0.8, 300, 40, 380, 120),
		entity(TypeEmail, 1.0, 10, 200, 40, 220),
	}}

	got, err := NewComposite(MinScore(a, 0.5), b).Detect(context.Background(), testSource(createTestImage(400, 300, color.White)))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, TypeFace, got[0].Type)
	assert.Equal(t, TypeEmail, got[1].Type)
	assert.Equal(t, TypeName, got[2].Type)
}

func TestComposite_KeepsLowScores(t *testing.T) {
	service := &fakeDetector{name: "http", entities: []Entity{
		entity(TypeName, 0.42, 100, 100, 300, 150),
	}}

	got, err := NewComposite(service).Detect(context.Background(), testSource(createTestImage(400, 300, color.White)))
	require.NoError(t, err)
	require.Len(t, got, 1)

	set, skipped := region.NewSet(400, 300).Seed(ToSeeds(got))
	assert.Zero(t, skipped)
	active := set.Active()
	require.Len(t, active, 1)
	assert.Equal(t, geometry.NaturalRect{X: 100, Y: 100, Width: 200, Height: 50}, active[0].Rect)
	assert.Equal(t, region.KindPredefined, active[0].Kind)
	assert.Equal(t, 0.42, active[0].Score)
}

func TestMinScore(t *testing.T) {
	inner := &fakeDetector{name: "faces", entities: []Entity{
		entity(TypeFace, 0.49, 0, 0, 10, 10),
		entity(TypeFace, 0.5, 20, 0, 30, 10),
	}}
	src := testSource(createTestImage(40, 40, color.White))

	assert.Same(t, Detector(inner), MinScore(inner, 0))

	f := MinScore(inner, 0.5)
	assert.Equal(t, "faces", f.Name())
	got, err := f.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Score)
	assert.Len(t, inner.entities, 2)

	boom := errors.New("cascade missing")
	_, err = MinScore(&fakeDetector{name: "bad", err: boom}, 0.5).Detect(context.Background(), src)
	assert.ErrorIs(t, err, boom)
}

func TestComposite_Failure(t *testing.T) {
	src := testSource(createTestImage(10, 10, color.White))
	boom := errors.New("service down")

	t.Run("strict", func(t *testing.T) {
		c := NewComposite(&fakeDetector{name: "ok"}, &fakeDetector{name: "bad", err: boom})
		_, err := c.Detect(context.Background(), src)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("tolerant keeps healthy members", func(t *testing.T) {
		c := NewComposite(
			&fakeDetector{name: "ok", entities: []Entity{entity(TypeID, 1, 0, 0, 5, 5)}},
			&fakeDetector{name: "bad", err: boom},
		)
		c.Tolerant = true
		got, err := c.Detect(context.Background(), src)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("tolerant with every member failing", func(t *testing.T) {
		c := NewComposite(&fakeDetector{name: "bad", err: boom})
		c.Tolerant = true
		_, err := c.Detect(context.Background(), src)
		assert.Error(t, err)
	})
}

func TestComposite_Empty(t *testing.T) {
	got, err := NewComposite().Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestComposite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewComposite(&fakeDetector{name: "slow", delay: time.Second})
	_, err := c.Detect(ctx, testSource(createTestImage(10, 10, color.White)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToSeeds(t *testing.T) {
	entities := []Entity{
		entity(TypeName, 0.9, 100, 100, 300, 150),
		entity(TypeFace, 0.7, 0, 0, 20, 30),
	}

	seeds := ToSeeds(entities)
	require.Len(t, seeds, 2)
	assert.Equal(t, geometry.NaturalRect{X: 100, Y: 100, Width: 200, Height: 50}, seeds[0].Rect)
	assert.Equal(t, TypeName, seeds[0].Label)
	assert.Equal(t, 0.9, seeds[0].Score)

	set, skipped := region.NewSet(1000, 1000).Seed(seeds)
	assert.Zero(t, skipped)
	assert.Len(t, set.Active(), 2)
}
