package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/logging"
	"github.com/ironsheep/region-editor-mcp/internal/region"
)

// Entity is one flagged item returned by a detector. BoundingBox is in the
// source image's natural pixel space.
type Entity struct {
	Text        string          `json:"text"`
	Type        string          `json:"type"`
	Category    string          `json:"category,omitempty"`
	Score       float64         `json:"score"`
	BoundingBox geometry.Bounds `json:"boundingBox"`
}

// Detector finds entities that should be redacted in a source image.
type Detector interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Detect returns the flagged entities. It must honor ctx cancellation.
	Detect(ctx context.Context, src *imaging.Source) ([]Entity, error)
}

// Composite runs several detectors concurrently and merges their results.
// It never drops an entity; wrap heuristic members in MinScore to filter them.
type Composite struct {
	Detectors []Detector

	// Tolerant keeps the results of healthy members when one fails. When
	// false, any member failure fails the whole detection.
	Tolerant bool
}

// NewComposite returns a composite over detectors.
func NewComposite(detectors ...Detector) *Composite {
	return &Composite{Detectors: detectors}
}

// Name returns "composite".
func (c *Composite) Name() string {
	return "composite"
}

// Detect fans out to every member and returns the union of their entities,
// ordered top to bottom then left to right.
func (c *Composite) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	if len(c.Detectors) == 0 {
		return []Entity{}, nil
	}

	var (
		mu     sync.Mutex
		merged []Entity
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range c.Detectors {
		g.Go(func() error {
			entities, err := d.Detect(gctx, src)
			if err != nil {
				if c.Tolerant {
					logging.Printf("Detector %s failed: %v", d.Name(), err)
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("%s detector failed: %w", d.Name(), err)
			}
			logging.Debugf("Detector %s returned %d entities", d.Name(), len(entities))

			mu.Lock()
			merged = append(merged, entities...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failed == len(c.Detectors) {
		return nil, fmt.Errorf("all %d detectors failed", failed)
	}

	result := make([]Entity, 0, len(merged))
	result = append(result, merged...)

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].BoundingBox, result[j].BoundingBox
		if a.Y1 != b.Y1 {
			return a.Y1 < b.Y1
		}
		return a.X1 < b.X1
	})

	return result, nil
}

// ScoreFilter drops the entities of one detector that score below Min.
type ScoreFilter struct {
	Detector Detector
	Min      float64
}

// MinScore wraps d so that entities scoring below threshold are dropped. A
// threshold of zero or less returns d unchanged.
func MinScore(d Detector, threshold float64) Detector {
	if threshold <= 0 {
		return d
	}
	return &ScoreFilter{Detector: d, Min: threshold}
}

// Name returns the wrapped detector's name.
func (f *ScoreFilter) Name() string {
	return f.Detector.Name()
}

// Detect runs the wrapped detector and filters its result.
func (f *ScoreFilter) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	entities, err := f.Detector.Detect(ctx, src)
	if err != nil {
		return nil, err
	}
	kept := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Score < f.Min {
			logging.Debugf("Detector %s dropped %s at score %.2f", f.Name(), e.Type, e.Score)
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// ToSeeds maps each entity to one predefined region seed.
func ToSeeds(entities []Entity) []region.Seed {
	seeds := make([]region.Seed, 0, len(entities))
	for _, e := range entities {
		seeds = append(seeds, region.Seed{
			Rect:  geometry.FromBounds(e.BoundingBox),
			Label: e.Type,
			Score: e.Score,
		})
	}
	return seeds
}
