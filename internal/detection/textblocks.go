package detection

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
)

// TypeTextBlock is the entity type of an unread block of text.
const TypeTextBlock = "TEXT_BLOCK"

// edgeThreshold is the grayscale step between neighbours that counts as an edge.
const edgeThreshold = 30

// textWindows are the sliding window sizes, one per expected text height.
var textWindows = []struct{ w, h int }{
	{100, 30}, // Small text
	{150, 40}, // Medium text
	{200, 50}, // Large text
	{80, 25},  // Very small text
}

// TextBlockDetector flags areas that look like text without reading them.
// It catches handwriting and stamps that OCR cannot read, at the cost of
// also flagging printed text that is not personal data. Its entities are
// meant as suggestions the user can toggle off.
type TextBlockDetector struct {
	MinConfidence float64
}

// NewTextBlockDetector returns a detector keeping blocks at or above
// minConfidence.
func NewTextBlockDetector(minConfidence float64) *TextBlockDetector {
	return &TextBlockDetector{MinConfidence: minConfidence}
}

// Name returns "textblocks".
func (d *TextBlockDetector) Name() string {
	return "textblocks"
}

// Detect scans the source for text-like edge structure.
func (d *TextBlockDetector) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("no source image")
	}
	return FindTextBlocks(ctx, src.Image, d.MinConfidence)
}

// FindTextBlocks slides windows of typical text line sizes over the image and
// keeps those with a medium edge density and a mostly horizontal structure.
// Overlapping hits are merged into one block. Blocks are returned strongest
// first, in coordinates relative to img's top-left corner.
func FindTextBlocks(ctx context.Context, img image.Image, minConfidence float64) ([]Entity, error) {
	edges := edgeMap(effect.Grayscale(img))
	height := len(edges)
	if height == 0 {
		return []Entity{}, nil
	}
	width := len(edges[0])

	var candidates []Entity
	for _, ws := range textWindows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepX, stepY := ws.w/2, ws.h/2
		for y := 0; y+ws.h <= height; y += stepY {
			for x := 0; x+ws.w <= width; x += stepX {
				count := 0
				for wy := y; wy < y+ws.h; wy++ {
					for wx := x; wx < x+ws.w; wx++ {
						if edges[wy][wx] {
							count++
						}
					}
				}

				// Text sits between sparse background and dense texture.
				density := float64(count) / float64(ws.w*ws.h)
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, x, y, ws.w, ws.h) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}

				candidates = append(candidates, Entity{
					Type:        TypeTextBlock,
					Category:    "text",
					Score:       math.Round(confidence*1000) / 1000,
					BoundingBox: geometry.Bounds{X1: x, Y1: y, X2: x + ws.w, Y2: y + ws.h},
				})
			}
		}
	}

	blocks := mergeBlocks(candidates)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Score > blocks[j].Score
	})
	return blocks, nil
}

// edgeMap marks pixels whose right or lower neighbour differs by more than
// edgeThreshold. Border pixels are never edges.
func edgeMap(gray *image.Gray) [][]bool {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		row := gray.Pix[y*gray.Stride:]
		below := gray.Pix[(y+1)*gray.Stride:]
		for x := 1; x < width-1; x++ {
			c := int(row[x])
			if abs(c-int(row[x+1])) > edgeThreshold || abs(c-int(below[x])) > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// horizontalScore is the share of edge runs that are horizontal. Lines of
// text produce more horizontal runs than vertical ones.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontal, vertical := 0, 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] && !inRun {
				horizontal++
			}
			inRun = edges[row][col]
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] && !inRun {
				vertical++
			}
			inRun = edges[row][col]
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

// mergeBlocks folds each candidate into the first block it overlaps,
// keeping the higher score.
func mergeBlocks(candidates []Entity) []Entity {
	merged := make([]Entity, 0, len(candidates))
	for _, c := range candidates {
		folded := false
		for i := range merged {
			if boundsOverlap(c.BoundingBox, merged[i].BoundingBox) {
				merged[i].BoundingBox = unionBounds(c.BoundingBox, merged[i].BoundingBox)
				merged[i].Score = math.Max(c.Score, merged[i].Score)
				folded = true
				break
			}
		}
		if !folded {
			merged = append(merged, c)
		}
	}
	return merged
}

// boundsOverlap checks if two bounds share any area
func boundsOverlap(a, b geometry.Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
