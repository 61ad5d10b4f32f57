package detection

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/ocr"
)

// Entity types reported by the OCR detector.
const (
	TypeEmail   = "EMAIL"
	TypeSSN     = "SSN"
	TypePhone   = "PHONE"
	TypeDate    = "DATE"
	TypeID      = "ID"
	TypeName    = "NAME"
	TypeAddress = "ADDRESS"
)

const (
	categoryPII = "pii"

	// Scores for the two rule kinds. A pattern match is certain about the
	// text it saw; a label only suggests what follows it.
	patternScore = 1.0
	labelScore   = 0.75

	// maxWindow is the longest run of words joined for pattern matching,
	// enough for "(555) 123-4567" or "+1 555 123 4567".
	maxWindow = 4

	// maxLabelFollow caps how many words a label flags after it.
	maxLabelFollow = 4
)

var piiPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{TypeEmail, regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)},
	{TypeSSN, regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)},
	{TypeDate, regexp.MustCompile(`^(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|\d{4}-\d{2}-\d{2})$`)},
	{TypePhone, regexp.MustCompile(`^(\+?1[ .-]?)?(\(\d{3}\)|\d{3})[ .-]?\d{3}[ .-]?\d{4}$`)},
	{TypeID, regexp.MustCompile(`^[A-Z]{0,3}-?\d{6,}$`)},
}

// labels maps a normalized label word to the type of the words that follow it.
var labels = map[string]string{
	"name":    TypeName,
	"patient": TypeName,
	"dob":     TypeDate,
	"born":    TypeDate,
	"mrn":     TypeID,
	"id":      TypeID,
	"ssn":     TypeSSN,
	"phone":   TypePhone,
	"tel":     TypePhone,
	"mobile":  TypePhone,
	"address": TypeAddress,
	"addr":    TypeAddress,
}

// OCRDetector reads the source with Tesseract and flags personal data by
// pattern and by label.
type OCRDetector struct {
	engine *ocr.Engine
}

// NewOCRDetector returns a detector using engine.
func NewOCRDetector(engine *ocr.Engine) *OCRDetector {
	return &OCRDetector{engine: engine}
}

// Name returns "ocr".
func (d *OCRDetector) Name() string {
	return "ocr"
}

// Detect runs OCR over the full natural-resolution image.
func (d *OCRDetector) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("no source image")
	}
	result, err := d.engine.Recognize(ctx, src.Image)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return FindPII(result.Words), nil
}

// FindPII groups words into text lines and flags personal data in each.
//
// Two rules apply per line. Runs of up to four adjacent words are matched
// against email, SSN, date, phone and ID patterns, longest run first. Then
// each label word ("Name:", "DOB", "MRN", ...) flags the unflagged words that
// follow it on the same line, stopping at the next label.
func FindPII(words []ocr.Word) []Entity {
	entities := make([]Entity, 0)
	for _, line := range groupLines(words) {
		flagged := make([]bool, len(line))
		entities = append(entities, matchPatterns(line, flagged)...)
		entities = append(entities, matchLabels(line, flagged)...)
	}
	return entities
}

func matchPatterns(line []ocr.Word, flagged []bool) []Entity {
	var found []Entity
	for i := 0; i < len(line); {
		n, kind := 0, ""
		for size := min(maxWindow, len(line)-i); size >= 1 && n == 0; size-- {
			text := strings.TrimRight(joinText(line[i:i+size]), ",;:")
			for _, p := range piiPatterns {
				if p.re.MatchString(text) {
					n, kind = size, p.kind
					break
				}
			}
		}
		if n == 0 {
			i++
			continue
		}
		found = append(found, newEntity(line[i:i+n], kind, patternScore))
		for j := i; j < i+n; j++ {
			flagged[j] = true
		}
		i += n
	}
	return found
}

func matchLabels(line []ocr.Word, flagged []bool) []Entity {
	var found []Entity
	for i := 0; i < len(line); i++ {
		kind, ok := labels[normalizeLabel(line[i].Text)]
		if !ok {
			continue
		}
		end := i + 1
		for end < len(line) && end-i-1 < maxLabelFollow && !flagged[end] {
			if _, isLabel := labels[normalizeLabel(line[end].Text)]; isLabel {
				break
			}
			end++
		}
		if end == i+1 {
			continue
		}
		found = append(found, newEntity(line[i+1:end], kind, labelScore))
		for j := i + 1; j < end; j++ {
			flagged[j] = true
		}
		i = end - 1
	}
	return found
}

// groupLines clusters words whose vertical extents overlap by at least half
// the shorter height, each line ordered left to right.
func groupLines(words []ocr.Word) [][]ocr.Word {
	sorted := make([]ocr.Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Bounds.Y1 != sorted[j].Bounds.Y1 {
			return sorted[i].Bounds.Y1 < sorted[j].Bounds.Y1
		}
		return sorted[i].Bounds.X1 < sorted[j].Bounds.X1
	})

	var lines [][]ocr.Word
	for _, w := range sorted {
		placed := false
		for li := range lines {
			if sameLine(lines[li][0].Bounds, w.Bounds) {
				lines[li] = append(lines[li], w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []ocr.Word{w})
		}
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].Bounds.X1 < line[j].Bounds.X1
		})
	}
	return lines
}

func sameLine(a, b geometry.Bounds) bool {
	overlap := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	shorter := min(a.Y2-a.Y1, b.Y2-b.Y1)
	return overlap > 0 && overlap*2 >= shorter
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Trim(s, ":#.,()"))
}

func joinText(words []ocr.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func newEntity(words []ocr.Word, kind string, score float64) Entity {
	b := words[0].Bounds
	for _, w := range words[1:] {
		b = unionBounds(b, w.Bounds)
	}
	return Entity{
		Text:        joinText(words),
		Type:        kind,
		Category:    categoryPII,
		Score:       score,
		BoundingBox: b,
	}
}

// unionBounds combines two bounds into their union
func unionBounds(a, b geometry.Bounds) geometry.Bounds {
	return geometry.Bounds{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}
