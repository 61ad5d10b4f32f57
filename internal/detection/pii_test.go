package detection

import (
	"testing"

	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/ocr"
)

// lineOf lays words out left to right on one text line at y.
func lineOf(y int, texts ...string) []ocr.Word {
	words := make([]ocr.Word, 0, len(texts))
	x := 10
	for _, s := range texts {
		w := len(s) * 8
		words = append(words, ocr.Word{
			Text:       s,
			Confidence: 0.9,
			Bounds:     geometry.Bounds{X1: x, Y1: y, X2: x + w, Y2: y + 14},
		})
		x += w + 6
	}
	return words
}

func TestFindPII_Patterns(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  string
		text  string
	}{
		{"email", []string{"contact", "jane.doe@example.com,"}, TypeEmail, "jane.doe@example.com,"},
		{"ssn", []string{"123-45-6789"}, TypeSSN, "123-45-6789"},
		{"slash date", []string{"seen", "03/14/2024"}, TypeDate, "03/14/2024"},
		{"iso date", []string{"2024-03-14"}, TypeDate, "2024-03-14"},
		{"phone split", []string{"call", "(555)", "123-4567", "today"}, TypePhone, "(555) 123-4567"},
		{"phone joined", []string{"555.123.4567"}, TypePhone, "555.123.4567"},
		{"record number", []string{"MRN-00123456"}, TypeID, "MRN-00123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPII(lineOf(100, tt.words...))
			if len(got) != 1 {
				t.Fatalf("expected 1 entity, got %d: %+v", len(got), got)
			}
			if got[0].Type != tt.want {
				t.Errorf("Type: got %s, want %s", got[0].Type, tt.want)
			}
			if got[0].Text != tt.text {
				t.Errorf("Text: got %q, want %q", got[0].Text, tt.text)
			}
			if got[0].Score != patternScore {
				t.Errorf("Score: got %v, want %v", got[0].Score, patternScore)
			}
		})
	}
}

func TestFindPII_Labels(t *testing.T) {
	words := lineOf(40, "Patient", "Name:", "John", "Q", "Smith", "DOB:", "01/02/1980")

	got := FindPII(words)
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %d: %+v", len(got), got)
	}

	// Patterns run first, so the date comes before the labelled name.
	if got[0].Type != TypeDate || got[0].Text != "01/02/1980" {
		t.Errorf("first entity: got %s %q", got[0].Type, got[0].Text)
	}
	if got[1].Type != TypeName || got[1].Text != "John Q Smith" {
		t.Errorf("second entity: got %s %q", got[1].Type, got[1].Text)
	}
	if got[1].Score != labelScore {
		t.Errorf("label score: got %v, want %v", got[1].Score, labelScore)
	}

	// The name box spans its three words.
	b := got[1].BoundingBox
	if b.X1 != words[2].Bounds.X1 || b.X2 != words[4].Bounds.X2 || b.Y1 != 40 || b.Y2 != 54 {
		t.Errorf("name bounds: got %+v", b)
	}
}

func TestFindPII_LabelsStayOnTheirLine(t *testing.T) {
	words := append(lineOf(10, "Address:"), lineOf(60, "unrelated", "words")...)

	if got := FindPII(words); len(got) != 0 {
		t.Errorf("label at end of line should flag nothing, got %+v", got)
	}
}

func TestFindPII_NoMatches(t *testing.T) {
	if got := FindPII(lineOf(0, "the", "quick", "brown", "fox")); len(got) != 0 {
		t.Errorf("expected no entities, got %+v", got)
	}
	if got := FindPII(nil); len(got) != 0 {
		t.Errorf("expected no entities for no words, got %+v", got)
	}
}

func TestGroupLines(t *testing.T) {
	words := []ocr.Word{
		{Text: "second", Bounds: geometry.Bounds{X1: 10, Y1: 50, X2: 60, Y2: 64}},
		{Text: "world", Bounds: geometry.Bounds{X1: 70, Y1: 12, X2: 110, Y2: 25}},
		{Text: "hello", Bounds: geometry.Bounds{X1: 10, Y1: 10, X2: 60, Y2: 24}},
		{Text: " ", Bounds: geometry.Bounds{X1: 0, Y1: 0, X2: 5, Y2: 5}},
	}

	lines := groupLines(words)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if joinText(lines[0]) != "hello world" {
		t.Errorf("first line: got %q", joinText(lines[0]))
	}
	if joinText(lines[1]) != "second" {
		t.Errorf("second line: got %q", joinText(lines[1]))
	}
}

func TestSameLine(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Bounds
		want bool
	}{
		{"aligned", geometry.Bounds{Y1: 0, Y2: 10}, geometry.Bounds{Y1: 0, Y2: 10}, true},
		{"half overlap", geometry.Bounds{Y1: 0, Y2: 10}, geometry.Bounds{Y1: 5, Y2: 15}, true},
		{"slight overlap", geometry.Bounds{Y1: 0, Y2: 10}, geometry.Bounds{Y1: 8, Y2: 18}, false},
		{"apart", geometry.Bounds{Y1: 0, Y2: 10}, geometry.Bounds{Y1: 20, Y2: 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameLine(tt.a, tt.b); got != tt.want {
				t.Errorf("sameLine: got %v, want %v", got, tt.want)
			}
		})
	}
}
