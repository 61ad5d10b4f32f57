// Package recognition reads a cropped prescription image into structured
// items.
//
// Three backends implement Recognizer: HTTPRecognizer posts the crop to a
// recognition service, OllamaRecognizer prompts a local vision model, and
// OCRRecognizer reads the text with Tesseract and picks medication lines out
// of it.
package recognition

import (
	"context"
	"regexp"
	"strings"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
)

// Item is one recognized medication line.
type Item struct {
	Name         string `json:"name"`
	Strength     string `json:"strength,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
}

// Result is what a recognizer read from the crop.
type Result struct {
	// Text is the plain text of the crop, when the backend reports it.
	Text string `json:"text"`

	Items []Item `json:"items"`

	// Raw is the backend's unparsed response.
	Raw string `json:"raw,omitempty"`
}

// Recognizer reads a baked crop.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, crop *bake.Output) (*Result, error)
}

var (
	medicationLine = regexp.MustCompile(`(?i)^([a-z][a-z\-/ ]*?[a-z])\s+(\d+(?:\.\d+)?\s?(?:mg|mcg|g|ml|iu|units?|%))(?:[\s,;:-]+(.*))?$`)
	quantityPart   = regexp.MustCompile(`(?i)(?:\b(?:qty|quantity|disp(?:ense)?)[:.\s]*#?|#)\s*(\d+)\b`)
)

// ParseItems picks medication lines out of free text. A line qualifies when
// it starts with a drug name followed by a strength such as "500 mg". The
// rest of the line becomes the instructions, minus any quantity marker.
func ParseItems(text string) []Item {
	items := make([]Item, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		m := medicationLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		item := Item{
			Name:     strings.TrimSpace(m[1]),
			Strength: strings.Join(strings.Fields(m[2]), " "),
		}

		rest := m[3]
		if q := quantityPart.FindStringSubmatchIndex(rest); q != nil {
			item.Quantity = rest[q[2]:q[3]]
			rest = rest[:q[0]] + rest[q[1]:]
		}
		item.Instructions = strings.Join(strings.Fields(strings.Trim(rest, " ,;:-")), " ")

		items = append(items, item)
	}
	return items
}
