package recognition

import (
	"context"
	"fmt"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
	"github.com/ironsheep/region-editor-mcp/internal/ocr"
)

// OCRRecognizer reads the crop locally with Tesseract.
type OCRRecognizer struct {
	engine *ocr.Engine
}

// NewOCRRecognizer returns a recognizer using engine.
func NewOCRRecognizer(engine *ocr.Engine) *OCRRecognizer {
	return &OCRRecognizer{engine: engine}
}

// Name returns "ocr".
func (r *OCRRecognizer) Name() string {
	return "ocr"
}

// Recognize runs OCR on the crop bytes and parses medication lines from the
// text.
func (r *OCRRecognizer) Recognize(ctx context.Context, crop *bake.Output) (*Result, error) {
	if crop == nil || len(crop.Data) == 0 {
		return nil, fmt.Errorf("no crop to recognize")
	}

	text, err := r.engine.RecognizeBytes(ctx, crop.Data)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return &Result{
		Text:  text.FullText,
		Items: ParseItems(text.FullText),
		Raw:   text.FullText,
	}, nil
}
