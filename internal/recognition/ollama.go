package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
)

// DefaultOllamaURL is used when no server URL is configured.
const DefaultOllamaURL = "http://localhost:11434"

// maxVisionDim bounds the longer side of the image sent to the model.
const maxVisionDim = 1344

const prescriptionPrompt = `You are reading a cropped photo of a medication prescription.
Return ONLY a JSON object, no prose, in this exact shape:
{"text": "<all legible text, lines separated by \n>",
 "items": [{"name": "<drug name>", "strength": "<e.g. 500 mg>",
            "instructions": "<dosing instructions>", "quantity": "<count or empty>"}]}
Use empty strings for anything you cannot read. Do not guess drug names.`

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// OllamaRecognizer prompts a local vision model through the Ollama API.
type OllamaRecognizer struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllamaRecognizer returns a recognizer for model served at serverURL.
func NewOllamaRecognizer(serverURL, model string, timeout time.Duration) (*OllamaRecognizer, error) {
	if model == "" {
		return nil, fmt.Errorf("vision model name is required")
	}
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", serverURL)
	}

	// Drop any path such as /api/chat; the client adds its own.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &OllamaRecognizer{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: timeout,
	}, nil
}

// Name returns "ollama".
func (r *OllamaRecognizer) Name() string {
	return "ollama"
}

// Recognize downsizes the crop, sends it with the prescription prompt, and
// parses the model's JSON answer. A non-JSON answer is kept as plain text.
func (r *OllamaRecognizer) Recognize(ctx context.Context, crop *bake.Output) (*Result, error) {
	if crop == nil || len(crop.Data) == 0 {
		return nil, fmt.Errorf("no crop to recognize")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	imgBytes, err := visionImage(crop)
	if err != nil {
		return nil, err
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: r.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prescriptionPrompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
		Options: map[string]any{
			"temperature": 0,
		},
	}

	var responseContent string
	err = r.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}

	if strings.TrimSpace(responseContent) == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return parseModelResult(responseContent), nil
}

// visionImage re-encodes the crop as PNG, scaled down to fit maxVisionDim.
func visionImage(crop *bake.Output) ([]byte, error) {
	img, err := bake.Decode(crop)
	if err != nil {
		return nil, fmt.Errorf("failed to decode crop: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxVisionDim || b.Dy() > maxVisionDim {
		img = imaging.Fit(img, maxVisionDim, maxVisionDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

// parseModelResult reads the model's JSON. When the answer is not JSON the
// whole answer becomes the text and items are parsed from it.
func parseModelResult(raw string) *Result {
	cleaned := sanitizeModelJSON(raw)

	var result Result
	if strings.HasPrefix(cleaned, "{") {
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			if result.Items == nil {
				result.Items = ParseItems(result.Text)
			}
			result.Raw = raw
			return &result
		}
	}

	text := strings.TrimSpace(raw)
	return &Result{Text: text, Items: ParseItems(text), Raw: raw}
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
