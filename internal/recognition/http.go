package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
)

// HTTPRecognizer posts the crop bytes to a recognition service and expects
// {"text": "...", "items": [...]} back.
type HTTPRecognizer struct {
	url        string
	httpClient *http.Client
}

// NewHTTPRecognizer returns a recognizer posting to url.
func NewHTTPRecognizer(url string, timeout time.Duration) (*HTTPRecognizer, error) {
	if url == "" {
		return nil, fmt.Errorf("recognition service URL is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPRecognizer{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns "http".
func (r *HTTPRecognizer) Name() string {
	return "http"
}

// Recognize sends the crop and decodes the service's answer.
func (r *HTTPRecognizer) Recognize(ctx context.Context, crop *bake.Output) (*Result, error) {
	if crop == nil || len(crop.Data) == 0 {
		return nil, fmt.Errorf("no crop to recognize")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(crop.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", crop.ContentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognition service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse recognition result: %w", err)
	}
	if result.Items == nil {
		result.Items = ParseItems(result.Text)
	}
	result.Raw = string(body)
	return &result, nil
}
