package detection

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
	"github.com/ironsheep/region-editor-mcp/internal/geometry"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
)

// HTTPDetector calls a remote entity detection service. The request body is
// the raw source file. The response is either {"entities": [...]} or a bare
// entity array.
type HTTPDetector struct {
	url        string
	httpClient *http.Client
}

// NewHTTPDetector returns a detector posting to url.
func NewHTTPDetector(url string, timeout time.Duration) (*HTTPDetector, error) {
	if url == "" {
		return nil, fmt.Errorf("detection service URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDetector{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns "http".
func (d *HTTPDetector) Name() string {
	return "http"
}

// Detect sends the source bytes and decodes the flagged entities.
func (d *HTTPDetector) Detect(ctx context.Context, src *imaging.Source) ([]Entity, error) {
	if src == nil || len(src.Data) == 0 {
		return nil, fmt.Errorf("no source bytes to send")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", bake.ContentType(bake.NormalizeFormat(src.Format)))
	req.Header.Set("Accept", "application/json")
	if src.Name != "" {
		req.Header.Set("X-File-Name", src.Name)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseEntities(body)
}

// wireEntity is the service form of Entity. A missing score means the
// service flags the entity unconditionally.
type wireEntity struct {
	Text        string          `json:"text"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Score       *float64        `json:"score"`
	BoundingBox geometry.Bounds `json:"boundingBox"`
}

// parseEntities accepts both the wrapped and the bare array response form.
func parseEntities(body []byte) ([]Entity, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response from detection service")
	}

	var wire []wireEntity
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("failed to parse entities: %w", err)
		}
	} else {
		var wrapped struct {
			Entities []wireEntity `json:"entities"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse entities: %w", err)
		}
		wire = wrapped.Entities
	}

	entities := make([]Entity, 0, len(wire))
	for _, w := range wire {
		score := 1.0
		if w.Score != nil {
			score = *w.Score
		}
		entities = append(entities, Entity{
			Text:        w.Text,
			Type:        w.Type,
			Category:    w.Category,
			Score:       score,
			BoundingBox: w.BoundingBox,
		})
	}
	return entities, nil
}
