package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// pointSchema describes a pointer position in display pixels.
func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{
				"type":        "number",
				"description": "Pointer X in display pixels, relative to the image element's left edge",
			},
			"y": map[string]interface{}{
				"type":        "number",
				"description": "Pointer Y in display pixels, relative to the image element's top edge",
			},
		},
		"required": []string{"x", "y"},
	}
}

func regionIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Region id as returned by regions_list",
			},
		},
		"required": []string{"id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sessions
		{
			Name:        "redact_open",
			Description: "Open a document for redaction. Sensitive regions are detected in the background; the session moves to 'editing' when detection finishes. Any previous session is cancelled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"subject_id": map[string]interface{}{
						"type":        "string",
						"description": "Record the redacted document is filed under",
					},
					"document_id": map[string]interface{}{
						"type":        "string",
						"description": "Optional document id. Generated when omitted",
					},
				},
				"required": []string{"path", "subject_id"},
			},
		},
		{
			Name:        "crop_open",
			Description: "Open a photographed prescription for cropping. The session starts in 'editing' with no selection. Any previous session is cancelled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "session_status",
			Description: "Get the active session's state, regions, frame, errors and results.",
			InputSchema: noArgs(),
		},
		{
			Name:        "session_wait",
			Description: "Wait until no detection, bake, upload or recognition call is in flight, then return the status.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"timeout_seconds": map[string]interface{}{
						"type":        "number",
						"description": "Maximum time to wait. Default 30",
						"default":     30,
					},
				},
			},
		},
		{
			Name:        "session_confirm",
			Description: "Bake the edits into a new image and send it: redact sessions upload the masked document, crop sessions send the selection for recognition. Also retries a failed send with the same regions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Block until the upload or recognition finishes. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "session_resume",
			Description: "Return a session whose upload or recognition failed to editing, keeping its regions.",
			InputSchema: noArgs(),
		},
		{
			Name:        "session_cancel",
			Description: "Cancel the active session and release its image. A call in flight is not aborted; its result is discarded.",
			InputSchema: noArgs(),
		},
		{
			Name:        "session_preview",
			Description: "Render the display preview with region outlines, or the current crop selection, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"overlay", "crop"},
						"description": "What to render. Default overlay",
						"default":     "overlay",
					},
					"max_dim": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of a crop preview. Default 512",
						"default":     512,
					},
				},
			},
		},

		// Pointer input
		{
			Name:        "frame_set",
			Description: "Report the rendered size of the image element. Pointer coordinates are interpreted against this size; call it again after every resize.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "number",
						"description": "Displayed width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "number",
						"description": "Displayed height in pixels",
					},
				},
				"required": []string{"width", "height"},
			},
		},
		{
			Name:        "pointer_down",
			Description: "Press at a display point. On a custom region's handle this starts a resize, on its body a move, anywhere else a new rectangle.",
			InputSchema: pointSchema(),
		},
		{
			Name:        "pointer_move",
			Description: "Move the pointer during a gesture and get the live rectangle in display pixels.",
			InputSchema: pointSchema(),
		},
		{
			Name:        "pointer_up",
			Description: "Release the pointer and commit the gesture. Rectangles smaller than the minimum draw size are discarded.",
			InputSchema: pointSchema(),
		},
		{
			Name:        "pointer_leave",
			Description: "The pointer left the image element; commit the gesture at its last position.",
			InputSchema: noArgs(),
		},

		// Regions
		{
			Name:        "regions_list",
			Description: "List the committed regions in natural pixels, with their display rectangles in the current frame.",
			InputSchema: noArgs(),
		},
		{
			Name:        "region_toggle",
			Description: "Switch a detected region on or off. Inactive regions are not masked.",
			InputSchema: regionIDSchema(),
		},
		{
			Name:        "region_delete",
			Description: "Delete a custom region. Detected regions can only be toggled.",
			InputSchema: regionIDSchema(),
		},
	}
}
