// Package server implements the MCP (Model Context Protocol) server for the
// region editor.
//
// This package provides a JSON-RPC 2.0 server that drives one editing
// session at a time through tool calls. The client reports the rendered size
// of the image element and forwards pointer input in display pixels; the
// server keeps regions in natural pixels and bakes them into new images.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Sessions:
//   - redact_open: Open a document and detect sensitive regions
//   - crop_open: Open a prescription photo for cropping
//   - session_status: Snapshot of the active session
//   - session_wait: Wait for background calls to finish
//   - session_confirm: Bake and upload, or bake and recognize
//   - session_resume: Back to editing after a failed send
//   - session_cancel: Discard the session
//   - session_preview: Overlay or crop preview as PNG
//
// Pointer input:
//   - frame_set: Rendered size of the image element
//   - pointer_down, pointer_move, pointer_up, pointer_leave
//
// Regions:
//   - regions_list: Committed regions
//   - region_toggle: Switch a detected region on or off
//   - region_delete: Remove a custom region
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A failed upload or recognition is not a tool error: session_confirm
// returns the status with state "failed" and the session can be confirmed
// again.
//
// # Usage
//
//	cfg, err := config.Load(config.GetConfigPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
