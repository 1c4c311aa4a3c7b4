// Package server implements the MCP (Model Context Protocol) server for
// document detection.
//
// This package provides a JSON-RPC 2.0 server that exposes the document
// detector and its diagnostics through the MCP protocol, so that MCP
// clients can locate and cut out paper documents in photos.
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
//   - image_load: Load image and get metadata
//   - document_detect: Ranked document boxes, normalized to [0, 1]
//   - document_preview: Photo with the detections drawn on it
//   - document_crop: One detection cut out of the photo
//   - image_edge_detect: The edge map the contour detector works on
//   - ocr_info: Tesseract availability
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, so previewing and cropping
// after a detection does not decode the file again.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	det := ensemble.New(cfg.DetectorOptions(), ensemble.WithTextLines(engine))
//	srv := server.New(det, server.WithOCR(engine), server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
