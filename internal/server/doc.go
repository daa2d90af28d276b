// Package server implements the MCP (Model Context Protocol) server for image
// resizing tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the fit geometry,
// the draw pipeline and the surface pool through the MCP protocol.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Resize Operations:
//   - image_resize: Fit, draw, run stages and encode
//   - image_geometry: Compute the fit plan only
//
// Pool Operations:
//   - image_pool_stats: Surface pool counters
//   - image_pool_clear: Evict idle surfaces
//
// # Image Caching
//
// Decoded images are kept in a bounded LRU cache keyed by path or content
// hash, so repeated resizes of the same source decode it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: ToolErrorData naming the failure kind and the Go error string
//
// # Usage
//
//	srv := server.New(server.Config{Pool: pool, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("server stopped", "error", err)
//	}
package server
