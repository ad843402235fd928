// Package server implements the MCP (Model Context Protocol) server for blurred
// hit clustering.
//
// This package provides a JSON-RPC 2.0 server that exposes the clustering
// pipeline through the MCP protocol, so an MCP client can load detector
// events, inspect the intermediate grids, and retrieve clusters of hits.
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
// Event Information:
//   - hits_load: Summarize an event file per plane
//
// Grid Operations:
//   - grid_build: Build and blur one plane's grid, report statistics
//   - kernel_info: Inspect the cached blur kernel
//
// Clustering:
//   - cluster_hits: Run the full pipeline on an event
//   - render_clusters: Draw a plane and its clusters as a PNG
//
// Every tool except hits_load accepts a "params" object whose fields override
// the server's tuning for that call only.
//
// # Caching
//
// Decoded events are cached by path for the lifetime of the server. A single
// blur kernel cache is shared by all calls, so a kernel is only rebuilt when a
// call asks for different blur parameters than the previous one.
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
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
