// Package mcp implements the Model Context Protocol server that exposes the
// robot to AI clients.
//
// # Protocol
//
// JSON-RPC 2.0 methods:
//
//   - initialize, ping
//   - tools/list, tools/call: robot commands from the packs.Registry
//   - resources/list, resources/templates/list, resources/read: telemetry
//   - prompts/list, prompts/get: canned conversation starters
//
// Notifications (requests without an id) are accepted and not answered.
//
// # Transports
//
// Streamable HTTP on a single endpoint:
//
//   - POST /mcp: JSON-RPC request, JSON response
//   - DELETE /mcp: end the session named by Mcp-Session-Id
//
// initialize returns an Mcp-Session-Id header that every later request must
// echo. Sessions are bound to the authenticated client. A tools/call whose
// id was already used in the same session within five minutes is rejected
// rather than executed again, so a retried POST cannot repeat a movement.
//
// Stdio: one JSON-RPC message per line on stdin, responses on stdout. Used
// when a desktop client launches the binary as a subprocess:
//
//	{
//	  "mcpServers": {
//	    "kachaka": {
//	      "command": "kachaka-mcp",
//	      "args": ["stdio"]
//	    }
//	  }
//	}
//
// # Tool Results
//
// Tool output is the dispatcher's text. isError is set only for "Error: ..."
// results, where the command never reached the robot or faulted; a robot's
// own refusal ("Failed to ...") is a normal result.
//
// # Resource Results
//
// Text resources are returned in "text"; images are base64 in "blob". An
// unknown URI is JSON-RPC error -32002.
package mcp
