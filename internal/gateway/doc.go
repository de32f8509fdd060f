// Package gateway orchestrates the kachaka-mcp server components.
//
// # Overview
//
// The gateway builds every component from the configuration provider and
// owns their lifecycle:
//
//   - session.Context: the single shared robot handle
//   - dispatch.Dispatcher: robot commands, registered as tool packs
//   - telemetry.Accessor: robot state as MCP resources
//   - store.SQLiteStore: command audit log (optional, audit.path)
//   - auth.Gate: credential check in front of /mcp
//   - mcp.Server: the protocol endpoint
//
// # HTTP Endpoints
//
//   - POST/DELETE /mcp - MCP Streamable HTTP transport
//   - GET /health - Liveness check
//   - GET /health/ready - Robot reachable (serial number query), 503 otherwise
//   - GET / - Help page listing tools and resources
//
// # Listeners
//
// By default the server listens on server.http_addr. With tailscale.enabled
// it joins the tailnet through tsnet and serves on port 80 of the node.
//
// # Lifecycle
//
//	gw, err := gateway.New(provider, logger)
//	err = gw.Run(ctx) // blocks until ctx is canceled
//
// Shutdown stops the HTTP server, closes the robot handle, the audit store
// and the tailnet node. Reload re-reads the config file; a changed robot
// target empties the session slot so the next call dials the new address.
package gateway
