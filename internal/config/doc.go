// Package config handles configuration loading for kachaka-mcp.
//
// # Overview
//
// Configuration is loaded from a YAML, TOML or JSON file with environment
// variable expansion, then overridden by KACHAKA_* environment variables.
// A missing file is not an error; built-in defaults apply.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from KACHAKA_MCP_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/kachaka-mcp/config.yaml
//  3. ~/.config/kachaka-mcp/config.yaml
//
// The flat ~/.kachaka-mcp/config.json layout written by older releases
// (kachaka_host, server_name, log_level, auth_enabled, api_keys) is still
// read when no newer file exists.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${KACHAKA_MCP_JWT_SECRET}"
//
// # Environment Overrides
//
//	KACHAKA_HOST               robot.target
//	KACHAKA_MCP_SERVER_NAME    server.name
//	KACHAKA_MCP_LOG_LEVEL      logging.level
//	KACHAKA_MCP_AUTH_ENABLED   auth.enabled (true, 1, yes)
//	KACHAKA_MCP_API_KEYS       auth.api_keys (comma separated)
//	KACHAKA_MCP_HTTP_ADDR      server.http_addr
//	KACHAKA_MCP_JWT_SECRET     auth.jwt_secret
//
// # Configuration Sections
//
//	robot:
//	  target: "100.94.1.1:26400"
//	  keepalive: "30s"
//
//	server:
//	  name: "Kachaka Robot"
//	  http_addr: "127.0.0.1:8765"
//
//	auth:
//	  enabled: false
//	  api_keys: ["..."]          # plain or bcrypt ($2a$/$2b$/$2y$)
//	  jwt_secret: "${KACHAKA_MCP_JWT_SECRET}"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  file: ""
//
//	audit:
//	  path: "~/.local/share/kachaka-mcp/audit.db"
//
//	tailscale:
//	  enabled: false
//	  hostname: "kachaka-mcp"
//	  auth_key: "${TS_AUTHKEY}"
//
// # Usage
//
//	provider, err := config.LoadProvider(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	target := provider.RobotTarget()
package config
