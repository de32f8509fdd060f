// ABOUTME: Tool and pack definitions for in-process tools.
// ABOUTME: A pack groups related tools under one ID for registration.

package packs

import (
	"context"
	"encoding/json"
)

// ToolHandler executes a tool. It receives the tool input as JSON and
// always produces a text result; failures are reported in the text.
type ToolHandler func(ctx context.Context, input json.RawMessage) string

// Tool describes one callable tool.
type Tool struct {
	Name        string
	Description string
	// InputSchemaJSON is the JSON Schema of the tool's arguments.
	InputSchemaJSON string
	Handler         ToolHandler
}

// InputSchema returns the schema as raw JSON. An empty schema is an
// object with no properties.
func (t *Tool) InputSchema() json.RawMessage {
	if t.InputSchemaJSON == "" {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return json.RawMessage(t.InputSchemaJSON)
}

// Pack is a collection of tools with a pack ID.
type Pack struct {
	ID          string
	Description string
	Tools       []*Tool
}
