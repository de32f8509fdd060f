// ABOUTME: JSON argument binding for tool handlers
// ABOUTME: Checks required keys, then decodes into a typed struct

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/2389/kachaka-mcp/internal/packs"
)

// bind decodes raw into dst after checking that every required key is present.
func bind(raw json.RawMessage, dst any, required ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return fmt.Errorf("arguments must be a JSON object: %w", err)
	}

	var missing []string
	for _, key := range required {
		v, ok := present[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required argument(s): %s", strings.Join(missing, ", "))
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return nil
}

// handler adapts a typed method into a packs.ToolHandler. Argument errors
// become "Error: invalid arguments: ..." text.
func handler[T any](fn func(ctx context.Context, in T) string, required ...string) packs.ToolHandler {
	return func(ctx context.Context, input json.RawMessage) string {
		var in T
		if err := bind(input, &in, required...); err != nil {
			return "Error: invalid arguments: " + err.Error()
		}
		return fn(ctx, in)
	}
}
