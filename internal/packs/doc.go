// Package packs provides the tool registry served over MCP.
//
// # Overview
//
// A Pack is a named group of Tools. Each Tool carries a name, a
// description, a JSON Schema for its arguments and a handler that turns
// JSON arguments into a text result. The Registry holds every pack,
// rejects tool name collisions and dispatches calls by tool name.
//
// # Registration
//
//	registry := packs.NewRegistry(logger)
//	for _, p := range dispatcher.Packs() {
//	    if err := registry.RegisterPack(p); err != nil {
//	        return err
//	    }
//	}
//
// # Execution
//
//	text, err := registry.Execute(ctx, "speak", json.RawMessage(`{"text":"hello"}`))
//
// Execute only fails with ErrToolNotFound. Handler failures are part of
// the returned text.
//
// # Thread Safety
//
// Registry is safe for concurrent use.
package packs
