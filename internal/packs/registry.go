// ABOUTME: Thread-safe registry for tool packs and their tools.
// ABOUTME: Manages pack registration, collision detection, lookup and execution.

package packs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPackAlreadyRegistered indicates a pack with the same ID is already registered.
var ErrPackAlreadyRegistered = errors.New("pack already registered")

// ErrToolCollision indicates a tool name already exists from another pack.
var ErrToolCollision = errors.New("tool name collision")

// ErrToolNotFound indicates no registered tool has the requested name.
var ErrToolNotFound = errors.New("tool not found")

// registered is a tool together with its owning pack ID.
type registered struct {
	Tool   *Tool
	PackID string
}

// Registry maintains the registered packs and their tools.
type Registry struct {
	mu     sync.RWMutex
	packs  map[string]*Pack
	tools  map[string]*registered // tool name -> tool (for collision detection)
	order  []string               // tool names in registration order
	logger *slog.Logger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		packs:  make(map[string]*Pack),
		tools:  make(map[string]*registered),
		logger: logger,
	}
}

// RegisterPack validates and stores a pack and its tools.
// Returns ErrPackAlreadyRegistered if a pack with the same ID exists.
// Returns ErrToolCollision if any tool name already exists from another pack.
func (r *Registry) RegisterPack(pack *Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packs[pack.ID]; exists {
		return fmt.Errorf("%w: %s", ErrPackAlreadyRegistered, pack.ID)
	}

	// Check for collisions before registering anything
	seen := make(map[string]struct{}, len(pack.Tools))
	for _, tool := range pack.Tools {
		if existing, exists := r.tools[tool.Name]; exists {
			return fmt.Errorf("%w: tool '%s' already registered by pack '%s'",
				ErrToolCollision, tool.Name, existing.PackID)
		}
		if _, dup := seen[tool.Name]; dup {
			return fmt.Errorf("%w: tool '%s' appears twice in pack '%s'",
				ErrToolCollision, tool.Name, pack.ID)
		}
		seen[tool.Name] = struct{}{}
	}

	for _, tool := range pack.Tools {
		r.tools[tool.Name] = &registered{Tool: tool, PackID: pack.ID}
		r.order = append(r.order, tool.Name)
	}
	r.packs[pack.ID] = pack

	r.logger.Debug("pack registered",
		"pack_id", pack.ID,
		"tool_count", len(pack.Tools),
		"total_packs", len(r.packs),
		"total_tools", len(r.tools),
	)

	return nil
}

// UnregisterPack removes a pack and all its tools from the registry.
func (r *Registry) UnregisterPack(packID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pack, exists := r.packs[packID]
	if !exists {
		return
	}

	for _, tool := range pack.Tools {
		delete(r.tools, tool.Name)
	}
	kept := r.order[:0]
	for _, name := range r.order {
		if _, ok := r.tools[name]; ok {
			kept = append(kept, name)
		}
	}
	r.order = kept
	delete(r.packs, packID)

	r.logger.Debug("pack unregistered",
		"pack_id", packID,
		"total_packs", len(r.packs),
		"total_tools", len(r.tools),
	)
}

// GetPack retrieves a pack by its ID.
func (r *Registry) GetPack(packID string) *Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.packs[packID]
}

// GetTool returns the named tool and its owning pack ID, or nil if absent.
func (r *Registry) GetTool(name string) (*Tool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tools[name]
	if !ok {
		return nil, ""
	}
	return entry.Tool, entry.PackID
}

// ListTools returns all tools in registration order.
func (r *Registry) ListTools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].Tool)
	}
	return tools
}

// PackInfo contains public information about a registered pack.
type PackInfo struct {
	ID          string
	Description string
	ToolNames   []string
}

// ListPacks returns information about all registered packs in registration order.
func (r *Registry) ListPacks() []PackInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []PackInfo
	index := make(map[string]int)
	for _, name := range r.order {
		entry := r.tools[name]
		i, ok := index[entry.PackID]
		if !ok {
			pack := r.packs[entry.PackID]
			result = append(result, PackInfo{ID: pack.ID, Description: pack.Description})
			i = len(result) - 1
			index[entry.PackID] = i
		}
		result[i].ToolNames = append(result[i].ToolNames, name)
	}
	return result
}

// Execute runs the named tool with the given JSON arguments.
// Returns ErrToolNotFound if no such tool is registered.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	tool, _ := r.GetTool(name)
	if tool == nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool.Handler(ctx, input), nil
}
