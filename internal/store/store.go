// ABOUTME: Store interface and data types for kachaka-mcp persistence
// ABOUTME: Defines CommandEntry, CommandFilter and the Store interface

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// CommandEntry is one robot command in the audit log.
type CommandEntry struct {
	ID         string          `json:"id"`
	Tool       string          `json:"tool"`
	Args       json.RawMessage `json:"args"`
	Outcome    string          `json:"outcome"` // success, failure, error
	Message    string          `json:"message"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"ts"`
}

// CommandFilter specifies filtering options for listing commands.
type CommandFilter struct {
	Tool    *string    // filter by tool name
	Outcome *string    // filter by outcome
	Since   *time.Time // entries at or after this time
	Limit   int        // max results (default 100, max 1000)
}

// Store defines the interface for command audit persistence
type Store interface {
	AppendCommand(ctx context.Context, e *CommandEntry) error
	GetCommand(ctx context.Context, id string) (*CommandEntry, error)
	ListCommands(ctx context.Context, f CommandFilter) ([]*CommandEntry, error)
	Close() error
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
