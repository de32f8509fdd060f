// ABOUTME: Command audit log store methods
// ABOUTME: Records every robot command with its outcome for review and the audit resource

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/kachaka-mcp/internal/dispatch"
)

// tsLayout is fixed-width so text ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AppendCommand appends a new entry to the command log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendCommand(ctx context.Context, e *CommandEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var argsJSON *string
	if len(e.Args) > 0 {
		str := string(e.Args)
		argsJSON = &str
	}

	query := `
		INSERT INTO command_log (command_id, tool, args_json, outcome, message, duration_ms, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Tool,
		argsJSON,
		e.Outcome,
		e.Message,
		e.DurationMS,
		e.Timestamp.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting command entry: %w", err)
	}

	s.logger.Debug("appended command log",
		"id", e.ID,
		"tool", e.Tool,
		"outcome", e.Outcome,
	)
	return nil
}

// RecordCommand stores a finished dispatcher command.
func (s *SQLiteStore) RecordCommand(ctx context.Context, rec dispatch.CommandRecord) error {
	var args json.RawMessage
	if rec.Args != nil {
		data, err := json.Marshal(rec.Args)
		if err != nil {
			return fmt.Errorf("marshaling command args: %w", err)
		}
		args = data
	}

	return s.AppendCommand(ctx, &CommandEntry{
		Tool:       rec.Tool,
		Args:       args,
		Outcome:    string(rec.Outcome),
		Message:    rec.Message,
		DurationMS: rec.Duration.Milliseconds(),
	})
}

// Ensure SQLiteStore can record dispatcher commands
var _ dispatch.Recorder = (*SQLiteStore)(nil)

// normalizeCommandLimit applies default (100) and cap (1000) to the limit.
func normalizeCommandLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// scanCommandEntry scans a row into a CommandEntry.
func scanCommandEntry(scanner interface{ Scan(dest ...any) error }) (*CommandEntry, error) {
	var e CommandEntry
	var argsJSON *string
	var tsStr string

	if err := scanner.Scan(
		&e.ID,
		&e.Tool,
		&argsJSON,
		&e.Outcome,
		&e.Message,
		&e.DurationMS,
		&tsStr,
	); err != nil {
		return nil, fmt.Errorf("scanning command entry: %w", err)
	}

	if argsJSON != nil {
		e.Args = json.RawMessage(*argsJSON)
	}

	var err error
	e.Timestamp, err = time.Parse(tsLayout, tsStr)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	return &e, nil
}

const commandColumns = `command_id, tool, args_json, outcome, message, duration_ms, ts`

// GetCommand retrieves one command entry by ID.
func (s *SQLiteStore) GetCommand(ctx context.Context, id string) (*CommandEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commandColumns+` FROM command_log WHERE command_id = ?`, id)
	e, err := scanCommandEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

const commandLogQuery = `
	SELECT ` + commandColumns + `
	FROM command_log
	WHERE (? IS NULL OR tool = ?)
	  AND (? IS NULL OR outcome = ?)
	  AND (? IS NULL OR ts >= ?)
	ORDER BY ts DESC, rowid DESC
	LIMIT ?
`

// ListCommands returns command entries matching the filter criteria.
// Results are returned newest first.
func (s *SQLiteStore) ListCommands(ctx context.Context, f CommandFilter) ([]*CommandEntry, error) {
	limit := normalizeCommandLimit(f.Limit)

	var sinceStr *string
	if f.Since != nil {
		str := f.Since.UTC().Format(tsLayout)
		sinceStr = &str
	}

	rows, err := s.db.QueryContext(ctx, commandLogQuery,
		f.Tool, f.Tool,
		f.Outcome, f.Outcome,
		sinceStr, sinceStr,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*CommandEntry{}
	for rows.Next() {
		e, err := scanCommandEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command entries: %w", err)
	}
	return entries, nil
}
