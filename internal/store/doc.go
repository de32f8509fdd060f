// Package store provides persistent storage for kachaka-mcp using SQLite.
//
// # Architecture
//
// The store keeps a single table, command_log, recording every robot command
// issued through the dispatcher together with its outcome. SQLiteStore
// implements both the Store interface and dispatch.Recorder, so it can be
// handed straight to the dispatcher:
//
//	st, err := store.NewSQLiteStore(cfg.Audit.Path)
//	d := dispatch.New(sess, logger, dispatch.WithRecorder(st))
//
// # Data Models
//
//   - CommandEntry: tool name, JSON arguments, outcome (success, failure,
//     error), robot or transport message, duration and timestamp
//   - CommandFilter: tool, outcome and since filters with a limit
//     (default 100, max 1000)
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// The database path comes from audit.path in the config file. When the path
// is empty the audit log is disabled and no store is opened.
//
// # Error Handling
//
//   - ErrNotFound: Requested entity does not exist
//
// All methods accept context.Context for cancellation support.
//
// # Migrations
//
// Column migrations run automatically on store initialization and are
// idempotent.
package store
