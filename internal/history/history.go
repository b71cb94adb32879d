// Package history keeps a journal of the actions snapkeep has performed.
//
// Events are stored in a SQLite database. The journal is informational: the
// CLI logs a warning when it cannot record an event and carries on.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// DefaultKeep is how many events Prune retains by default.
const DefaultKeep = 50

// timeLayout is fixed width so stored times sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Actions recorded by the CLI.
const (
	ActionCreate  = "create"
	ActionRestore = "restore"
	ActionLock    = "lock"
	ActionUnlock  = "unlock"
)

// Event is one journal entry.
type Event struct {
	ID      string    `json:"id"`
	Action  string    `json:"action"`
	Subject string    `json:"subject"`
	Detail  string    `json:"detail,omitempty"`
	OK      bool      `json:"ok"`
	At      time.Time `json:"at"`
}

// Store is an open journal.
type Store struct {
	db *sql.DB
}

// Open opens the journal at path, creating the file and schema if needed.
// Use ":memory:" for a throwaway journal.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "creating history directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening history database")
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 2000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "applying %q", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating history schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends e, filling in ID and At when they are empty.
func (s *Store) Record(ctx context.Context, e Event) (Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.At = e.At.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, action, subject, detail, ok, at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Subject, e.Detail, e.OK, e.At.Format(timeLayout),
	)
	if err != nil {
		return e, errors.Wrapf(err, "recording %s event", e.Action)
	}
	return e, nil
}

// List returns up to limit events, newest first. A limit of zero or less
// returns every event.
func (s *Store) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, subject, detail, ok, at FROM events ORDER BY at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			detail sql.NullString
			at     string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &detail, &e.OK, &at); err != nil {
			return nil, errors.Wrap(err, "scanning history row")
		}
		e.Detail = detail.String
		e.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing time of event %s", e.ID)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading history")
	}
	return events, nil
}

// Prune deletes all but the newest keep events and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.Wrap(errors.ErrInvalidArgument, "keep must be non-negative")
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE rowid NOT IN (
			SELECT rowid FROM events ORDER BY at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, errors.Wrap(err, "pruning history")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "pruning history")
	}
	return n, nil
}
