// Package store persists projects, sentences, tokens, annotations, and
// notes in SQLite.
//
// The token table carries UNIQUE(sentence_id, position), which is the
// store-side half of the reconciler's contract: no two live tokens in a
// sentence ever share a position, even mid-transaction statement by
// statement. All writes run through WithTx, which opens an immediate
// transaction so concurrent writers of the same database serialize;
// SQLite's single-writer model makes that equivalent to serializable
// isolation for token updates.
//
// Timestamps are stored as RFC 3339 UTC text so the two SQLite drivers
// (pure Go and CGO) round-trip them identically.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/core/sqlite"
)

// Store is a handle on a wordhoard database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// the schema. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		dsn += "&_txlock=immediate"
	} else {
		dsn += "?_txlock=immediate"
	}

	db, err := sqlite.Open(dsn)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	// A single connection sidesteps per-connection pragma state and
	// matches SQLite's single-writer reality.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.NewIO("configure", path, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is one open transaction. All CRUD operations hang off Tx so that
// callers cannot accidentally write outside a unit of work.
type Tx struct {
	tx *sql.Tx
}

// Query runs a raw read query inside the transaction. The search
// compiler uses it; everything else goes through the typed CRUD
// methods.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// WithTx runs fn inside a single immediate transaction, committing on
// nil and rolling back on error. Partial application never survives:
// any error from fn or from commit leaves the database in its
// pre-transaction state.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

// View runs fn inside a read-only unit of work. It still uses a
// transaction for a consistent snapshot but rolls back at the end.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()
	return fn(&Tx{tx: tx})
}

// now returns the current time as RFC 3339 UTC text.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
