package checkpoint

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// ErrNotFound is returned when no checkpoint matches a lookup.
var ErrNotFound = errors.New("checkpoint not found")

// Store provides durable SQLite-backed checkpoint storage.
// Uses WAL mode for concurrent read access during writes.
type Store struct {
	db    *sql.DB
	codec *Codec
}

// Open creates or opens a checkpoint database at the given path. Applies
// required pragmas and the schema automatically; safe to call repeatedly.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - single-writer connection limits to avoid SQLITE_BUSY
func Open(path string, codec *Codec) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, codec: codec}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists a checkpoint row. Idempotent: writing the same
// (run_token, tick) twice is a silent no-op, so a crashed caller can
// safely re-save after restart.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	snapshot, err := s.codec.Encode(cp)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_token, tick, snapshot)
		VALUES (?, ?, ?)
		ON CONFLICT(run_token, tick) DO NOTHING
	`, cp.Token, cp.Tick, string(snapshot))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Latest returns the most recent checkpoint across all runs, by tick then
// insertion order. Returns ErrNotFound on an empty store.
func (s *Store) Latest(ctx context.Context) (*Checkpoint, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM checkpoints
		ORDER BY id DESC
		LIMIT 1
	`))
}

// LatestForRun returns the highest-tick checkpoint recorded for runToken.
// Returns ErrNotFound if the run has no checkpoints.
func (s *Store) LatestForRun(ctx context.Context, runToken string) (*Checkpoint, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM checkpoints
		WHERE run_token = ?
		ORDER BY tick DESC, id DESC
		LIMIT 1
	`, runToken))
}

func (s *Store) scanOne(row *sql.Row) (*Checkpoint, error) {
	var snapshot string
	if err := row.Scan(&snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return s.codec.Decode([]byte(snapshot))
}

// Meta describes one stored checkpoint without decoding its snapshot.
type Meta struct {
	RunToken string
	Tick     int
}

// List returns metadata for every stored checkpoint in insertion order.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, tick FROM checkpoints
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.RunToken, &m.Tick); err != nil {
			return nil, fmt.Errorf("list checkpoints: %w", err)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return metas, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
