// Package runindex keeps a per-processed-root SQLite index of completed
// runs, making the audit trail queryable without walking the log tree.
package runindex

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; a mismatched index must
// be deleted and rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch indicates the index was created by an incompatible version.
var ErrSchemaMismatch = errors.New("run index schema version mismatch")

const indexFileName = "index.db"

// Run is one recorded pipeline completion.
type Run struct {
	ArtifactID   string
	InputPath    string
	OutputPath   string
	GhostRemoved bool
	GhostUID     string
	AuthorTimeMS int64
	MapLogPath   string
	GhostLogPath string
	CreatedAt    time.Time
}

// Store persists runs in SQLite under the processed root.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the index database under root, creating it on first use.
func Open(ctx context.Context, root string) (*Store, error) {
	path := filepath.Join(root, indexFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run index: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the index database location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: index has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record inserts one completed run.
func (s *Store) Record(ctx context.Context, run Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            artifact_id, input_path, output_path, ghost_removed, ghost_uid,
            author_time_ms, map_log_path, ghost_log_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ArtifactID,
		run.InputPath,
		run.OutputPath,
		boolToInt(run.GhostRemoved),
		nullableString(run.GhostUID),
		run.AuthorTimeMS,
		nullableString(run.MapLogPath),
		nullableString(run.GhostLogPath),
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ByArtifactID fetches the recorded run with the given artifact id.
func (s *Store) ByArtifactID(ctx context.Context, artifactID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT artifact_id, input_path, output_path, ghost_removed, ghost_uid,
            author_time_ms, map_log_path, ghost_log_path, created_at
         FROM runs WHERE artifact_id = ? ORDER BY id DESC LIMIT 1`, artifactID)

	var run Run
	var removed int
	var ghostUID, mapLog, ghostLog sql.NullString
	var created string
	err := row.Scan(&run.ArtifactID, &run.InputPath, &run.OutputPath, &removed,
		&ghostUID, &run.AuthorTimeMS, &mapLog, &ghostLog, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	run.GhostRemoved = removed != 0
	run.GhostUID = ghostUID.String
	run.MapLogPath = mapLog.String
	run.GhostLogPath = ghostLog.String
	if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
		run.CreatedAt = ts
	}
	return &run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
