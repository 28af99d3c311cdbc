package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	loomerr "github.com/promptloom/tagindex/internal/errors"
)

// Options configures how the database file is opened.
type Options struct {
	// CacheMB is the SQLite page cache size in MB (default 64).
	CacheMB int
	// ReadOnly opens a pooled read-only handle. Writers get a single
	// connection; readers may fan out.
	ReadOnly bool
}

// DefaultOptions returns the standard writer options.
func DefaultOptions() Options {
	return Options{CacheMB: 64}
}

// Store owns one on-disk database file and its connection lifecycle.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database file at path.
func Open(path string, opts Options, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, loomerr.StorageError("database path must not be empty", nil)
	}

	if !opts.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, loomerr.StorageError(
				fmt.Sprintf("create database directory for %s", path), err)
		}
	}

	dsn := path
	if opts.ReadOnly {
		// Reader pools hand out fresh connections, so pragmas must ride
		// the DSN to apply per connection.
		dsn = path + "?mode=ro&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, loomerr.StorageError(fmt.Sprintf("open database %s", path), err)
	}

	if opts.ReadOnly {
		// Short-lived reader connections, one per in-flight operation.
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(1)
	} else {
		// Single writer connection prevents SQLITE_BUSY churn against
		// ourselves; WAL keeps readers unblocked meanwhile.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	db.SetConnMaxLifetime(0)

	cacheMB := opts.CacheMB
	if cacheMB <= 0 {
		cacheMB = 64
	}

	if !opts.ReadOnly {
		// The single writer connection gets its pragmas via statements;
		// WAL must be set this way for modernc.org/sqlite.
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
			fmt.Sprintf("PRAGMA cache_size = -%d", cacheMB*1024),
			"PRAGMA foreign_keys = ON",
			"PRAGMA temp_store = MEMORY",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, loomerr.StorageError(fmt.Sprintf("set pragma %q", pragma), err)
			}
		}
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Initialize creates the schema if absent and applies additive
// migrations. Idempotent and safe to run on every startup.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, baselineSchema); err != nil {
		return loomerr.New(loomerr.ErrCodeMigrationFailed, "create baseline schema", err)
	}
	if err := s.migrate(ctx); err != nil {
		return err
	}
	return nil
}

// migrate applies additive migrations, checking existing columns via
// introspection before every ALTER so reruns are no-ops.
func (s *Store) migrate(ctx context.Context) error {
	// v2: index_state.format_version forces full rescans when
	// tokenization rules change.
	hasFormat, err := s.columnExists(ctx, "index_state", "format_version")
	if err != nil {
		return err
	}
	if !hasFormat {
		if _, err := s.db.ExecContext(ctx,
			`ALTER TABLE index_state ADD COLUMN format_version INTEGER NOT NULL DEFAULT 0`); err != nil {
			return loomerr.New(loomerr.ErrCodeMigrationFailed,
				"add index_state.format_version", err)
		}
		s.logger.Info("schema_migrated",
			slog.String("path", s.path),
			slog.Int("to_version", 2))
	}

	// v3: telemetry rollup table.
	if _, err := s.db.ExecContext(ctx, telemetrySchema); err != nil {
		return loomerr.New(loomerr.ErrCodeMigrationFailed, "create telemetry schema", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE index_state SET schema_version = ? WHERE id = 1`, CurrentSchemaVersion); err != nil {
		return loomerr.New(loomerr.ErrCodeMigrationFailed, "record schema version", err)
	}
	return nil
}

// columnExists introspects a table via PRAGMA table_info.
func (s *Store) columnExists(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, loomerr.New(loomerr.ErrCodeMigrationFailed,
			fmt.Sprintf("introspect table %s", table), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, loomerr.New(loomerr.ErrCodeMigrationFailed, "scan table_info row", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// BeginTx starts a write transaction. The caller owns commit/rollback.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, loomerr.StorageError("begin transaction", err)
	}
	return tx, nil
}

// DB exposes the underlying handle for collaborators that share the
// same database file (telemetry).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Checkpoint forces a WAL checkpoint for durability.
func (s *Store) Checkpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// Close checkpoints and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
