// Package store implements PhotoWall's persistent relational index: a
// SQLite-backed catalog of photos, tags, albums, smart albums and scan
// directories, with an FTS5 shadow table kept in sync by triggers.
//
// The open/migrate flow follows the same shape as a Lightroom
// catalog file: one SQLite database, a version table, and an ordered list
// of migrations applied inside a transaction on open.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store is a single open catalog database.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	log      zerolog.Logger
}

// Options configures Open.
type Options struct {
	// ReadOnly opens the database immutably, refusing writes.
	ReadOnly bool
	// EnableWAL toggles WAL journal mode; false falls back to the default
	// rollback journal. Defaults to false (zero value) so callers that
	// don't set it explicitly get stdlib-ish behavior; photowall.Open
	// wires this from config.PerformanceSettings.EnableWAL.
	EnableWAL bool
	// Logger receives lifecycle and migration messages. Defaults to a
	// disabled logger when zero-valued.
	Logger zerolog.Logger
}

// journal mode, pragma, and cache tuning used on every connection, per the
// store's concurrency model: a single shared connection behind a mutex-like
// serialization (SetMaxOpenConns(1)) that needs a busy timeout rather than
// immediate SQLITE_BUSY failures when autoscan and a host caller overlap.
const (
	busyTimeoutMS = 5000
	cacheSizeKiB  = -64 * 1024  // negative = KiB, per sqlite3 PRAGMA cache_size
	mmapSizeBytes = 256 << 20
)

// Open creates the catalog database at path if it does not exist, or opens
// and migrates it in place if it does. The parent directory is created as
// needed.
func Open(path string, opts Options) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: create directory", err)
	}

	journalMode := "DELETE"
	if opts.EnableWAL {
		journalMode = "WAL"
	}

	dsn := fmt.Sprintf(
		"file:%s?cache=shared&_journal_mode=%s&_synchronous=NORMAL"+
			"&_temp_store=MEMORY&_busy_timeout=%d&_mmap_size=%d&_cache_size=%d",
		path, journalMode, busyTimeoutMS, mmapSizeBytes, cacheSizeKiB,
	)
	if opts.ReadOnly {
		dsn += "&mode=ro"
	} else {
		dsn += "&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, newErr(ErrKindStorageUnavailable, "store: open database", err)
	}
	db.SetMaxOpenConns(1) // single-writer sqlite3 cgo driver; serialize through one conn

	s := &Store{db: db, path: path, readOnly: opts.ReadOnly, log: opts.Logger}

	if !opts.ReadOnly {
		if err := s.migrate(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the catalog's file path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying connection for callers that need raw access
// (migrations tooling, diagnostics).
func (s *Store) DB() *sql.DB { return s.db }

// migrate brings a catalog up to schemaVersion: it runs initSchema +
// initFTS unconditionally (both are idempotent), records version 1 if the
// schema_version table is empty, then applies any migrations newer than the
// catalog's current version, each inside its own transaction.
func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: begin migration", err)
	}
	defer tx.Rollback()

	for _, stmt := range initSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return newErr(ErrKindSchemaMismatch, "store: init schema", fmt.Errorf("%w\nstatement: %s", err, stmt))
		}
	}
	for _, stmt := range initFTS {
		if _, err := tx.Exec(stmt); err != nil {
			return newErr(ErrKindSchemaMismatch, "store: init fts", fmt.Errorf("%w\nstatement: %s", err, stmt))
		}
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return newErr(ErrKindSchemaMismatch, "store: read schema_version", err)
	}
	if count == 0 {
		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (1, ?)`, nowISO()); err != nil {
			return newErr(ErrKindSchemaMismatch, "store: seed schema_version", err)
		}
	}

	var current int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(version), 1) FROM schema_version`).Scan(&current); err != nil {
		return newErr(ErrKindSchemaMismatch, "store: read current version", err)
	}

	if err := tx.Commit(); err != nil {
		return newErr(ErrKindStorageUnavailable, "store: commit schema init", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return err
		}
		current = m.version
	}

	return nil
}

func (s *Store) applyMigration(m migration) error {
	s.log.Info().Int("version", m.version).Str("description", m.description).Msg("applying migration")

	tx, err := s.db.Begin()
	if err != nil {
		return newErr(ErrKindStorageUnavailable, "store: begin migration tx", err)
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			// Column-exists errors happen when the table already has a
			// column a later migration also adds; tolerate those so a
			// partially-migrated catalog can still converge.
			if !isDuplicateColumnErr(err) {
				return newErr(ErrKindSchemaMismatch, fmt.Sprintf("store: migration %d", m.version), fmt.Errorf("%w\nstatement: %s", err, stmt))
			}
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`, m.version, nowISO()); err != nil {
		return newErr(ErrKindSchemaMismatch, "store: record migration version", err)
	}

	if err := tx.Commit(); err != nil {
		return newErr(ErrKindStorageUnavailable, "store: commit migration", err)
	}
	return nil
}

func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return len(msg) > 0 && (contains(msg, "duplicate column name") || contains(msg, "already exists"))
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		func() bool {
			for i := 0; i+len(substr) <= len(s); i++ {
				if s[i:i+len(substr)] == substr {
					return true
				}
			}
			return false
		}())
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, newErr(ErrKindStorageUnavailable, "store: schema version", err)
	}
	return v, nil
}

// PhotoCount returns the number of non-deleted photos in the catalog.
func (s *Store) PhotoCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM photos WHERE is_deleted = 0`).Scan(&count)
	if err != nil {
		return 0, newErr(ErrKindStorageUnavailable, "store: photo count", err)
	}
	return count, nil
}

// nowISO formats the current time the way every date_* column in this
// schema expects: ISO-8601 with a trailing Z, matching metadata.NormalizeDate.
func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
