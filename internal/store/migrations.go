package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// ErrLegacySchema is returned for an items table that stores the category
// name inline instead of referencing categories(id). Such a database has to
// be exported and recreated.
var ErrLegacySchema = errors.New("items table uses the legacy inline category column; recreate the database")

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

type migration struct {
	version     int
	description string
	sql         string
}

// migrations[i] has version i+1.
var migrations = []migration{
	{
		version:     1,
		description: "initial schema: categories and items tables",
		sql: `
CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category_id INTEGER NOT NULL,
  image_name TEXT NOT NULL,
  FOREIGN KEY (category_id) REFERENCES categories(id)
);
`,
	},
	{
		version:     2,
		description: "item lookup indexes",
		sql: `
CREATE INDEX IF NOT EXISTS idx_items_category_id ON items(category_id);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);
`,
	},
}

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// schemaVersion reports which migration the database is at. A catalog that
// was created without schema_migrations but already has categories and
// items.category_id counts as version 1 with recorded=false.
func schemaVersion(db *sql.DB) (version int, recorded bool, err error) {
	tables, err := nameSet(db, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return 0, false, fmt.Errorf("list tables: %w", err)
	}
	if tables["schema_migrations"] {
		if version, err = recordedVersion(db); err != nil {
			return 0, false, err
		}
		if version > 0 {
			return version, true, nil
		}
	}
	if !tables["items"] {
		return 0, true, nil
	}

	columns, err := nameSet(db, `SELECT name FROM pragma_table_info('items')`)
	if err != nil {
		return 0, false, fmt.Errorf("list items columns: %w", err)
	}
	if !tables["categories"] || !columns["category_id"] {
		return 0, false, ErrLegacySchema
	}
	return 1, false, nil
}

// recordedVersion returns the highest version in schema_migrations.
func recordedVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	return version, err
}

func recordVersion(db execer, version int) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// migrate brings db up to the latest schema, adopting an unversioned catalog
// as version 1 first.
func migrate(db *sql.DB) error {
	version, recorded, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d)", version, len(migrations))
	}
	if _, err := db.Exec(schemaMigrationsDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	if !recorded {
		if err := recordVersion(db, version); err != nil {
			return fmt.Errorf("adopt existing catalog as version %d: %w", version, err)
		}
	}
	for _, m := range migrations[version:] {
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(m.sql); err != nil {
		return fmt.Errorf("apply migration %d (%s): %w", m.version, m.description, err)
	}
	if err = recordVersion(tx, m.version); err != nil {
		return fmt.Errorf("record migration %d: %w", m.version, err)
	}
	return tx.Commit()
}

// MigrationPlan reports the migration status of db without changing it.
func MigrationPlan(db *sql.DB) (*MigrationStatus, error) {
	version, _, err := schemaVersion(db)
	if err != nil {
		return nil, err
	}
	return planFrom(version), nil
}

// Plan reports the migration status of the database file at path without
// creating or modifying it. A missing file is at version 0.
func Plan(path string) (*MigrationStatus, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return planFrom(0), nil
	}
	ro := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	db, err := sql.Open("sqlite", ro.String())
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return MigrationPlan(db)
}

// Migrations reports the migration status of the open store.
func (s *Store) Migrations() (*MigrationStatus, error) {
	return MigrationPlan(s.db)
}

func planFrom(version int) *MigrationStatus {
	status := &MigrationStatus{
		CurrentVersion:   version,
		AvailableVersion: len(migrations),
		Pending:          []MigrationInfo{},
	}
	for _, m := range migrations {
		if m.version > version {
			status.Pending = append(status.Pending, MigrationInfo{Version: m.version, Description: m.description})
		}
	}
	return status
}

func nameSet(db *sql.DB, query string) (map[string]bool, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}
