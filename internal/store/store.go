package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS = 5000

	maxOpenConnsEnvKey    = "MERCARI_DB_MAX_OPEN_CONNS"
	maxIdleConnsEnvKey    = "MERCARI_DB_MAX_IDLE_CONNS"
	connMaxLifetimeEnvKey = "MERCARI_DB_CONN_MAX_LIFETIME"
)

// connPragmas run on every new connection through the DSN.
var connPragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS),
}

// Store is the SQLite-backed catalog of items and categories.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the catalog at path, creating the file and its directory when
// missing, and applies pending migrations.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	if dir := parentDir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	poolFromEnv().apply(db)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	q := url.Values{"_pragma": connPragmas}
	u := url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}
	return u.String(), nil
}

func parentDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

// poolSettings sizes the database/sql pool. SQLite has a single writer, so
// the defaults keep one connection open.
type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

func poolFromEnv() poolSettings {
	return poolSettings{
		maxOpen:     envPositiveInt(maxOpenConnsEnvKey, 1),
		maxIdle:     envPositiveInt(maxIdleConnsEnvKey, 1),
		maxLifetime: envDuration(connMaxLifetimeEnvKey, 5*time.Minute),
	}
}

func (p poolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)
}

// envPositiveInt returns the integer in key, or def when it is unset,
// malformed or not positive.
func envPositiveInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// envDuration accepts a Go duration or a plain number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if seconds := envPositiveInt(key, 0); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}
