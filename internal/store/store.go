// Package store owns the SQLite database that backs fleetdeck's settings and
// view catalog.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/mod/semver"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// ErrNewerSchema is returned when the database was written by a newer
// fleetdeck than the running binary.
var ErrNewerSchema = errors.New("database was created by a newer version of fleetdeck")

// devVersion is the version string of unreleased builds. It is compatible
// with everything.
const devVersion = "dev"

const metaAppVersion = "app_version"

// Applied on every connection. modernc.org/sqlite takes pragmas as statements,
// not DSN parameters.
var connPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Migration is one schema step owned by a component ("settings", "views").
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// SQLiteStore wraps a SQLite handle opened via modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB

	migrateMu  sync.Mutex
	bookkeep   sync.Once
	bookkeepEr error
}

// New opens (or creates) the database file at path.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: writes serialize, and the pragmas below stick.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	for _, p := range connPragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %s: %w", path, p, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the handle for repositories that query directly.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Ping backs the readiness probe.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Tx runs fn in a transaction, committing only when fn returns nil.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Migrate applies the component's pending migrations in order. Each step and
// its bookkeeping row commit together, so a failing step leaves every earlier
// step applied and recorded. Versions must be strictly ascending.
func (s *SQLiteStore) Migrate(ctx context.Context, component string, migrations []Migration) error {
	if err := s.ensureBookkeeping(ctx); err != nil {
		return err
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			return fmt.Errorf("migrations for %s out of order: %d after %d",
				component, migrations[i].Version, migrations[i-1].Version)
		}
	}

	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	applied, err := s.appliedVersions(ctx, component)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		err := s.Tx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (component, version, description) VALUES (?, ?, ?)`,
				component, m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", component, m.Version, m.Description, err)
		}
	}
	return nil
}

func (s *SQLiteStore) appliedVersions(ctx context.Context, component string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version FROM schema_migrations WHERE component = ?`, component)
	if err != nil {
		return nil, fmt.Errorf("list migrations for %s: %w", component, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// CheckVersion records currentVersion as the database's app version and
// refuses to proceed when the database was written by a newer release.
// Upgrades move the recorded version forward; "dev" on either side always
// passes and is recorded as-is.
func (s *SQLiteStore) CheckVersion(ctx context.Context, currentVersion string) error {
	if err := s.ensureBookkeeping(ctx); err != nil {
		return err
	}

	stored, found, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case !found, stored == devVersion, currentVersion == devVersion:
		return s.recordVersion(ctx, currentVersion)
	}

	switch semver.Compare(canonical(currentVersion), canonical(stored)) {
	case -1:
		return fmt.Errorf("%w: database=%s, binary=%s", ErrNewerSchema, stored, currentVersion)
	case 1:
		return s.recordVersion(ctx, currentVersion)
	}
	return nil
}

func (s *SQLiteStore) storedVersion(ctx context.Context) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM fleetdeck_meta WHERE key = ?`, metaAppVersion).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read schema version: %w", err)
	}
	return v, true, nil
}

func (s *SQLiteStore) recordVersion(ctx context.Context, v string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleetdeck_meta (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		metaAppVersion, v)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// canonical prefixes a bare "1.2.3" with "v" for x/mod/semver.
func canonical(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

// ensureBookkeeping creates the migration ledger and the metadata table once
// per store.
func (s *SQLiteStore) ensureBookkeeping(ctx context.Context) error {
	s.bookkeep.Do(func() {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				component   TEXT     NOT NULL,
				version     INTEGER  NOT NULL,
				description TEXT     NOT NULL,
				applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (component, version)
			)`)
		if err == nil {
			_, err = s.db.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS fleetdeck_meta (
					key        TEXT     PRIMARY KEY,
					value      TEXT     NOT NULL,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
		}
		if err != nil {
			s.bookkeepEr = fmt.Errorf("create bookkeeping tables: %w", err)
		}
	})
	return s.bookkeepEr
}
