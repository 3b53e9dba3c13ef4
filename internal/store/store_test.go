package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countMigrations(t *testing.T, s *SQLiteStore, component string) int {
	t.Helper()
	var count int
	err := s.DB().QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM schema_migrations WHERE component = ?", component,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return count
}

func TestNew_creates_database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNew_invalid_path(t *testing.T) {
	_, err := New("/nonexistent/path/to/db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestPing(t *testing.T) {
	s := tempDB(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestTx_commit(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE views (id TEXT PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO views (id, name) VALUES ('dispatch', 'Dispatch')")
		return err
	})
	if err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	var name string
	if err := s.DB().QueryRowContext(ctx, "SELECT name FROM views WHERE id = 'dispatch'").Scan(&name); err != nil {
		t.Fatalf("query after commit: %v", err)
	}
	if name != "Dispatch" {
		t.Errorf("got name %q, want %q", name, "Dispatch")
	}
}

func TestTx_rollback(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE views (id TEXT PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO views (id, name) VALUES ('a', 'A')"); err != nil {
			return err
		}
		return sql.ErrNoRows
	})
	if err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM views").Scan(&count); err != nil {
		t.Fatalf("count after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("got count %d after rollback, want 0", count)
	}
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name       string
		migrations []Migration
		wantErr    bool
		wantCount  int
	}{
		{
			name: "applies in order",
			migrations: []Migration{
				{Version: 1, Description: "create settings", Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("CREATE TABLE settings (key TEXT PRIMARY KEY)")
					return err
				}},
				{Version: 2, Description: "add value", Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("ALTER TABLE settings ADD COLUMN value TEXT")
					return err
				}},
			},
			wantCount: 2,
		},
		{
			name: "failure rolls back",
			migrations: []Migration{
				{Version: 1, Description: "will fail", Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("INVALID SQL STATEMENT")
					return err
				}},
			},
			wantErr:   true,
			wantCount: 0,
		},
		{
			name: "partial failure keeps earlier steps",
			migrations: []Migration{
				{Version: 1, Description: "ok", Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("CREATE TABLE partial_test (id INTEGER)")
					return err
				}},
				{Version: 2, Description: "bad", Up: func(tx *sql.Tx) error {
					_, err := tx.Exec("INVALID SQL")
					return err
				}},
			},
			wantErr:   true,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tempDB(t)
			err := s.Migrate(context.Background(), "settings", tt.migrations)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Migrate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := countMigrations(t, s, "settings"); got != tt.wantCount {
				t.Errorf("migration records = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestMigrate_skips_applied(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	calls := 0
	migrations := []Migration{
		{Version: 1, Description: "create table", Up: func(tx *sql.Tx) error {
			calls++
			_, err := tx.Exec("CREATE TABLE test_skip (id INTEGER)")
			return err
		}},
	}

	if err := s.Migrate(ctx, "views", migrations); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "views", migrations); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if calls != 1 {
		t.Errorf("migration ran %d times, want 1", calls)
	}
}

func TestMigrate_components_isolated(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	mk := func(table string) []Migration {
		return []Migration{{Version: 1, Description: table, Up: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE TABLE " + table + " (id INTEGER)")
			return err
		}}}
	}

	if err := s.Migrate(ctx, "settings", mk("settings_data")); err != nil {
		t.Fatalf("settings Migrate: %v", err)
	}
	if err := s.Migrate(ctx, "views", mk("views_data")); err != nil {
		t.Fatalf("views Migrate: %v", err)
	}

	for _, table := range []string{"settings_data", "views_data"} {
		var name string
		err := s.DB().QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestMigrate_rejects_out_of_order(t *testing.T) {
	s := tempDB(t)
	noop := func(*sql.Tx) error { return nil }

	err := s.Migrate(context.Background(), "views", []Migration{
		{Version: 2, Description: "second", Up: noop},
		{Version: 1, Description: "first", Up: noop},
	})
	if err == nil {
		t.Fatal("expected error for descending versions")
	}
	if got := countMigrations(t, s, "views"); got != 0 {
		t.Errorf("migration records = %d, want 0", got)
	}
}

func TestClose(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "close.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.DB().PingContext(context.Background()); err == nil {
		t.Error("expected error after Close, got nil")
	}
}

func TestWAL_mode_enabled(t *testing.T) {
	s := tempDB(t)
	var mode string
	if err := s.DB().QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		steps   []string
		wantErr error
		stored  string
	}{
		{name: "first run", steps: []string{"0.4.0"}, stored: "0.4.0"},
		{name: "same version", steps: []string{"0.4.0", "0.4.0"}, stored: "0.4.0"},
		{name: "newer binary", steps: []string{"0.4.0", "0.5.0"}, stored: "0.5.0"},
		{name: "patch upgrade", steps: []string{"0.4.0", "0.4.1"}, stored: "0.4.1"},
		{name: "dev always passes", steps: []string{"dev", "0.5.0", "dev"}, stored: "dev"},
		{name: "older binary rejected", steps: []string{"0.5.0", "0.4.0"}, wantErr: ErrNewerSchema, stored: "0.5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tempDB(t)
			ctx := context.Background()

			var err error
			for _, v := range tt.steps {
				if err = s.CheckVersion(ctx, v); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CheckVersion error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("CheckVersion: %v", err)
			}

			stored, found, err := s.storedVersion(ctx)
			if err != nil || !found {
				t.Fatalf("storedVersion = %q, %v, %v", stored, found, err)
			}
			if stored != tt.stored {
				t.Errorf("stored version = %q, want %q", stored, tt.stored)
			}
		})
	}
}
