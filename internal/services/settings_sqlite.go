package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/fleetdeck/internal/store"
)

// Compile-time interface guard.
var _ SettingsRepository = (*SQLiteSettingsRepository)(nil)

// SQLiteSettingsRepository stores settings in the "settings" table.
type SQLiteSettingsRepository struct {
	db    *store.SQLiteStore
	clock func() time.Time
}

var settingsMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create settings table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS settings (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)
			`)
			return err
		},
	},
}

// NewSQLiteSettingsRepository applies the settings migrations and returns
// a repository bound to db.
func NewSQLiteSettingsRepository(ctx context.Context, db *store.SQLiteStore) (*SQLiteSettingsRepository, error) {
	if err := db.Migrate(ctx, "settings", settingsMigrations); err != nil {
		return nil, fmt.Errorf("settings migrate: %w", err)
	}
	return &SQLiteSettingsRepository{db: db, clock: time.Now}, nil
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	var updated string
	err := r.db.DB().QueryRowContext(ctx,
		"SELECT key, value, updated_at FROM settings WHERE key = ?", key,
	).Scan(&s.Key, &s.Value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &s, nil
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) error {
	return r.set(ctx, r.db.DB(), key, value)
}

// SetTx writes key inside tx so callers can update a setting together with
// their own tables.
func (r *SQLiteSettingsRepository) SetTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	return r.set(ctx, tx, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteSettingsRepository) set(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.clock().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingsRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.DB().ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteSettingsRepository) GetAll(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.DB().QueryContext(ctx, "SELECT key, value, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var s Setting
		var updated string
		if err := rows.Scan(&s.Key, &s.Value, &updated); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteSettingsRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
