package views

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HerbHall/fleetdeck/internal/services"
	"github.com/HerbHall/fleetdeck/internal/store"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// Compile-time interface guards.
var (
	_ CatalogRepository = (*SQLiteCatalogRepository)(nil)
	_ CurrentSaver      = (*SQLiteCatalogRepository)(nil)
	_ CatalogRepository = (*SettingsCatalogRepository)(nil)
)

// SQLiteCatalogRepository stores the catalog in the "views" table, one row
// per view with its JSON document and catalog position. The current view id
// lives in the settings table of the same database.
type SQLiteCatalogRepository struct {
	db       *store.SQLiteStore
	settings *services.SQLiteSettingsRepository
}

var viewMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create views table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS views (
					id       TEXT PRIMARY KEY,
					position INTEGER NOT NULL,
					data     TEXT NOT NULL
				)
			`)
			return err
		},
	},
}

// NewSQLiteCatalogRepository applies the views and settings migrations and
// returns a repository bound to db.
func NewSQLiteCatalogRepository(ctx context.Context, db *store.SQLiteStore) (*SQLiteCatalogRepository, error) {
	if err := db.Migrate(ctx, "views", viewMigrations); err != nil {
		return nil, fmt.Errorf("views migrate: %w", err)
	}
	settings, err := services.NewSQLiteSettingsRepository(ctx, db)
	if err != nil {
		return nil, err
	}
	return &SQLiteCatalogRepository{db: db, settings: settings}, nil
}

// Load returns the stored views in catalog order. Rows that fail to decode
// are skipped and reported in an error matching ErrCorruptView.
func (r *SQLiteCatalogRepository) Load(ctx context.Context) ([]models.View, error) {
	rows, err := r.db.DB().QueryContext(ctx, "SELECT id, data FROM views ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	var out []models.View
	var corrupt []error
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		var v models.View
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			corrupt = append(corrupt, fmt.Errorf("view %q: %w: %w", id, ErrCorruptView, err))
			continue
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read views: %w", err)
	}
	return out, errors.Join(corrupt...)
}

// Save replaces the stored catalog in a single transaction.
func (r *SQLiteCatalogRepository) Save(ctx context.Context, views []models.View) error {
	return r.db.Tx(ctx, func(tx *sql.Tx) error {
		return replaceViews(ctx, tx, views)
	})
}

// SaveWithCurrent replaces the catalog and sets the current view id in one
// transaction.
func (r *SQLiteCatalogRepository) SaveWithCurrent(ctx context.Context, views []models.View, currentID string) error {
	return r.db.Tx(ctx, func(tx *sql.Tx) error {
		if err := replaceViews(ctx, tx, views); err != nil {
			return err
		}
		return r.settings.SetTx(ctx, tx, KeyCurrentView, currentID)
	})
}

func replaceViews(ctx context.Context, tx *sql.Tx, views []models.View) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM views"); err != nil {
		return fmt.Errorf("clear views: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO views (id, position, data) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := range views {
		data, err := json.Marshal(views[i])
		if err != nil {
			return fmt.Errorf("encode view %q: %w", views[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, views[i].ID, i, string(data)); err != nil {
			return fmt.Errorf("insert view %q: %w", views[i].ID, err)
		}
	}
	return nil
}

// KeyCatalog is the settings key the SettingsCatalogRepository writes.
const KeyCatalog = "views:catalog"

// SettingsCatalogRepository stores the catalog as one JSON array under
// KeyCatalog of any settings backend.
type SettingsCatalogRepository struct {
	repo services.SettingsRepository
}

// NewSettingsCatalogRepository returns a repository writing through repo.
func NewSettingsCatalogRepository(repo services.SettingsRepository) *SettingsCatalogRepository {
	return &SettingsCatalogRepository{repo: repo}
}

func (r *SettingsCatalogRepository) Load(ctx context.Context) ([]models.View, error) {
	s, err := r.repo.Get(ctx, KeyCatalog)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load view catalog: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s.Value), &raw); err != nil {
		return nil, fmt.Errorf("decode view catalog: %w", err)
	}
	out := make([]models.View, 0, len(raw))
	var corrupt []error
	for i, item := range raw {
		var v models.View
		if err := json.Unmarshal(item, &v); err != nil {
			corrupt = append(corrupt, fmt.Errorf("view at position %d: %w: %w", i, ErrCorruptView, err))
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(corrupt...)
}

func (r *SettingsCatalogRepository) Save(ctx context.Context, views []models.View) error {
	if views == nil {
		views = []models.View{}
	}
	data, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("encode view catalog: %w", err)
	}
	if err := r.repo.Set(ctx, KeyCatalog, string(data)); err != nil {
		return fmt.Errorf("save view catalog: %w", err)
	}
	return nil
}
