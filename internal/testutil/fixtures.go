// Package testutil provides shared fixtures for fleetdeck tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/HerbHall/fleetdeck/internal/store"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// NewStore opens a SQLite database in a per-test temp directory and closes it
// when the test ends.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "fleetdeck-test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewView returns a user view with two visible sections, suitable for test
// fixtures. Override individual fields with options.
func NewView(opts ...func(*models.View)) models.View {
	v := models.View{
		ID:          uuid.New().String(),
		Name:        "test-view",
		Description: "fixture view",
		Sections: []models.ViewSection{
			{ID: "kpis", Name: "KPIs", Type: models.SectionKPI, Visible: true, Order: 1},
			{ID: "map", Name: "Map", Type: models.SectionMap, Visible: true, Order: 2},
		},
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// WithID sets the view id.
func WithID(id string) func(*models.View) {
	return func(v *models.View) { v.ID = id }
}

// WithName sets the view name.
func WithName(name string) func(*models.View) {
	return func(v *models.View) { v.Name = name }
}

// WithSections replaces the view's sections.
func WithSections(sections ...models.ViewSection) func(*models.View) {
	return func(v *models.View) { v.Sections = sections }
}

// WithGroups sets the view's user groups.
func WithGroups(groups ...string) func(*models.View) {
	return func(v *models.View) { v.UserGroups = groups }
}

// WithDefault marks the view as built-in.
func WithDefault() func(*models.View) {
	return func(v *models.View) { v.IsDefault = true }
}

// Section builds a visible section with the given id and order.
func Section(id string, order int) models.ViewSection {
	return models.ViewSection{ID: id, Name: id, Type: models.SectionChart, Visible: true, Order: order}
}
