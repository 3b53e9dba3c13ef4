package theme

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/fleetdeck/pkg/models"
)

// ErrDuplicateTheme is returned when registering an id that already exists.
var ErrDuplicateTheme = errors.New("theme already registered")

// IncompletePaletteError reports a theme whose role set differs from the
// reference (light) palette.
type IncompletePaletteError struct {
	ThemeID models.ThemeID
	Missing []string
	Unknown []string
}

func (e *IncompletePaletteError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing roles "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown roles "+strings.Join(e.Unknown, ", "))
	}
	return fmt.Sprintf("theme %q: %s", e.ThemeID, strings.Join(parts, "; "))
}

// Catalog is the static set of activatable themes. Register must complete
// before the catalog is handed to a Store.
type Catalog struct {
	order  []models.ThemeID
	themes map[models.ThemeID]models.Theme
	roles  []string
}

// NewCatalog returns a catalog holding the built-in themes.
func NewCatalog() *Catalog {
	c := &Catalog{themes: make(map[models.ThemeID]models.Theme)}
	for _, t := range builtinThemes {
		if err := c.Register(t); err != nil {
			panic("theme: invalid built-in theme: " + err.Error())
		}
	}
	return c
}

// Register adds a theme. The first registered theme fixes the role set;
// every later theme must define exactly those roles.
func (c *Catalog) Register(t models.Theme) error {
	if strings.TrimSpace(string(t.ID)) == "" {
		return errors.New("theme id is required")
	}
	if _, exists := c.themes[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTheme, t.ID)
	}

	if c.roles == nil {
		c.roles = sortedRoles(t.Palette)
	} else if err := c.checkRoles(t); err != nil {
		return err
	}

	t.Palette = t.Palette.Clone()
	if t.Name == "" {
		t.Name = string(t.ID)
	}
	c.themes[t.ID] = t
	c.order = append(c.order, t.ID)
	return nil
}

func (c *Catalog) checkRoles(t models.Theme) error {
	e := &IncompletePaletteError{ThemeID: t.ID}
	for _, r := range c.roles {
		if v, ok := t.Palette[r]; !ok || strings.TrimSpace(v) == "" {
			e.Missing = append(e.Missing, r)
		}
	}
	known := make(map[string]bool, len(c.roles))
	for _, r := range c.roles {
		known[r] = true
	}
	for _, r := range sortedRoles(t.Palette) {
		if !known[r] {
			e.Unknown = append(e.Unknown, r)
		}
	}
	if len(e.Missing) > 0 || len(e.Unknown) > 0 {
		return e
	}
	return nil
}

// Lookup returns the theme registered under id.
func (c *Catalog) Lookup(id models.ThemeID) (models.Theme, bool) {
	t, ok := c.themes[id]
	if !ok {
		return models.Theme{}, false
	}
	t.Palette = t.Palette.Clone()
	return t, true
}

// Themes returns every theme in registration order.
func (c *Catalog) Themes() []models.Theme {
	out := make([]models.Theme, 0, len(c.order))
	for _, id := range c.order {
		t, _ := c.Lookup(id)
		out = append(out, t)
	}
	return out
}

// Roles returns the sorted role names every theme defines.
func (c *Catalog) Roles() []string {
	out := make([]string, len(c.roles))
	copy(out, c.roles)
	return out
}

// themeFile is the on-disk layout read by LoadFile.
type themeFile struct {
	Themes []models.Theme `yaml:"themes"`
}

// LoadFile registers additional themes from a YAML file and returns how many
// were accepted. Entries with an incomplete palette or a duplicate id are
// logged and skipped; only read and parse failures are returned.
func (c *Catalog) LoadFile(path string, logger *zap.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read theme file %q: %w", path, err)
	}

	var f themeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse theme file %q: %w", path, err)
	}

	loaded := 0
	for i := range f.Themes {
		if err := c.Register(f.Themes[i]); err != nil {
			logger.Warn("skipping theme from file",
				zap.String("file", path),
				zap.String("theme", string(f.Themes[i].ID)),
				zap.Error(err),
			)
			continue
		}
		loaded++
	}
	return loaded, nil
}

func sortedRoles(p models.Palette) []string {
	out := make([]string, 0, len(p))
	for r := range p {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
