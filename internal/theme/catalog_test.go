package theme

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/fleetdeck/pkg/models"
)

func completePalette(c *Catalog, color string) models.Palette {
	p := make(models.Palette)
	for _, r := range c.Roles() {
		p[r] = color
	}
	return p
}

func TestNewCatalog_Builtins(t *testing.T) {
	c := NewCatalog()
	themes := c.Themes()

	ids := make([]models.ThemeID, 0, len(themes))
	for _, th := range themes {
		ids = append(ids, th.ID)
	}
	assert.Equal(t, []models.ThemeID{models.ThemeLight, models.ThemeDark, models.ThemeBlue, models.ThemeGreen}, ids)
	assert.Len(t, c.Roles(), 13)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		theme   func(c *Catalog) models.Theme
		wantErr bool
		check   func(t *testing.T, err error)
	}{
		{
			name: "complete palette",
			theme: func(c *Catalog) models.Theme {
				return models.Theme{ID: "solarized", Palette: completePalette(c, "#268bd2")}
			},
		},
		{
			name: "missing role",
			theme: func(c *Catalog) models.Theme {
				p := completePalette(c, "#fff")
				delete(p, models.RoleHover)
				return models.Theme{ID: "partial", Palette: p}
			},
			wantErr: true,
			check: func(t *testing.T, err error) {
				var ipe *IncompletePaletteError
				require.True(t, errors.As(err, &ipe))
				assert.Equal(t, []string{models.RoleHover}, ipe.Missing)
			},
		},
		{
			name: "blank role value",
			theme: func(c *Catalog) models.Theme {
				p := completePalette(c, "#fff")
				p[models.RoleText] = " "
				return models.Theme{ID: "blank", Palette: p}
			},
			wantErr: true,
		},
		{
			name: "extra role",
			theme: func(c *Catalog) models.Theme {
				p := completePalette(c, "#fff")
				p["glow"] = "#ff0"
				return models.Theme{ID: "glowing", Palette: p}
			},
			wantErr: true,
			check: func(t *testing.T, err error) {
				var ipe *IncompletePaletteError
				require.True(t, errors.As(err, &ipe))
				assert.Equal(t, []string{"glow"}, ipe.Unknown)
			},
		},
		{
			name: "duplicate id",
			theme: func(c *Catalog) models.Theme {
				return models.Theme{ID: models.ThemeDark, Palette: completePalette(c, "#000")}
			},
			wantErr: true,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDuplicateTheme)
			},
		},
		{
			name: "empty id",
			theme: func(c *Catalog) models.Theme {
				return models.Theme{Palette: completePalette(c, "#000")}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog()
			th := tt.theme(c)
			err := c.Register(th)
			if !tt.wantErr {
				require.NoError(t, err)
				_, ok := c.Lookup(th.ID)
				assert.True(t, ok)
				return
			}
			require.Error(t, err)
			if th.ID != "" && th.ID != models.ThemeDark {
				_, ok := c.Lookup(th.ID)
				assert.False(t, ok, "invalid theme must not be activatable")
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	c := NewCatalog()
	var b []byte
	b = append(b, "themes:\n  - id: midnight\n    name: Midnight\n    palette:\n"...)
	for _, r := range c.Roles() {
		b = append(b, "      "+r+": \"#101020\"\n"...)
	}
	b = append(b, "  - id: broken\n    palette:\n      primary: \"#fff\"\n"...)

	path := filepath.Join(t.TempDir(), "themes.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	n, err := c.LoadFile(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mid, ok := c.Lookup("midnight")
	require.True(t, ok)
	assert.Equal(t, "Midnight", mid.Name)
	_, ok = c.Lookup("broken")
	assert.False(t, ok)
}

func TestLoadFile_Errors(t *testing.T) {
	c := NewCatalog()
	_, err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), zaptest.NewLogger(t))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("themes: [oops"), 0o600))
	_, err = c.LoadFile(path, zaptest.NewLogger(t))
	assert.Error(t, err)
}
