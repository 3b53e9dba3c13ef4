package models

// ThemeID identifies a color theme.
type ThemeID string

const (
	ThemeLight ThemeID = "light"
	ThemeDark  ThemeID = "dark"
	ThemeBlue  ThemeID = "blue"
	ThemeGreen ThemeID = "green"
)

// Semantic color roles. Every theme defines all of them.
const (
	RolePrimary     = "primary"
	RoleSecondary   = "secondary"
	RoleBackground  = "background"
	RoleSurface     = "surface"
	RoleText        = "text"
	RoleTextMuted   = "textMuted"
	RoleBorder      = "border"
	RoleSidebar     = "sidebar"
	RoleSidebarText = "sidebarText"
	RoleHover       = "hover"
	RoleSuccess     = "success"
	RoleWarning     = "warning"
	RoleDanger      = "danger"
)

// Palette maps a semantic color role to a color value.
type Palette map[string]string

// Clone returns an independent copy of the palette.
func (p Palette) Clone() Palette {
	out := make(Palette, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Theme is a named palette.
type Theme struct {
	ID      ThemeID `json:"id" yaml:"id" example:"dark"`
	Name    string  `json:"name" yaml:"name" example:"Dark"`
	Palette Palette `json:"palette" yaml:"palette"`
}
