package theme

import "github.com/HerbHall/fleetdeck/pkg/models"

// builtinThemes are registered by NewCatalog in this order. light comes first
// because its role set is the reference every other theme is checked against.
var builtinThemes = []models.Theme{
	{
		ID:   models.ThemeLight,
		Name: "Light",
		Palette: models.Palette{
			models.RolePrimary:     "#1976d2",
			models.RoleSecondary:   "#9c27b0",
			models.RoleBackground:  "#f5f7fa",
			models.RoleSurface:     "#ffffff",
			models.RoleText:        "#1f2933",
			models.RoleTextMuted:   "#616e7c",
			models.RoleBorder:      "#d9e2ec",
			models.RoleSidebar:     "#ffffff",
			models.RoleSidebarText: "#334e68",
			models.RoleHover:       "#e3f2fd",
			models.RoleSuccess:     "#2e7d32",
			models.RoleWarning:     "#ed6c02",
			models.RoleDanger:      "#d32f2f",
		},
	},
	{
		ID:   models.ThemeDark,
		Name: "Dark",
		Palette: models.Palette{
			models.RolePrimary:     "#90caf9",
			models.RoleSecondary:   "#ce93d8",
			models.RoleBackground:  "#121212",
			models.RoleSurface:     "#1e1e1e",
			models.RoleText:        "#e0e0e0",
			models.RoleTextMuted:   "#9e9e9e",
			models.RoleBorder:      "#333333",
			models.RoleSidebar:     "#1a1a1a",
			models.RoleSidebarText: "#e0e0e0",
			models.RoleHover:       "#2c2c2c",
			models.RoleSuccess:     "#66bb6a",
			models.RoleWarning:     "#ffa726",
			models.RoleDanger:      "#f44336",
		},
	},
	{
		ID:   models.ThemeBlue,
		Name: "Blue",
		Palette: models.Palette{
			models.RolePrimary:     "#0d47a1",
			models.RoleSecondary:   "#00838f",
			models.RoleBackground:  "#e8f0fe",
			models.RoleSurface:     "#ffffff",
			models.RoleText:        "#0b1f3a",
			models.RoleTextMuted:   "#4a6283",
			models.RoleBorder:      "#bbd0f0",
			models.RoleSidebar:     "#0d47a1",
			models.RoleSidebarText: "#ffffff",
			models.RoleHover:       "#1565c0",
			models.RoleSuccess:     "#2e7d32",
			models.RoleWarning:     "#f9a825",
			models.RoleDanger:      "#c62828",
		},
	},
	{
		ID:   models.ThemeGreen,
		Name: "Green",
		Palette: models.Palette{
			models.RolePrimary:     "#2e7d32",
			models.RoleSecondary:   "#00695c",
			models.RoleBackground:  "#f1f8e9",
			models.RoleSurface:     "#ffffff",
			models.RoleText:        "#1b2e1c",
			models.RoleTextMuted:   "#56705a",
			models.RoleBorder:      "#c5e1a5",
			models.RoleSidebar:     "#1b5e20",
			models.RoleSidebarText: "#e8f5e9",
			models.RoleHover:       "#388e3c",
			models.RoleSuccess:     "#43a047",
			models.RoleWarning:     "#fb8c00",
			models.RoleDanger:      "#e53935",
		},
	},
}
