package models

// SectionType tags the dashboard widget a section renders. The configuration
// core never interprets it.
type SectionType string

const (
	SectionKPI         SectionType = "kpi"
	SectionChart       SectionType = "chart"
	SectionTable       SectionType = "table"
	SectionMap         SectionType = "map"
	SectionAlerts      SectionType = "alerts"
	SectionMaintenance SectionType = "maintenance"
)

// ViewSection is one dashboard block inside a view.
type ViewSection struct {
	ID      string      `json:"id" validate:"required" example:"fleet-kpis"`
	Name    string      `json:"name" example:"Fleet KPIs"`
	Type    SectionType `json:"type" example:"kpi"`
	Visible bool        `json:"visible"`
	Order   int         `json:"order" example:"1"`
}

// View is a named, ordered set of dashboard sections a user can select.
type View struct {
	ID          string        `json:"id" validate:"required" example:"dispatch"`
	Name        string        `json:"name" example:"Dispatch"`
	Description string        `json:"description,omitempty" example:"Live vehicle positions and alerts"`
	IsDefault   bool          `json:"isDefault"`
	Sections    []ViewSection `json:"sections" validate:"dive"`
	UserGroups  []string      `json:"userGroups,omitempty"`
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (v View) Clone() View {
	out := v
	if v.Sections != nil {
		out.Sections = make([]ViewSection, len(v.Sections))
		copy(out.Sections, v.Sections)
	}
	if v.UserGroups != nil {
		out.UserGroups = make([]string, len(v.UserGroups))
		copy(out.UserGroups, v.UserGroups)
	}
	return out
}
