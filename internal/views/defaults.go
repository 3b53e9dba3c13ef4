package views

import "github.com/HerbHall/fleetdeck/pkg/models"

// DefaultViewID is the fallback when a catalog somehow carries no default
// view. Catalog.Check rejects such catalogs, so in practice the fallback is
// always the first default view.
const DefaultViewID = "default"

// DefaultViews returns the built-in views seeded on every start.
func DefaultViews() []models.View {
	return []models.View{
		{
			ID:          DefaultViewID,
			Name:        "Fleet Overview",
			Description: "Headline KPIs, vehicle status and open alerts.",
			IsDefault:   true,
			Sections: []models.ViewSection{
				{ID: "fleet-kpis", Name: "Fleet KPIs", Type: models.SectionKPI, Visible: true, Order: 1},
				{ID: "vehicle-status", Name: "Vehicle Status", Type: models.SectionChart, Visible: true, Order: 2},
				{ID: "fuel-consumption", Name: "Fuel Consumption", Type: models.SectionChart, Visible: true, Order: 3},
				{ID: "active-alerts", Name: "Active Alerts", Type: models.SectionAlerts, Visible: true, Order: 4},
				{ID: "vehicle-table", Name: "Vehicles", Type: models.SectionTable, Visible: true, Order: 5},
			},
		},
		{
			ID:          "operations",
			Name:        "Operations",
			Description: "Live positions, trips and driver performance.",
			IsDefault:   true,
			Sections: []models.ViewSection{
				{ID: "live-map", Name: "Live Map", Type: models.SectionMap, Visible: true, Order: 1},
				{ID: "trip-timeline", Name: "Trip Timeline", Type: models.SectionChart, Visible: true, Order: 2},
				{ID: "driver-performance", Name: "Driver Performance", Type: models.SectionTable, Visible: true, Order: 3},
				{ID: "active-alerts", Name: "Active Alerts", Type: models.SectionAlerts, Visible: false, Order: 4},
			},
			UserGroups: []string{"dispatcher", "fleet_manager"},
		},
		{
			ID:          "maintenance",
			Name:        "Maintenance",
			Description: "Service schedule, costs and downtime.",
			IsDefault:   true,
			Sections: []models.ViewSection{
				{ID: "maintenance-due", Name: "Maintenance Due", Type: models.SectionMaintenance, Visible: true, Order: 1},
				{ID: "service-costs", Name: "Service Costs", Type: models.SectionChart, Visible: true, Order: 2},
				{ID: "downtime", Name: "Downtime", Type: models.SectionKPI, Visible: true, Order: 3},
				{ID: "work-orders", Name: "Work Orders", Type: models.SectionTable, Visible: true, Order: 4},
			},
			UserGroups: []string{"mechanic", "fleet_manager"},
		},
	}
}
