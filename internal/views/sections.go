package views

import (
	"cmp"
	"slices"

	"github.com/HerbHall/fleetdeck/pkg/models"
)

// OrderedSections returns the view's sections in render order: ascending by
// Order, with equal Order values kept in their original array position.
func OrderedSections(v models.View) []models.ViewSection {
	out := slices.Clone(v.Sections)
	slices.SortStableFunc(out, func(a, b models.ViewSection) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// VisibleSections returns the sections that render, in render order.
func VisibleSections(v models.View) []models.ViewSection {
	ordered := OrderedSections(v)
	out := ordered[:0]
	for _, s := range ordered {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}
