package views

import (
	"fmt"
	"slices"

	"github.com/HerbHall/fleetdeck/pkg/models"
)

// Catalog is an immutable snapshot of the view catalog and the current-view
// pointer. Every transition returns a new Catalog; the receiver is never
// modified, so a rejected transition leaves the previous state intact.
type Catalog struct {
	order   []string
	views   map[string]models.View
	current string
}

// NewCatalog builds a catalog from views in order. Later duplicates of an id
// are dropped. If current does not resolve the fallback id is used. The
// result is not checked; call Check before trusting it.
func NewCatalog(views []models.View, current string) Catalog {
	c := Catalog{views: make(map[string]models.View, len(views))}
	for i := range views {
		if _, dup := c.views[views[i].ID]; dup {
			continue
		}
		c.order = append(c.order, views[i].ID)
		c.views[views[i].ID] = views[i].Clone()
	}
	c.current = current
	if _, ok := c.views[current]; !ok {
		c.current = c.FallbackID()
	}
	return c
}

func (c Catalog) clone() Catalog {
	next := Catalog{
		order:   slices.Clone(c.order),
		views:   make(map[string]models.View, len(c.views)),
		current: c.current,
	}
	for id, v := range c.views {
		next.views[id] = v
	}
	return next
}

// Len reports the number of views.
func (c Catalog) Len() int { return len(c.order) }

// CurrentViewID returns the id the current-view pointer names.
func (c Catalog) CurrentViewID() string { return c.current }

// Get returns a copy of the view with the given id.
func (c Catalog) Get(id string) (models.View, bool) {
	v, ok := c.views[id]
	if !ok {
		return models.View{}, false
	}
	return v.Clone(), true
}

// Views returns copies of every view in catalog order.
func (c Catalog) Views() []models.View {
	out := make([]models.View, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.views[id].Clone())
	}
	return out
}

// Partition splits the catalog into default and user views, each in catalog
// order.
func (c Catalog) Partition() (defaults, user []models.View) {
	defaults = []models.View{}
	user = []models.View{}
	for _, id := range c.order {
		v := c.views[id]
		if v.IsDefault {
			defaults = append(defaults, v.Clone())
		} else {
			user = append(user, v.Clone())
		}
	}
	return defaults, user
}

// FallbackID is the first default view in catalog order, or DefaultViewID.
func (c Catalog) FallbackID() string {
	for _, id := range c.order {
		if c.views[id].IsDefault {
			return id
		}
	}
	return DefaultViewID
}

// SetCurrent points the current view at id.
func (c Catalog) SetCurrent(id string) (Catalog, error) {
	if _, ok := c.views[id]; !ok {
		return c, &NotFoundError{ID: id}
	}
	next := c.clone()
	next.current = id
	return next, nil
}

// Upsert validates v and stores it. An existing id is replaced in place and
// keeps its IsDefault flag; a new id is appended as a user view. The stored
// view is returned.
func (c Catalog) Upsert(v models.View) (Catalog, models.View, error) {
	if err := ValidateView(v); err != nil {
		return c, models.View{}, err
	}
	stored := v.Clone()
	next := c.clone()
	if existing, ok := next.views[v.ID]; ok {
		stored.IsDefault = existing.IsDefault
	} else {
		stored.IsDefault = false
		next.order = append(next.order, v.ID)
	}
	next.views[v.ID] = stored
	return next, stored.Clone(), nil
}

// Remove deletes a user view. Default views are protected. If the removed
// view was current, the pointer moves to the fallback id.
func (c Catalog) Remove(id string) (Catalog, error) {
	v, ok := c.views[id]
	if !ok {
		return c, &NotFoundError{ID: id}
	}
	if v.IsDefault {
		return c, &ValidationError{
			ViewID:    id,
			Problems:  []string{"default views are protected"},
			Protected: true,
		}
	}
	next := c.clone()
	delete(next.views, id)
	next.order = slices.DeleteFunc(next.order, func(o string) bool { return o == id })
	if next.current == id {
		next.current = next.FallbackID()
	}
	return next, nil
}

// Check verifies the catalog invariants: the order index and the view map
// agree, at least one default view exists, and the current pointer resolves.
func (c Catalog) Check() error {
	if len(c.order) != len(c.views) {
		return &InvariantViolation{
			Invariant: "catalog-index",
			Detail:    fmt.Sprintf("%d ordered ids for %d views", len(c.order), len(c.views)),
		}
	}
	defaults := 0
	for _, id := range c.order {
		v, ok := c.views[id]
		if !ok {
			return &InvariantViolation{Invariant: "catalog-index", Detail: fmt.Sprintf("ordered id %q has no view", id)}
		}
		if v.IsDefault {
			defaults++
		}
	}
	if defaults == 0 {
		return &InvariantViolation{Invariant: "default-view-exists", Detail: "catalog has no default view"}
	}
	if _, ok := c.views[c.current]; !ok {
		return &InvariantViolation{
			Invariant: "current-view-resolves",
			Detail:    fmt.Sprintf("current view %q is not in the catalog", c.current),
		}
	}
	return nil
}
