// Package views owns the catalog of dashboard views and the pointer to the
// view currently displayed.
//
// State changes are computed as pure transitions on Catalog, checked with
// Catalog.Check, and only then swapped in and persisted. Persistence failures
// are logged; the in-memory catalog remains authoritative for the session.
package views

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// KeyCurrentView is the persistence key holding the current view id.
const KeyCurrentView = "currentView"

// Event topics published after successful mutations.
const (
	TopicCurrentChanged = "view.current_changed"
	TopicSaved          = "view.saved"
	TopicDeleted        = "view.deleted"
)

// KeyValueStore is the durable string store the current view id persists to.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CatalogRepository persists the full view catalog.
//
// Load may return the readable views together with an error matching
// ErrCorruptView; any other error means nothing usable was read.
type CatalogRepository interface {
	Load(ctx context.Context) ([]models.View, error)
	Save(ctx context.Context, views []models.View) error
}

// CurrentSaver is implemented by repositories that can write the catalog and
// the current view id in one transaction.
type CurrentSaver interface {
	SaveWithCurrent(ctx context.Context, views []models.View, currentID string) error
}

// Why the current view pointer moved.
const (
	ReasonRestored = "restored" // Initialize
	ReasonSelected = "selected" // SetCurrentView
	ReasonDeleted  = "deleted"  // the current view was deleted
)

// CurrentChangedEvent is the payload of TopicCurrentChanged.
type CurrentChangedEvent struct {
	ViewID   string `json:"view_id"`
	Previous string `json:"previous,omitempty"`
	Reason   string `json:"reason"`
}

// SavedEvent is the payload of TopicSaved.
type SavedEvent struct {
	View    models.View `json:"view"`
	Created bool        `json:"created"`
}

// DeletedEvent is the payload of TopicDeleted.
type DeletedEvent struct {
	ViewID        string `json:"view_id"`
	CurrentViewID string `json:"current_view_id"`
	CurrentReset  bool   `json:"current_reset"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaults replaces the built-in default views seeded by Initialize.
func WithDefaults(views ...models.View) Option {
	return func(r *Registry) {
		r.defaults = make([]models.View, len(views))
		for i := range views {
			r.defaults[i] = views[i].Clone()
		}
	}
}

// Registry holds the view catalog for one session.
type Registry struct {
	mu          sync.Mutex
	repo        CatalogRepository
	kv          KeyValueStore
	bus         event.Publisher
	logger      *zap.Logger
	defaults    []models.View
	state       Catalog
	initialized bool

	// catalogUnread is set when Initialize could not read the stored
	// catalog. Saving then would overwrite views this session never saw.
	catalogUnread bool
}

// NewRegistry creates a Registry. bus and logger may be nil.
func NewRegistry(repo CatalogRepository, kv KeyValueStore, bus event.Publisher, logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		repo:     repo,
		kv:       kv,
		bus:      bus,
		logger:   logger,
		defaults: DefaultViews(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize seeds the default views, merges persisted views on top, and
// restores the current view pointer. It may run only once per Registry.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}

	merged := make([]models.View, 0, len(r.defaults))
	index := make(map[string]int, len(r.defaults))
	for _, d := range r.defaults {
		d = d.Clone()
		d.IsDefault = true
		index[d.ID] = len(merged)
		merged = append(merged, d)
	}

	persisted, err := r.repo.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCorruptView):
		r.logger.Warn("skipping unreadable persisted views", zap.Error(err))
	default:
		r.logger.Warn("failed to load view catalog, using defaults", zap.Error(err))
		r.catalogUnread = true
	}
	for _, p := range persisted {
		if verr := ValidateView(p); verr != nil {
			r.logger.Warn("skipping invalid persisted view", zap.String("view_id", p.ID), zap.Error(verr))
			continue
		}
		if i, ok := index[p.ID]; ok {
			if merged[i].IsDefault {
				p.IsDefault = true
				merged[i] = p.Clone()
				continue
			}
			r.logger.Warn("skipping duplicate persisted view", zap.String("view_id", p.ID))
			continue
		}
		p.IsDefault = false
		index[p.ID] = len(merged)
		merged = append(merged, p.Clone())
	}

	raw, ok, err := r.kv.Get(ctx, KeyCurrentView)
	if err != nil {
		r.logger.Warn("failed to read persisted current view", zap.Error(err))
	}

	next := NewCatalog(merged, raw)
	if err := next.Check(); err != nil {
		r.mu.Unlock()
		return err
	}
	if ok && raw != next.CurrentViewID() {
		r.logger.Warn("persisted current view is unknown, using fallback",
			zap.String("persisted", raw),
			zap.String("fallback", next.CurrentViewID()),
		)
	}

	r.state = next
	r.initialized = true
	if !ok || raw != next.CurrentViewID() {
		r.persistCurrent(ctx, next.CurrentViewID())
	}
	current := next.CurrentViewID()
	r.mu.Unlock()

	r.logger.Info("view catalog loaded",
		zap.Int("views", next.Len()),
		zap.String("current_view", current),
	)
	r.publish(ctx, TopicCurrentChanged, CurrentChangedEvent{ViewID: current, Reason: ReasonRestored})
	return nil
}

// SetCurrentView moves the current view pointer to id and persists it.
func (r *Registry) SetCurrentView(ctx context.Context, id string) error {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return ErrNotInitialized
	}
	previous := r.state.CurrentViewID()
	next, err := r.state.SetCurrent(id)
	if err == nil {
		err = next.Check()
	}
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = next
	r.persistCurrent(ctx, id)
	r.mu.Unlock()

	r.publish(ctx, TopicCurrentChanged, CurrentChangedEvent{ViewID: id, Previous: previous, Reason: ReasonSelected})
	return nil
}

// SaveView inserts or replaces a view by id and persists the catalog. The
// stored view is returned; its IsDefault flag is owned by the registry.
func (r *Registry) SaveView(ctx context.Context, v models.View) (models.View, error) {
	return r.upsert(ctx, v, false)
}

// CreateView is SaveView for ids that must not exist yet. An existing id
// yields *ConflictError and leaves the catalog unchanged.
func (r *Registry) CreateView(ctx context.Context, v models.View) (models.View, error) {
	return r.upsert(ctx, v, true)
}

func (r *Registry) upsert(ctx context.Context, v models.View, mustCreate bool) (models.View, error) {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return models.View{}, ErrNotInitialized
	}
	_, existed := r.state.Get(v.ID)
	if existed && mustCreate {
		r.mu.Unlock()
		return models.View{}, &ConflictError{ID: v.ID}
	}
	next, stored, err := r.state.Upsert(v)
	if err == nil {
		err = next.Check()
	}
	if err != nil {
		r.mu.Unlock()
		return models.View{}, err
	}
	r.state = next
	r.persistCatalog(ctx, next)
	r.mu.Unlock()

	r.publish(ctx, TopicSaved, SavedEvent{View: stored.Clone(), Created: !existed})
	return stored, nil
}

// DeleteView removes a user view. If it was current, the pointer falls back
// to the first default view.
func (r *Registry) DeleteView(ctx context.Context, id string) error {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return ErrNotInitialized
	}
	wasCurrent := r.state.CurrentViewID() == id
	next, err := r.state.Remove(id)
	if err == nil {
		err = next.Check()
	}
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = next
	current := next.CurrentViewID()
	if wasCurrent {
		r.persistCatalogAndCurrent(ctx, next)
	} else {
		r.persistCatalog(ctx, next)
	}
	r.mu.Unlock()

	r.publish(ctx, TopicDeleted, DeletedEvent{ViewID: id, CurrentViewID: current, CurrentReset: wasCurrent})
	if wasCurrent {
		r.publish(ctx, TopicCurrentChanged, CurrentChangedEvent{ViewID: current, Previous: id, Reason: ReasonDeleted})
	}
	return nil
}

// CurrentView returns the view the pointer names. An error here is always an
// *InvariantViolation; before Initialize it also matches ErrNotInitialized.
func (r *Registry) CurrentView() (models.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return models.View{}, &InvariantViolation{
			Invariant: "initialized",
			Detail:    "current view requested before Initialize",
			Cause:     ErrNotInitialized,
		}
	}
	v, ok := r.state.Get(r.state.CurrentViewID())
	if !ok {
		return models.View{}, &InvariantViolation{
			Invariant: "current-view-resolves",
			Detail:    "current view " + r.state.CurrentViewID() + " is not in the catalog",
		}
	}
	return v, nil
}

// CurrentViewID returns the id of the current view.
func (r *Registry) CurrentViewID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CurrentViewID()
}

// View looks up a view by id.
func (r *Registry) View(id string) (models.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.state.Get(id)
	if !ok {
		return models.View{}, &NotFoundError{ID: id}
	}
	return v, nil
}

// Views returns every view in catalog order.
func (r *Registry) Views() []models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Views()
}

// ListUserViews returns the user-created views in catalog order.
func (r *Registry) ListUserViews() []models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, user := r.state.Partition()
	return user
}

// ListDefaultViews returns the built-in views in catalog order.
func (r *Registry) ListDefaultViews() []models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	defaults, _ := r.state.Partition()
	return defaults
}

// ViewsForGroups returns the views visible to a member of any of groups.
// Views without user groups are visible to everyone.
func (r *Registry) ViewsForGroups(groups ...string) []models.View {
	return FilterVisible(r.Views(), groups...)
}

// FilterVisible keeps the views in list visible to a member of any of
// groups, in order.
func FilterVisible(list []models.View, groups ...string) []models.View {
	out := make([]models.View, 0, len(list))
	for _, v := range list {
		if VisibleTo(v, groups...) {
			out = append(out, v)
		}
	}
	return out
}

// VisibleTo reports whether a member of any of groups may see v.
func VisibleTo(v models.View, groups ...string) bool {
	if len(v.UserGroups) == 0 {
		return true
	}
	return slices.ContainsFunc(v.UserGroups, func(g string) bool {
		return slices.Contains(groups, g)
	})
}

// Must be called with r.mu held.
func (r *Registry) persistCurrent(ctx context.Context, id string) {
	if err := r.kv.Set(ctx, KeyCurrentView, id); err != nil {
		r.logger.Warn("failed to persist current view",
			zap.String("view_id", id),
			zap.Error(err),
		)
	}
}

// Must be called with r.mu held.
func (r *Registry) persistCatalog(ctx context.Context, c Catalog) {
	if r.catalogUnread {
		r.logger.Warn("view catalog was not loaded, not saving changes",
			zap.Int("views", c.Len()),
		)
		return
	}
	if err := r.repo.Save(ctx, c.Views()); err != nil {
		r.logger.Warn("failed to persist view catalog",
			zap.Int("views", c.Len()),
			zap.Error(err),
		)
	}
}

// persistCatalogAndCurrent writes the catalog and the pointer together when
// the repository supports it. Must be called with r.mu held.
func (r *Registry) persistCatalogAndCurrent(ctx context.Context, c Catalog) {
	saver, ok := r.repo.(CurrentSaver)
	if !ok || r.catalogUnread {
		r.persistCatalog(ctx, c)
		r.persistCurrent(ctx, c.CurrentViewID())
		return
	}
	if err := saver.SaveWithCurrent(ctx, c.Views(), c.CurrentViewID()); err != nil {
		r.logger.Warn("failed to persist view catalog",
			zap.Int("views", c.Len()),
			zap.String("current_view", c.CurrentViewID()),
			zap.Error(err),
		)
	}
}

func (r *Registry) publish(ctx context.Context, topic string, payload any) {
	if r.bus == nil {
		return
	}
	_ = r.bus.Publish(ctx, event.Event{
		Topic:   topic,
		Source:  "views",
		Payload: payload,
	})
}
