// Package theme owns the active color theme: which theme is selected, its
// resolved palette, and pushing that palette into the rendering environment.
//
// An unknown theme id is never an error. The store logs a warning and
// applies the light theme so the UI always stays in a valid state.
package theme

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// KeyTheme is the persistence key holding the active theme id.
const KeyTheme = "theme"

// TopicThemeChanged is published after a palette has been applied.
const TopicThemeChanged = "theme.changed"

// FallbackTheme is applied whenever a requested or persisted id is unknown.
const FallbackTheme = models.ThemeLight

var (
	ErrAlreadyInitialized = errors.New("theme store already initialized")
	ErrNotInitialized     = errors.New("theme store not initialized")
)

// KeyValueStore is the durable string store the theme id persists to.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ChangedEvent is the payload of TopicThemeChanged.
type ChangedEvent struct {
	ThemeID   models.ThemeID `json:"theme_id"`
	Requested string         `json:"requested,omitempty"`
	Fallback  bool           `json:"fallback"`
	Palette   models.Palette `json:"palette"`
}

// Store holds the active theme for one session.
type Store struct {
	mu          sync.Mutex
	kv          KeyValueStore
	sink        StyleSink
	catalog     *Catalog
	bus         event.Publisher
	logger      *zap.Logger
	current     models.ThemeID
	initialized bool
}

// NewStore creates a Store. catalog, bus and logger may be nil; a nil catalog
// means the built-in themes only.
func NewStore(kv KeyValueStore, sink StyleSink, catalog *Catalog, bus event.Publisher, logger *zap.Logger) *Store {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:      kv,
		sink:    sink,
		catalog: catalog,
		bus:     bus,
		logger:  logger,
		current: FallbackTheme,
	}
}

// Initialize loads the persisted theme id (or falls back to light) and
// applies its palette. It may run only once per Store.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}

	id := FallbackTheme
	raw, ok, err := s.kv.Get(ctx, KeyTheme)
	switch {
	case err != nil:
		s.logger.Warn("failed to read persisted theme, using fallback",
			zap.String("fallback", string(FallbackTheme)),
			zap.Error(err),
		)
	case !ok:
		s.logger.Debug("no persisted theme, using fallback", zap.String("fallback", string(FallbackTheme)))
	default:
		if _, known := s.catalog.Lookup(models.ThemeID(raw)); known {
			id = models.ThemeID(raw)
		} else {
			s.logger.Warn("persisted theme is unknown, using fallback",
				zap.String("persisted", raw),
				zap.String("fallback", string(FallbackTheme)),
			)
		}
	}

	s.current = id
	s.initialized = true
	if !ok || raw != string(id) {
		s.persist(ctx, id)
	}
	palette := s.apply(id)
	s.mu.Unlock()

	s.publish(ctx, ChangedEvent{ThemeID: id, Requested: raw, Fallback: ok && raw != string(id), Palette: palette})
	return nil
}

// SetTheme activates id, persists it, and re-applies the palette. An unknown
// id activates light instead. The returned id is the one actually applied.
func (s *Store) SetTheme(ctx context.Context, id models.ThemeID) (models.ThemeID, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return "", ErrNotInitialized
	}

	applied := id
	if _, known := s.catalog.Lookup(id); !known {
		s.logger.Warn("unknown theme requested, falling back",
			zap.String("requested", string(id)),
			zap.String("fallback", string(FallbackTheme)),
		)
		applied = FallbackTheme
	}

	s.current = applied
	s.persist(ctx, applied)
	palette := s.apply(applied)
	s.mu.Unlock()

	s.publish(ctx, ChangedEvent{
		ThemeID:   applied,
		Requested: string(id),
		Fallback:  applied != id,
		Palette:   palette,
	})
	return applied, nil
}

// ThemeColors returns a copy of the active palette.
func (s *Store) ThemeColors() models.Palette {
	s.mu.Lock()
	id := s.current
	s.mu.Unlock()
	t, _ := s.catalog.Lookup(id)
	return t.Palette
}

// CurrentThemeID returns the active theme id.
func (s *Store) CurrentThemeID() models.ThemeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Themes lists every activatable theme.
func (s *Store) Themes() []models.Theme {
	return s.catalog.Themes()
}

// persist writes the theme id. Failures are logged and otherwise ignored;
// the in-memory selection stays authoritative for the session.
// Must be called with s.mu held.
func (s *Store) persist(ctx context.Context, id models.ThemeID) {
	if err := s.kv.Set(ctx, KeyTheme, string(id)); err != nil {
		s.logger.Warn("failed to persist theme",
			zap.String("theme", string(id)),
			zap.Error(err),
		)
	}
}

// apply pushes every role of id's palette into the sink as a style variable
// and tags the container. Must be called with s.mu held.
func (s *Store) apply(id models.ThemeID) models.Palette {
	t, _ := s.catalog.Lookup(id)
	if s.sink == nil {
		return t.Palette
	}

	roles := make([]string, 0, len(t.Palette))
	for r := range t.Palette {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for _, r := range roles {
		s.sink.SetVariable(VariableName(r), t.Palette[r])
	}
	s.sink.SetContainerTag(ContainerTag(string(id)))

	s.logger.Debug("theme applied", zap.String("theme", string(id)), zap.Int("variables", len(roles)))
	return t.Palette
}

func (s *Store) publish(ctx context.Context, payload ChangedEvent) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event.Event{
		Topic:   TopicThemeChanged,
		Source:  "theme",
		Payload: payload,
	})
}
