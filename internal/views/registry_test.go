package views_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/internal/services"
	"github.com/HerbHall/fleetdeck/internal/testutil"
	"github.com/HerbHall/fleetdeck/internal/views"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// brokenRepo fails every save, and every load when loadErr is set.
type brokenRepo struct {
	loadErr error
	saves   int
}

func (b *brokenRepo) Load(context.Context) ([]models.View, error) {
	return nil, b.loadErr
}

func (b *brokenRepo) Save(context.Context, []models.View) error {
	b.saves++
	return errors.New("connection refused")
}

// brokenKV reads as empty and fails every write.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenKV) Set(context.Context, string, string) error        { return errors.New("read-only") }

type backend struct {
	settings services.SettingsRepository
	kv       *services.KeyValue
	repo     *views.SettingsCatalogRepository
}

func newBackend() backend {
	settings := services.NewMemorySettingsRepository()
	return backend{
		settings: settings,
		kv:       services.NewKeyValue(settings),
		repo:     views.NewSettingsCatalogRepository(settings),
	}
}

func d1() models.View {
	return testutil.NewView(testutil.WithID("d1"), testutil.WithName("Default"), testutil.WithDefault())
}

func byID(vs []models.View) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}

func newRegistry(t *testing.T, b backend, opts ...views.Option) *views.Registry {
	t.Helper()
	r := views.NewRegistry(b.repo, b.kv, nil, zaptest.NewLogger(t), opts...)
	require.NoError(t, r.Initialize(context.Background()))
	return r
}

func TestInitialize_SeedsDefaults(t *testing.T) {
	r := newRegistry(t, newBackend())

	defaults := r.ListDefaultViews()
	require.Len(t, defaults, len(views.DefaultViews()))
	for i, d := range views.DefaultViews() {
		assert.Equal(t, d.ID, defaults[i].ID)
		assert.True(t, defaults[i].IsDefault)
	}
	assert.Empty(t, r.ListUserViews())

	current, err := r.CurrentView()
	require.NoError(t, err)
	assert.Equal(t, views.DefaultViewID, current.ID)
}

func TestInitialize_OnlyOnce(t *testing.T) {
	r := newRegistry(t, newBackend())
	assert.ErrorIs(t, r.Initialize(context.Background()), views.ErrAlreadyInitialized)
}

func TestInitialize_NoDefaultsIsInvariantViolation(t *testing.T) {
	b := newBackend()
	r := views.NewRegistry(b.repo, b.kv, nil, zap.NewNop(), views.WithDefaults())
	err := r.Initialize(context.Background())
	assert.ErrorIs(t, err, views.ErrInvariant)
}

func TestMutationsBeforeInitialize(t *testing.T) {
	b := newBackend()
	r := views.NewRegistry(b.repo, b.kv, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, r.SetCurrentView(ctx, "default"), views.ErrNotInitialized)
	_, err := r.SaveView(ctx, testutil.NewView())
	assert.ErrorIs(t, err, views.ErrNotInitialized)
	assert.ErrorIs(t, r.DeleteView(ctx, "x"), views.ErrNotInitialized)
	_, err = r.CurrentView()
	assert.ErrorIs(t, err, views.ErrNotInitialized)
	var iv *views.InvariantViolation
	assert.ErrorAs(t, err, &iv)
}

func TestInitialize_MergesPersistedViews(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	edited := d1()
	edited.Name = "Edited default"
	edited.IsDefault = false
	user := testutil.NewView(testutil.WithID("u1"), testutil.WithDefault())
	require.NoError(t, b.repo.Save(ctx, []models.View{user, edited}))
	require.NoError(t, b.kv.Set(ctx, views.KeyCurrentView, "u1"))

	r := newRegistry(t, b, views.WithDefaults(d1()))

	all := r.Views()
	require.Len(t, all, 2)
	assert.Equal(t, "d1", all[0].ID, "defaults keep their seeded position")
	assert.Equal(t, "Edited default", all[0].Name)
	assert.True(t, all[0].IsDefault)
	assert.Equal(t, "u1", all[1].ID)
	assert.False(t, all[1].IsDefault, "persisted user views cannot claim default")
	assert.Equal(t, "u1", r.CurrentViewID())
}

func TestInitialize_SkipsInvalidPersistedViews(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	bad := testutil.NewView(testutil.WithID("bad"), testutil.WithSections(testutil.Section("a", 1), testutil.Section("a", 2)))
	require.NoError(t, b.repo.Save(ctx, []models.View{bad}))

	r := newRegistry(t, b, views.WithDefaults(d1()))
	_, err := r.View("bad")
	assert.ErrorIs(t, err, views.ErrNotFound)
}

func TestInitialize_UnresolvableCurrentFallsBack(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	require.NoError(t, b.kv.Set(ctx, views.KeyCurrentView, "deleted-elsewhere"))

	r := newRegistry(t, b, views.WithDefaults(d1()))
	assert.Equal(t, "d1", r.CurrentViewID())

	persisted, ok, err := b.kv.Get(ctx, views.KeyCurrentView)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "d1", persisted)
}

func TestInitialize_LoadFailureUsesDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &brokenRepo{loadErr: errors.New("connection refused")}
	core, logs := observer.New(zap.WarnLevel)
	r := views.NewRegistry(repo, brokenKV{}, nil, zap.New(core))
	require.NoError(t, r.Initialize(ctx))

	assert.Len(t, r.ListDefaultViews(), len(views.DefaultViews()))
	assert.Equal(t, 1, logs.FilterMessage("failed to load view catalog, using defaults").Len())

	// The stored catalog was never read, so changes stay in memory.
	v, err := r.SaveView(ctx, testutil.NewView())
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, v.ID))
	require.NoError(t, r.DeleteView(ctx, v.ID))
	assert.Zero(t, repo.saves)
	assert.Equal(t, 2, logs.FilterMessage("view catalog was not loaded, not saving changes").Len())
}

func TestInitialize_UnreadableCatalogIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.settings.Set(ctx, views.KeyCatalog, "{not json"))

	r := newRegistry(t, b, views.WithDefaults(d1()))
	_, err := r.SaveView(ctx, testutil.NewView(testutil.WithID("u1")))
	require.NoError(t, err)

	stored, err := b.settings.Get(ctx, views.KeyCatalog)
	require.NoError(t, err)
	assert.Equal(t, "{not json", stored.Value)
}

func TestInitialize_SkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.repo.Save(ctx, []models.View{d1(), testutil.NewView(testutil.WithID("u1"))}))
	stored, err := b.settings.Get(ctx, views.KeyCatalog)
	require.NoError(t, err)
	require.NoError(t, b.settings.Set(ctx, views.KeyCatalog, stored.Value[:len(stored.Value)-1]+",42]"))

	core, logs := observer.New(zap.WarnLevel)
	r := views.NewRegistry(b.repo, b.kv, nil, zap.New(core), views.WithDefaults(d1()))
	require.NoError(t, r.Initialize(ctx))

	assert.Equal(t, []string{"u1"}, byID(r.ListUserViews()))
	assert.Equal(t, 1, logs.FilterMessage("skipping unreadable persisted views").Len())
}

func TestCreateView_ExistingIDConflicts(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	_, err := r.CreateView(ctx, testutil.NewView(testutil.WithID("u1"), testutil.WithName("First")))
	require.NoError(t, err)

	_, err = r.CreateView(ctx, testutil.NewView(testutil.WithID("u1"), testutil.WithName("Second")))
	var conflict *views.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, views.ErrConflict)

	_, err = r.CreateView(ctx, testutil.NewView(testutil.WithID("d1")))
	assert.ErrorIs(t, err, views.ErrConflict)

	v, err := r.View("u1")
	require.NoError(t, err)
	assert.Equal(t, "First", v.Name)
}

func TestDeleteView_DefaultIsProtected(t *testing.T) {
	b := newBackend()
	r := newRegistry(t, b, views.WithDefaults(d1()))
	before := r.Views()

	err := r.DeleteView(context.Background(), "d1")

	var verr *views.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Protected)
	assert.Equal(t, before, r.Views())
}

func TestDeleteView_CurrentResetsToFallback(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	r := newRegistry(t, b, views.WithDefaults(d1()))

	u1, err := r.SaveView(ctx, testutil.NewView(testutil.WithID("u1")))
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, u1.ID))

	require.NoError(t, r.DeleteView(ctx, "u1"))

	current, err := r.CurrentView()
	require.NoError(t, err)
	assert.Equal(t, "d1", current.ID)

	persisted, _, err := b.kv.Get(ctx, views.KeyCurrentView)
	require.NoError(t, err)
	assert.Equal(t, "d1", persisted)
}

func TestDeleteView_NotCurrentKeepsPointer(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	_, err := r.SaveView(ctx, testutil.NewView(testutil.WithID("u1")))
	require.NoError(t, err)
	_, err = r.SaveView(ctx, testutil.NewView(testutil.WithID("u2")))
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, "u2"))

	require.NoError(t, r.DeleteView(ctx, "u1"))
	assert.Equal(t, "u2", r.CurrentViewID())
}

func TestDeleteView_NotFound(t *testing.T) {
	r := newRegistry(t, newBackend())
	var nf *views.NotFoundError
	require.ErrorAs(t, r.DeleteView(context.Background(), "ghost"), &nf)
	assert.Equal(t, "ghost", nf.ID)
}

func TestSaveView_IsIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	v := testutil.NewView(testutil.WithID("u1"))

	_, err := r.SaveView(ctx, v)
	require.NoError(t, err)
	users, defaults := len(r.ListUserViews()), len(r.ListDefaultViews())

	v.Name = "renamed"
	stored, err := r.SaveView(ctx, v)
	require.NoError(t, err)

	assert.Equal(t, "renamed", stored.Name)
	assert.Len(t, r.ListUserViews(), users)
	assert.Len(t, r.ListDefaultViews(), defaults)
	assert.Len(t, r.Views(), 2)
}

func TestSaveView_CannotPromoteToDefault(t *testing.T) {
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	stored, err := r.SaveView(context.Background(), testutil.NewView(testutil.WithDefault()))
	require.NoError(t, err)
	assert.False(t, stored.IsDefault)
}

func TestSaveView_OverwritingDefaultKeepsFlag(t *testing.T) {
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	edited := d1()
	edited.IsDefault = false
	edited.Name = "Tuned"

	stored, err := r.SaveView(context.Background(), edited)
	require.NoError(t, err)
	assert.True(t, stored.IsDefault)
	assert.Len(t, r.ListDefaultViews(), 1)
}

func TestSaveView_DuplicateSectionsRejected(t *testing.T) {
	r := newRegistry(t, newBackend(), views.WithDefaults(d1()))
	before := r.Views()

	_, err := r.SaveView(context.Background(), testutil.NewView(
		testutil.WithSections(testutil.Section("a", 1), testutil.Section("a", 2)),
	))

	var verr *views.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"a"}, verr.Duplicates)
	assert.Equal(t, before, r.Views())
}

func TestSaveView_EmptyIDRejected(t *testing.T) {
	r := newRegistry(t, newBackend())
	_, err := r.SaveView(context.Background(), testutil.NewView(testutil.WithID("")))
	assert.ErrorIs(t, err, views.ErrValidation)
}

func TestSetCurrentView(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	r := newRegistry(t, b)

	require.NoError(t, r.SetCurrentView(ctx, "maintenance"))
	assert.Equal(t, "maintenance", r.CurrentViewID())

	err := r.SetCurrentView(ctx, "nope")
	assert.ErrorIs(t, err, views.ErrNotFound)
	assert.Equal(t, "maintenance", r.CurrentViewID())

	fresh := newRegistry(t, b)
	assert.Equal(t, "maintenance", fresh.CurrentViewID())
}

func TestPersistenceFailuresDoNotFailMutations(t *testing.T) {
	ctx := context.Background()
	repo := &brokenRepo{}
	core, logs := observer.New(zap.WarnLevel)
	r := views.NewRegistry(repo, brokenKV{}, nil, zap.New(core), views.WithDefaults(d1()))
	require.NoError(t, r.Initialize(ctx))

	v, err := r.SaveView(ctx, testutil.NewView())
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, v.ID))
	require.NoError(t, r.DeleteView(ctx, v.ID))

	assert.Equal(t, 2, repo.saves)
	assert.Equal(t, "d1", r.CurrentViewID())
	assert.Equal(t, 2, logs.FilterMessage("failed to persist view catalog").Len())
	assert.GreaterOrEqual(t, logs.FilterMessage("failed to persist current view").Len(), 2)
}

func TestViewsForGroups(t *testing.T) {
	r := newRegistry(t, newBackend())

	assert.Equal(t, []string{"default", "operations"}, byID(r.ViewsForGroups("dispatcher")))
	assert.Equal(t, []string{"default", "operations", "maintenance"}, byID(r.ViewsForGroups("fleet_manager")))
	assert.Equal(t, []string{"default"}, byID(r.ViewsForGroups()))
}

func TestViewReturnsCopy(t *testing.T) {
	r := newRegistry(t, newBackend())
	v, err := r.View(views.DefaultViewID)
	require.NoError(t, err)
	v.Sections[0].Name = "mutated"

	again, err := r.View(views.DefaultViewID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Sections[0].Name)
}

func TestMutationsPublishEvents(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus(zap.NewNop())
	var mu sync.Mutex
	var topics []string
	bus.SubscribeAll(func(_ context.Context, e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		topics = append(topics, e.Topic)
	})

	b := newBackend()
	r := views.NewRegistry(b.repo, b.kv, bus, zaptest.NewLogger(t), views.WithDefaults(d1()))
	require.NoError(t, r.Initialize(ctx))
	v, err := r.SaveView(ctx, testutil.NewView())
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, v.ID))
	require.NoError(t, r.DeleteView(ctx, v.ID))

	// Failed mutations publish nothing.
	_ = r.DeleteView(ctx, "d1")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		views.TopicCurrentChanged,
		views.TopicSaved,
		views.TopicCurrentChanged,
		views.TopicDeleted,
		views.TopicCurrentChanged,
	}, topics)
}

func TestCurrentChangedReasons(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus(zap.NewNop())
	var reasons []string
	bus.Subscribe(views.TopicCurrentChanged, func(_ context.Context, e event.Event) {
		reasons = append(reasons, e.Payload.(views.CurrentChangedEvent).Reason)
	})

	b := newBackend()
	r := views.NewRegistry(b.repo, b.kv, bus, zaptest.NewLogger(t), views.WithDefaults(d1()))
	require.NoError(t, r.Initialize(ctx))
	v, err := r.SaveView(ctx, testutil.NewView())
	require.NoError(t, err)
	require.NoError(t, r.SetCurrentView(ctx, v.ID))
	require.NoError(t, r.DeleteView(ctx, v.ID))

	assert.Equal(t, []string{views.ReasonRestored, views.ReasonSelected, views.ReasonDeleted}, reasons)
}
