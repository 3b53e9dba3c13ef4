// Package metrics exports Prometheus series for theme and view activity,
// fed from the event bus.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/internal/theme"
	"github.com/HerbHall/fleetdeck/internal/views"
)

// Subscriber is the part of the event bus the collector needs.
type Subscriber interface {
	Subscribe(topic string, handler event.Handler) (unsubscribe func())
}

// Collector owns the settings metrics.
type Collector struct {
	themeChanges  *prometheus.CounterVec
	viewMutations *prometheus.CounterVec
	userViews     prometheus.GaugeFunc
	unsubscribe   []func()
}

// NewCollector registers the settings metrics on reg and subscribes to bus.
// userViews is sampled at scrape time for fleetdeck_user_views.
func NewCollector(reg prometheus.Registerer, bus Subscriber, userViews func() int) (*Collector, error) {
	c := &Collector{
		themeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetdeck",
			Name:      "theme_changes_total",
			Help:      "Theme applications, by applied theme id.",
		}, []string{"theme"}),
		viewMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetdeck",
			Name:      "view_mutations_total",
			Help:      "Successful view registry mutations, by operation.",
		}, []string{"op"}),
		userViews: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "fleetdeck",
			Name:      "user_views",
			Help:      "User-created views in the catalog.",
		}, func() float64 { return float64(userViews()) }),
	}

	for _, col := range []prometheus.Collector{c.themeChanges, c.viewMutations, c.userViews} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register settings metrics: %w", err)
		}
	}

	c.unsubscribe = append(c.unsubscribe,
		bus.Subscribe(theme.TopicThemeChanged, c.onThemeChanged),
		bus.Subscribe(views.TopicSaved, c.onViewMutation("save")),
		bus.Subscribe(views.TopicDeleted, c.onViewMutation("delete")),
		bus.Subscribe(views.TopicCurrentChanged, c.onCurrentChanged),
	)
	return c, nil
}

// Close detaches the collector from the bus. Registered series remain.
func (c *Collector) Close() {
	for _, u := range c.unsubscribe {
		u()
	}
	c.unsubscribe = nil
}

func (c *Collector) onThemeChanged(_ context.Context, e event.Event) {
	p, ok := e.Payload.(theme.ChangedEvent)
	if !ok {
		return
	}
	c.themeChanges.WithLabelValues(string(p.ThemeID)).Inc()
}

// onCurrentChanged counts explicit selections only. The pointer also moves
// on startup and when the current view is deleted; those are not selects.
func (c *Collector) onCurrentChanged(_ context.Context, e event.Event) {
	p, ok := e.Payload.(views.CurrentChangedEvent)
	if !ok || p.Reason != views.ReasonSelected {
		return
	}
	c.viewMutations.WithLabelValues("select").Inc()
}

func (c *Collector) onViewMutation(op string) event.Handler {
	return func(context.Context, event.Event) {
		c.viewMutations.WithLabelValues(op).Inc()
	}
}
