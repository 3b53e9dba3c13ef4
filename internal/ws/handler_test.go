package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/internal/theme"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

func TestHandler_StreamsBusEvents(t *testing.T) {
	logger := zaptest.NewLogger(t)
	bus := event.NewBus(logger)
	h := NewHandler(bus, logger, true)
	defer h.Close()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/settings"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for h.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_ = bus.Publish(ctx, event.Event{
		Topic:   theme.TopicThemeChanged,
		Source:  "theme",
		Payload: theme.ChangedEvent{ThemeID: models.ThemeDark},
	})

	var got struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Type != MessageThemeChanged {
		t.Errorf("Type = %q, want %q", got.Type, MessageThemeChanged)
	}
	var payload theme.ChangedEvent
	if err := json.Unmarshal(got.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ThemeID != models.ThemeDark {
		t.Errorf("ThemeID = %q, want dark", payload.ThemeID)
	}
}

func TestHandler_IgnoresOtherTopics(t *testing.T) {
	bus := event.NewBus(zaptest.NewLogger(t))
	h := NewHandler(bus, zaptest.NewLogger(t), false)
	defer h.Close()

	client := newTestClient("10.0.0.1:5000")
	h.Hub().Register(client)

	_ = bus.Publish(context.Background(), event.Event{Topic: "fleet.vehicle_moved"})
	_ = bus.Publish(context.Background(), event.Event{Topic: "view.saved"})

	if got := len(client.send); got != 1 {
		t.Fatalf("queued messages = %d, want 1", got)
	}
	if msg := <-client.send; msg.Type != MessageViewSaved {
		t.Errorf("Type = %q, want %q", msg.Type, MessageViewSaved)
	}
}

func TestHandler_CloseUnsubscribes(t *testing.T) {
	bus := event.NewBus(zaptest.NewLogger(t))
	h := NewHandler(bus, zaptest.NewLogger(t), false)
	client := newTestClient("10.0.0.1:5000")
	h.Hub().Register(client)

	h.Close()
	_ = bus.Publish(context.Background(), event.Event{Topic: theme.TopicThemeChanged})

	if got := len(client.send); got != 0 {
		t.Errorf("queued messages after Close = %d, want 0", got)
	}
}
