package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/event"
)

// Subscriber is the part of the event bus the handler needs.
type Subscriber interface {
	Subscribe(topic string, handler event.Handler) (unsubscribe func())
}

// Handler streams theme and view changes to browsers over WebSocket.
type Handler struct {
	hub            *Hub
	logger         *zap.Logger
	allowAnyOrigin bool
	unsubscribe    []func()
}

// NewHandler creates a WebSocket handler and subscribes it to the settings
// topics on bus. allowAnyOrigin disables the same-origin check, which the
// dev-mode frontend server needs.
func NewHandler(bus Subscriber, logger *zap.Logger, allowAnyOrigin bool) *Handler {
	h := &Handler{
		hub:            NewHub(logger),
		logger:         logger,
		allowAnyOrigin: allowAnyOrigin,
	}
	if bus != nil {
		for _, t := range []MessageType{
			MessageThemeChanged,
			MessageViewCurrentChanged,
			MessageViewSaved,
			MessageViewDeleted,
		} {
			h.unsubscribe = append(h.unsubscribe, bus.Subscribe(string(t), h.forward))
		}
	}
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/settings", h.handleSettingsStream)
}

// Hub exposes the client hub.
func (h *Handler) Hub() *Hub { return h.hub }

// Close detaches the handler from the event bus.
func (h *Handler) Close() {
	for _, u := range h.unsubscribe {
		u()
	}
	h.unsubscribe = nil
}

func (h *Handler) forward(_ context.Context, e event.Event) {
	h.hub.Broadcast(Message{
		Type:      MessageType(e.Topic),
		Timestamp: e.Timestamp,
		Data:      e.Payload,
	})
}

func (h *Handler) handleSettingsStream(w http.ResponseWriter, r *http.Request) {
	// The server's read/write timeouts would otherwise cut long-lived streams.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.allowAnyOrigin,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:       conn,
		remoteAddr: r.RemoteAddr,
		send:       make(chan Message, sendBuffer),
		logger:     h.logger,
	}
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// Blocks until the client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}
