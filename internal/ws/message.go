package ws

import (
	"time"

	"github.com/HerbHall/fleetdeck/internal/theme"
	"github.com/HerbHall/fleetdeck/internal/views"
)

// MessageType discriminates WebSocket messages. Values mirror the event bus
// topics they are forwarded from.
type MessageType string

const (
	MessageThemeChanged       MessageType = theme.TopicThemeChanged
	MessageViewCurrentChanged MessageType = views.TopicCurrentChanged
	MessageViewSaved          MessageType = views.TopicSaved
	MessageViewDeleted        MessageType = views.TopicDeleted
)

// Message is the envelope for all WebSocket messages. Data carries the event
// payload unchanged: theme.ChangedEvent, views.CurrentChangedEvent,
// views.SavedEvent or views.DeletedEvent.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
