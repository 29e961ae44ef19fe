package models

import (
	"encoding/json"
	"time"
)

// EventType is the closed set of event kinds delivered over the live channel
// and recorded in the notification log. Adding a kind means adding a constant
// here and handling it wherever events are rendered.
type EventType string

const (
	EventNewMatch     EventType = "new_match"
	EventMatchUpdated EventType = "match_updated"
	EventNewMessage   EventType = "new_message"
)

// Valid reports whether t is one of the defined event kinds.
func (t EventType) Valid() bool {
	switch t {
	case EventNewMatch, EventMatchUpdated, EventNewMessage:
		return true
	}
	return false
}

// Event is the envelope pushed to clients over the WebSocket. Seq is the
// recipient's notification sequence number; a connection never sees a seq
// lower than one it has already been sent.
type Event struct {
	Type EventType       `json:"type"`
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}

// MatchEventData is the payload for new_match and match_updated events.
type MatchEventData struct {
	MatchID   uint        `json:"match_id"`
	OfferID   uint        `json:"offer_id"`
	RequestID uint        `json:"request_id"`
	Status    MatchStatus `json:"status"`
	ActorID   uint        `json:"actor_id,omitempty"`
}

// MessageEventData is the payload for new_message events. Clients order
// messages by CreatedAt, not by delivery order.
type MessageEventData struct {
	MatchID   uint      `json:"match_id"`
	MessageID string    `json:"message_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
