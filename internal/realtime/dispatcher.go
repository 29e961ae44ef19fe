package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/regami-app/backend/internal/models"
)

// NotificationLog is the durable per-user feed the dispatcher appends to
// before attempting any live push.
type NotificationLog interface {
	Append(n *models.Notification) error
	ListSince(recipientID uint, sinceSeq uint64, limit int) ([]models.Notification, error)
}

// DeviceTokenSource resolves a user's push token. May be nil-backed; push is
// best effort.
type DeviceTokenSource interface {
	GetUserByID(id uint) (*models.User, error)
}

// PushSender delivers a native push notification to one device.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

const backfillLimit = 256

// Dispatcher is the single delivery path for state-change events. Notify
// appends to the notification log first (obtaining the recipient's next
// sequence number), then pushes to live connections and fires a best-effort
// native push. Only the append can fail the call.
type Dispatcher struct {
	registry *Registry
	feed     NotificationLog
	users    DeviceTokenSource
	push     PushSender
}

// NewDispatcher creates a new Dispatcher. users and push may be nil, which
// disables native push.
func NewDispatcher(registry *Registry, feed NotificationLog, users DeviceTokenSource, push PushSender) *Dispatcher {
	return &Dispatcher{registry: registry, feed: feed, users: users, push: push}
}

// Notify delivers one event to one user. Durability happens before any live
// push; push failures drop the stale connection but never fail the call.
// There is no retry of the live push: reconnect backfill is the recovery
// path.
func (d *Dispatcher) Notify(ctx context.Context, recipientID uint, eventType models.EventType, data interface{}, message string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}

	n := &models.Notification{
		RecipientID: recipientID,
		Type:        eventType,
		Payload:     payload,
		Message:     message,
	}
	if err := d.feed.Append(n); err != nil {
		return fmt.Errorf("appending notification for user %d: %w", recipientID, err)
	}

	evt := models.Event{Type: eventType, Seq: n.Seq, Data: payload}
	for _, client := range d.registry.Connections(recipientID) {
		if !client.Deliver(evt) {
			log.Printf("dispatcher: dropping stale connection %s for user %d", client.ID, recipientID)
			d.registry.Remove(recipientID, client)
			client.Close()
		}
	}

	d.sendPush(ctx, recipientID, eventType, message)
	return nil
}

// MissedEvents returns the events a reconnecting client has not seen,
// oldest first.
func (d *Dispatcher) MissedEvents(recipientID uint, sinceSeq uint64) ([]models.Event, error) {
	notifications, err := d.feed.ListSince(recipientID, sinceSeq, backfillLimit)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, len(notifications))
	for i, n := range notifications {
		events[i] = models.Event{Type: n.Type, Seq: n.Seq, Data: n.Payload}
	}
	return events, nil
}

func (d *Dispatcher) sendPush(ctx context.Context, recipientID uint, eventType models.EventType, message string) {
	if d.users == nil || d.push == nil {
		return
	}
	user, err := d.users.GetUserByID(recipientID)
	if err != nil || user.DeviceToken == "" {
		return
	}
	err = d.push.Send(ctx, user.DeviceToken, pushTitle(eventType), message,
		map[string]string{"type": string(eventType)})
	if err != nil {
		log.Printf("dispatcher: push to user %d failed: %v", recipientID, err)
	}
}

func pushTitle(t models.EventType) string {
	switch t {
	case models.EventNewMatch:
		return "New match"
	case models.EventMatchUpdated:
		return "Match update"
	case models.EventNewMessage:
		return "New message"
	}
	return "Regami"
}
