package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/regami-app/backend/internal/models"
)

const (
	// writeTimeout bounds how long a live push may block on a socket write
	// buffer before the connection is dropped instead of stalling delivery.
	writeTimeout = 3 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	maxFrameSize = 4096
	sendBuffer   = 256
)

// Client is one live WebSocket connection for a user. A client starts in
// backfill mode: live events delivered while the missed-event query runs are
// buffered and flushed after the backfill, so the connection never sees a
// sequence number lower than one already sent.
type Client struct {
	ID          string
	UserID      uint
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan models.Event

	mu          sync.Mutex
	lastSeq     uint64
	backfilling bool
	pending     []models.Event
	closed      bool
}

// NewClient wraps an upgraded connection. The caller must call
// FinishBackfill once, then run WritePump and ReadPump.
func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan models.Event, sendBuffer),
		backfilling: true,
	}
}

// Deliver hands an event to this connection. During backfill the event is
// buffered; afterwards it is enqueued for the write pump. Events at or below
// the last sequence already enqueued are dropped as duplicates. Returns
// false when the connection cannot keep up and should be removed.
func (c *Client) Deliver(evt models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.backfilling {
		c.pending = append(c.pending, evt)
		return true
	}
	return c.enqueueLocked(evt)
}

// FinishBackfill enqueues the missed events, then any live events buffered
// while the backfill query ran, and switches the client to streaming mode.
// The sequence guard in enqueueLocked removes the overlap between the two
// sets. Returns false when the connection should be dropped.
func (c *Client) FinishBackfill(missed []models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	for _, evt := range missed {
		if !c.enqueueLocked(evt) {
			return false
		}
	}
	for _, evt := range c.pending {
		if !c.enqueueLocked(evt) {
			return false
		}
	}
	c.pending = nil
	c.backfilling = false
	return true
}

func (c *Client) enqueueLocked(evt models.Event) bool {
	if evt.Seq != 0 && evt.Seq <= c.lastSeq {
		return true
	}
	select {
	case c.send <- evt:
		if evt.Seq != 0 {
			c.lastSeq = evt.Seq
		}
		return true
	default:
		// Slow consumer; the durable log is its recovery path.
		return false
	}
}

// Close marks the client closed and wakes the write pump. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump writes queued events to the socket until the client is closed or
// a write fails. Each write carries a deadline so a dead peer cannot stall
// delivery to the user's other connections.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("websocket: write to user %d connection %s failed: %v", c.UserID, c.ID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes frames from the client until the connection drops. The
// live channel is server-push; inbound frames only keep the connection alive.
// onClose runs exactly once when the connection is done and should
// unregister the client.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		c.Close()
		onClose()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
