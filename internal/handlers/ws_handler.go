package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/realtime"
)

const helloTimeout = 10 * time.Second

// wsHello is the first frame a client sends after connecting: the highest
// notification sequence number it has already seen. Zero means "everything".
type wsHello struct {
	SinceSeq uint64 `json:"since_seq"`
}

// WSHandler upgrades live-channel connections. Protocol: client sends a
// hello frame with its last-seen seq, server replies with a backfill of
// missed events in order, then switches to live push.
type WSHandler struct {
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(registry *realtime.Registry, dispatcher *realtime.Dispatcher) *WSHandler {
	return &WSHandler{
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced at the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles one live-channel connection for its lifetime
func (h *WSHandler) Serve(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	var hello wsHello
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	if err := conn.ReadJSON(&hello); err != nil {
		log.Printf("websocket: user %d sent no hello frame: %v", userID, err)
		conn.Close()
		return nil
	}

	client := realtime.NewClient(userID, conn)

	// Register before querying missed events: anything dispatched while the
	// query runs is buffered by the client and flushed after the backfill,
	// so the stream has no gap and no reordering.
	h.registry.Add(userID, client)
	go client.WritePump()

	missed, err := h.dispatcher.MissedEvents(userID, hello.SinceSeq)
	if err != nil {
		log.Printf("websocket: backfill for user %d failed: %v", userID, err)
		h.registry.Remove(userID, client)
		client.Close()
		return nil
	}
	if !client.FinishBackfill(missed) {
		h.registry.Remove(userID, client)
		client.Close()
		return nil
	}

	log.Printf("websocket: user %d connected (%s), %d events backfilled", userID, client.ID, len(missed))
	client.ReadPump(func() {
		h.registry.Remove(userID, client)
		log.Printf("websocket: user %d disconnected (%s)", userID, client.ID)
	})
	return nil
}
