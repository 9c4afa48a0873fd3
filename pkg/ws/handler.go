package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades WebSocket connections and keeps subscribers fed with
// rate updates. Clients only listen; inbound messages are discarded.
type Handler struct {
	hub  *Hub
	repo *rates.Repository
}

func NewHandler(hub *Hub, repo *rates.Repository) *Handler {
	return &Handler{hub: hub, repo: repo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendSnapshot(client)
	h.readPump(client)
}

// SnapshotMessage builds the snapshot envelope for the current state of
// the repository.
func SnapshotMessage(snap *rates.Snapshot) ([]byte, error) {
	payload := SnapshotPayload{
		Dates:       snap.Days(),
		SlotCount:   snap.SlotCount(),
		Fingerprint: snap.Fingerprint(),
	}
	if !snap.UpdatedAt().IsZero() {
		payload.UpdatedAt = snap.UpdatedAt().Format(time.RFC3339)
	}
	return NewEnvelope(TypeSnapshot, payload)
}

func (h *Handler) sendSnapshot(c *Client) {
	msg, err := SnapshotMessage(h.repo.Snapshot())
	if err != nil {
		log.Ctx(context.Background()).Error("failed to build snapshot message", slog.Any("error", err))
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(context.Background()).Debug("websocket read error", slog.Any("error", err))
			}
			return
		}
	}
}
