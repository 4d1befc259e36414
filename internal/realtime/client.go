package realtime

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/atandjijero/Saas/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 16
)

// Client is one websocket connection. A client can join the broadcast groups
// of tenants its identity is allowed to observe.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity auth.Identity
	logger   *slog.Logger

	send   chan []byte
	joined map[uuid.UUID]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, identity auth.Identity, logger *slog.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		identity: identity,
		logger:   logger,
		send:     make(chan []byte, sendBufferSize),
		joined:   make(map[uuid.UUID]struct{}),
	}
}

type inboundMessage struct {
	Event    string `json:"event"`
	TenantID string `json:"tenantId"`
}

// Run pumps the connection until it closes, then leaves every joined group.
func (c *Client) Run() {
	done := make(chan struct{})
	go c.writePump(done)

	c.readPump()

	close(done)
	for tenantID := range c.joined {
		c.hub.Unsubscribe(tenantID, c)
	}
	_ = c.conn.Close()
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.Any("error", err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}

		if msg.Event == EventJoinTenant {
			c.handleJoinTenant(msg.TenantID)
		}
	}
}

func (c *Client) handleJoinTenant(rawTenantID string) {
	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil {
		c.sendError("invalid tenant id")
		return
	}

	// The join is gated on the same bearer identity as the REST API: a
	// client can only observe tenants its token grants.
	if !auth.Can(c.identity, auth.ActionSubscribeStock, tenantID) {
		c.sendError("access denied")
		return
	}

	c.joined[tenantID] = struct{}{}
	c.hub.Subscribe(tenantID, c)
}

func (c *Client) sendError(message string) {
	payload, err := json.Marshal(Event{
		Name: "error",
		Data: map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
