package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// DefaultSendBuffer is the per-client outbound queue length.
	DefaultSendBuffer = 64
)

// Identity is who sits behind a connection once its token has been verified.
type Identity struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           string
}

// InboundHandler receives driver location reports arriving over a socket.
type InboundHandler interface {
	HandleDriverLocation(ctx context.Context, c *Client, msg DriverLocationMessage)
}

// Client is one socket connection. It starts unauthenticated, becomes authenticated once, and
// may then join any number of bus rooms.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	identity models.Optional[Identity]
	rooms    map[uuid.UUID]struct{}
	closed   bool
}

// NewClient wraps a connection. conn may be nil when the client is only used as a
// broadcast sink.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer < 1 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[uuid.UUID]struct{}),
	}
}

// Authenticate moves the client to the authenticated state. It can happen only once.
func (c *Client) Authenticate(id Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity.IsPresent() {
		return fmt.Errorf("client already authenticated")
	}
	c.identity = models.Some(id)
	return nil
}

func (c *Client) Identity() models.Optional[Identity] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Rooms lists the buses the client currently watches.
func (c *Client) Rooms() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uuid.UUID, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	return out
}

// Messages exposes the outbound queue.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Send queues an event for this client only.
func (c *Client) Send(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode message.")
		return
	}
	if !c.enqueue(msg) {
		logrus.WithField("event", event).Warn("Client send queue full or closed, dropping message.")
	}
}

func (c *Client) addRoom(busID uuid.UUID) {
	c.mu.Lock()
	c.rooms[busID] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeRoom(busID uuid.UUID) {
	c.mu.Lock()
	delete(c.rooms, busID)
	c.mu.Unlock()
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Serve runs the connection until it closes or ctx is cancelled, then leaves every room.
func (c *Client) Serve(ctx context.Context, handler InboundHandler) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx, handler)
	c.hub.Disconnect(c)
}

func (c *Client) readPump(ctx context.Context, handler InboundHandler) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("WebSocket read error.")
			}
			return
		}
		c.dispatch(ctx, raw, handler)
	}
}

func (c *Client) dispatch(ctx context.Context, raw []byte, handler InboundHandler) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.Send(EventError, map[string]string{"message": "invalid message"})
		return
	}

	switch env.Event {
	case EventJoinBusRoom, EventLeaveBusRoom:
		busID, err := parseBusID(env.Data)
		if err != nil {
			c.Send(EventError, map[string]string{"message": "invalid busId"})
			return
		}
		if env.Event == EventJoinBusRoom {
			c.hub.Join(ctx, c, busID)
		} else {
			c.hub.Leave(c, busID)
		}
	case EventDriverLocationUpdate:
		var msg DriverLocationMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.Send(EventError, map[string]string{"message": "invalid location payload"})
			return
		}
		if handler != nil {
			handler.HandleDriverLocation(ctx, c, msg)
		}
	default:
		logrus.WithField("event", env.Event).Debug("Ignoring unknown socket event.")
	}
}

// parseBusID accepts either a bare string or {"busId": "..."}.
func parseBusID(data json.RawMessage) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return uuid.Parse(s)
	}
	var obj struct {
		BusID string `json:"busId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(obj.BusID)
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logrus.WithError(err).Debug("WebSocket write failed.")
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
