package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub tracks which clients watch which bus and fans out bus events to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]struct{}
	authz Authorizer
}

func NewHub(authz Authorizer) *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*Client]struct{}),
		authz: authz,
	}
}

// Join adds the client to the bus audience. Unauthenticated clients and buses outside the
// client's organization are refused silently: the refusal is logged and nothing changes.
func (h *Hub) Join(ctx context.Context, c *Client, busID uuid.UUID) bool {
	id, ok := c.Identity().Get()
	if !ok {
		logrus.WithField("bus_id", busID).Warn("Unauthenticated client tried to join a bus room.")
		return false
	}
	if !h.authz.CanJoin(ctx, id.OrganizationID, busID) {
		logrus.WithFields(logrus.Fields{
			"user_id": id.UserID,
			"org_id":  id.OrganizationID,
			"bus_id":  busID,
		}).Warn("Bus room join denied.")
		return false
	}

	h.mu.Lock()
	clients, ok := h.rooms[busID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[busID] = clients
	}
	clients[c] = struct{}{}
	c.addRoom(busID)
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"user_id": id.UserID,
		"bus_id":  busID,
	}).Debug("Client joined bus room.")
	return true
}

// Leave removes the client from one bus audience.
func (h *Hub) Leave(c *Client, busID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, busID)
	c.removeRoom(busID)
}

// Disconnect tears down every membership of the client and closes its send queue.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for _, busID := range c.Rooms() {
		h.removeLocked(c, busID)
		c.removeRoom(busID)
	}
	h.mu.Unlock()
	c.closeSend()
}

func (h *Hub) removeLocked(c *Client, busID uuid.UUID) {
	clients, ok := h.rooms[busID]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, busID)
	}
}

// BroadcastToBus sends an event to every client in the bus audience. It never blocks: a
// client whose queue is full misses the message.
func (h *Hub) BroadcastToBus(busID uuid.UUID, event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to encode broadcast.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[busID] {
		if !c.enqueue(msg) {
			logrus.WithFields(logrus.Fields{
				"bus_id": busID,
				"event":  event,
			}).Warn("Client send queue full, dropping message.")
		}
	}
}

// RoomSize reports how many clients watch the bus.
func (h *Hub) RoomSize(busID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[busID])
}
