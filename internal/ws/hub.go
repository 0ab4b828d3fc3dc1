package ws

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket connection belonging to a group member.
type Client struct {
	UserID string
	Send   chan []byte

	room   *Room
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.room != nil {
		c.room.leave(c)
	}
}

// trySend delivers without blocking: a full buffer drops the message
// rather than stalling the append path, and a closed client is skipped
// so broadcast never races the channel close.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Room fans new messages out to every connected member of one group.
type Room struct {
	GroupID string
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func newRoom(groupID string) *Room {
	return &Room{GroupID: groupID, clients: make(map[*Client]struct{})}
}

func (r *Room) join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
	c.room = r
}

func (r *Room) leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *Room) broadcast(payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

// Hub holds the rooms, one per group with at least one live connection.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

func (h *Hub) GetOrCreateRoom(groupID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[groupID]; ok {
		return r
	}
	r := newRoom(groupID)
	h.rooms[groupID] = r
	return r
}

// Broadcast sends payload to every client connected to the group's
// room. No-op when nobody is connected.
func (h *Hub) Broadcast(groupID string, payload interface{}) {
	h.mu.RLock()
	r := h.rooms[groupID]
	h.mu.RUnlock()
	if r != nil {
		r.broadcast(payload)
	}
}
