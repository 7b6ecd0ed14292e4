package realtime

import (
	"log"
	"sync"
)

// Hub tracks which clients joined which rooms. Rooms are keyed by string:
// one per connected user id and one per open chat id; the names only matter
// for fan-out targeting.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.dead {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Remove drops the client from every room it joined and prunes empty rooms.
// Called when the transport disconnects or the client falls behind.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked marks the client dead before closing its send channel. The
// read pump may still deliver frames it already pulled off the wire; Join
// and enqueue check the flag under the same lock, so nothing reaches the
// closed channel. Closing the conn makes both pumps exit.
func (h *Hub) removeLocked(c *Client) {
	for room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]struct{})
	c.dead = true
	c.closeSend()
	_ = c.conn.Close()
}

// Broadcast queues data for every client in the room that the allow filter
// accepts. A client whose send buffer is full is dropped rather than
// blocking the rest of the room.
func (h *Hub) Broadcast(room string, data []byte, allow func(*Client) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		if allow != nil && !allow(c) {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Printf("[relay] client %s send buffer full, dropping connection", c.ID)
			h.removeLocked(c)
		}
	}
}

// RoomSize reports how many clients are currently joined to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
