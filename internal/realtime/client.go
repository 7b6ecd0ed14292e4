package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readDeadline  = 300 * time.Second
	writeDeadline = 30 * time.Second
	pingInterval  = 240 * time.Second
	sendBuffer    = 256
)

// Conn is the slice of the websocket connection the relay needs; tests
// substitute an in-memory fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one relay connection. userID is learned from the setup event;
// until then the client is in no room and receives nothing.
type Client struct {
	ID     string
	hub    *Hub
	conn   Conn
	send   chan []byte
	userID string
	rooms  map[string]struct{}
	dead   bool // set under hub.mu when the client is dropped

	closeOnce sync.Once
}

func newClient(hub *Hub, conn Conn) *Client {
	return &Client{
		ID:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// enqueue queues data for the write pump; a full buffer disconnects the
// client the same way Broadcast does. The hub lock orders the send against
// Remove, so a dropped client's closed channel is never written to.
func (c *Client) enqueue(data []byte) {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.dead {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[relay] client %s send buffer full, dropping connection", c.ID)
		c.hub.removeLocked(c)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.handleEvent(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The relay performs no authorization; browser clients connect from
	// any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and starts the client pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[relay] websocket upgrade failed: %v", err)
		return
	}
	client := newClient(hub, conn)
	go client.writePump()
	go client.readPump()
}
