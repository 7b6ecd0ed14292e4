package realtime

import (
	"encoding/json"
	"log"
)

// Wire schema for relay traffic: every frame is a tagged event. Payloads
// are validated on receipt; anything malformed is logged and dropped, never
// signaled back to the sender.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	EventSetup           = "setup"
	EventJoinChat        = "join chat"
	EventNewMessage      = "new message"
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

type setupPayload struct {
	ID string `json:"_id"`
}

// messagePayload is the slice of a populated message the relay needs for
// fan-out: who sent it and who the chat members are.
type messagePayload struct {
	Sender struct {
		ID string `json:"_id"`
	} `json:"sender"`
	Chat struct {
		ID    string `json:"_id"`
		Users []struct {
			ID string `json:"_id"`
		} `json:"users"`
	} `json:"chat"`
}

func (h *Hub) handleEvent(c *Client, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("[relay] client %s sent malformed frame, dropped: %v", c.ID, err)
		return
	}

	switch ev.Name {
	case EventSetup:
		h.handleSetup(c, ev.Data)
	case EventJoinChat:
		h.handleJoinChat(c, ev.Data)
	case EventNewMessage:
		h.handleNewMessage(c, ev.Data)
	default:
		log.Printf("[relay] client %s sent unknown event %q, dropped", c.ID, ev.Name)
	}
}

// handleSetup puts the client into its own user room and acknowledges with
// a connected event.
func (h *Hub) handleSetup(c *Client, data json.RawMessage) {
	var p setupPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
		log.Printf("[relay] client %s setup without user id, dropped", c.ID)
		return
	}

	h.mu.Lock()
	c.userID = p.ID
	h.mu.Unlock()
	h.Join(p.ID, c)

	ack, _ := json.Marshal(Event{Name: EventConnected})
	c.enqueue(ack)
}

func (h *Hub) handleJoinChat(c *Client, data json.RawMessage) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		log.Printf("[relay] client %s join chat without chat id, dropped", c.ID)
		return
	}
	h.Join(chatID, c)
}

// handleNewMessage fans an already-persisted message out to the other
// members of its chat: for every member except the sender, the payload is
// delivered verbatim to that member's sockets currently joined to the
// chat's room. The store is never touched.
func (h *Hub) handleNewMessage(c *Client, data json.RawMessage) {
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[relay] client %s broadcast with malformed message payload, dropped: %v", c.ID, err)
		return
	}
	if len(p.Chat.Users) == 0 {
		log.Printf("[relay] chat.users not defined, message dropped")
		return
	}
	if p.Chat.ID == "" {
		log.Printf("[relay] broadcast without chat id, message dropped")
		return
	}

	recipients := make(map[string]struct{}, len(p.Chat.Users))
	for _, u := range p.Chat.Users {
		if u.ID != "" && u.ID != p.Sender.ID {
			recipients[u.ID] = struct{}{}
		}
	}

	out, err := json.Marshal(Event{Name: EventMessageReceived, Data: data})
	if err != nil {
		log.Printf("[relay] marshal message received event: %v", err)
		return
	}
	h.Broadcast(p.Chat.ID, out, func(target *Client) bool {
		_, ok := recipients[target.userID]
		return ok
	})
}
