package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// fakeConn satisfies Conn for clients whose pumps never run.
type fakeConn struct{}

func (fakeConn) ReadMessage() (int, []byte, error)      { return 0, nil, fmt.Errorf("closed") }
func (fakeConn) WriteMessage(int, []byte) error         { return nil }
func (fakeConn) SetReadDeadline(time.Time) error        { return nil }
func (fakeConn) SetWriteDeadline(time.Time) error       { return nil }
func (fakeConn) SetPongHandler(func(string) error)      {}
func (fakeConn) Close() error                           { return nil }

func newTestClient(hub *Hub) *Client {
	return newClient(hub, fakeConn{})
}

func recvFrame(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("frame not valid json: %v", err)
		}
		return ev
	default:
		t.Fatal("no frame queued")
	}
	return Event{}
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func frame(t *testing.T, name string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	out, err := json.Marshal(Event{Name: name, Data: raw})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return out
}

func setup(t *testing.T, hub *Hub, c *Client, userID string) {
	t.Helper()
	hub.handleEvent(c, frame(t, EventSetup, map[string]string{"_id": userID}))
	if ev := recvFrame(t, c); ev.Name != EventConnected {
		t.Fatalf("setup ack = %q, want %q", ev.Name, EventConnected)
	}
}

func TestSetupJoinsUserRoom(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)

	setup(t, hub, c, "u1")
	if hub.RoomSize("u1") != 1 {
		t.Errorf("user room size = %d, want 1", hub.RoomSize("u1"))
	}
	if c.userID != "u1" {
		t.Errorf("userID = %q, want u1", c.userID)
	}
}

func TestNewMessageFanout(t *testing.T) {
	hub := NewHub()

	sender := newTestClient(hub)
	member := newTestClient(hub)
	outsider := newTestClient(hub)
	absent := newTestClient(hub)

	setup(t, hub, sender, "u-sender")
	setup(t, hub, member, "u-member")
	setup(t, hub, outsider, "u-outsider")
	setup(t, hub, absent, "u-absent")

	// Everyone except absent has the chat open. outsider has it open but is
	// not a member, absent is a member but never joined.
	hub.handleEvent(sender, frame(t, EventJoinChat, "chat1"))
	hub.handleEvent(member, frame(t, EventJoinChat, "chat1"))
	hub.handleEvent(outsider, frame(t, EventJoinChat, "chat1"))

	payload := map[string]any{
		"_id":     "m1",
		"content": "hello",
		"sender":  map[string]string{"_id": "u-sender"},
		"chat": map[string]any{
			"_id": "chat1",
			"users": []map[string]string{
				{"_id": "u-sender"},
				{"_id": "u-member"},
				{"_id": "u-absent"},
			},
		},
	}
	hub.handleEvent(sender, frame(t, EventNewMessage, payload))

	ev := recvFrame(t, member)
	if ev.Name != EventMessageReceived {
		t.Fatalf("event = %q, want %q", ev.Name, EventMessageReceived)
	}
	var got map[string]any
	if err := json.Unmarshal(ev.Data, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got["content"] != "hello" || got["_id"] != "m1" {
		t.Errorf("payload not forwarded verbatim: %s", ev.Data)
	}

	assertQuiet(t, sender)
	assertQuiet(t, outsider)
	assertQuiet(t, absent)
}

func TestMalformedFramesDropped(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)
	setup(t, hub, c, "u1")
	hub.handleEvent(c, frame(t, EventJoinChat, "chat1"))

	peer := newTestClient(hub)
	setup(t, hub, peer, "u2")
	hub.handleEvent(peer, frame(t, EventJoinChat, "chat1"))

	hub.handleEvent(c, []byte("{not json"))
	hub.handleEvent(c, frame(t, "typing", "chat1"))
	hub.handleEvent(c, frame(t, EventSetup, map[string]string{}))
	hub.handleEvent(c, frame(t, EventNewMessage, map[string]any{
		"sender": map[string]string{"_id": "u1"},
		"chat":   map[string]any{"_id": "chat1"},
	}))

	assertQuiet(t, peer)
	assertQuiet(t, c)
}

// A client dropped for falling behind can still have frames in flight on
// its read pump; those must be ignored, not panic on the closed channel or
// put the client back into rooms.
func TestFrameAfterDropIsIgnored(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)
	setup(t, hub, c, "u1")
	hub.handleEvent(c, frame(t, EventJoinChat, "chat1"))

	for i := 0; i < sendBuffer; i++ {
		c.send <- []byte("backlog")
	}
	hub.Broadcast("chat1", []byte(`{"event":"message received"}`), nil)
	if hub.RoomSize("chat1") != 0 || hub.RoomSize("u1") != 0 {
		t.Fatalf("slow client not dropped: chat=%d user=%d", hub.RoomSize("chat1"), hub.RoomSize("u1"))
	}

	hub.handleEvent(c, frame(t, EventSetup, map[string]string{"_id": "u1"}))
	hub.handleEvent(c, frame(t, EventJoinChat, "chat1"))
	if hub.RoomSize("u1") != 0 || hub.RoomSize("chat1") != 0 {
		t.Errorf("dropped client rejoined: user=%d chat=%d", hub.RoomSize("u1"), hub.RoomSize("chat1"))
	}
}

func TestRemovePrunesRooms(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)
	setup(t, hub, c, "u1")
	hub.handleEvent(c, frame(t, EventJoinChat, "chat1"))

	hub.Remove(c)
	if hub.RoomSize("u1") != 0 || hub.RoomSize("chat1") != 0 {
		t.Errorf("rooms not pruned: user=%d chat=%d", hub.RoomSize("u1"), hub.RoomSize("chat1"))
	}
	if _, ok := <-c.send; ok {
		t.Errorf("send channel still open after remove")
	}
}
