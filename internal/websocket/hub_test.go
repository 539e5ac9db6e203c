package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

func testClient(buffer int) *Client {
	return &Client{send: make(chan []byte, buffer)}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := testHub()
	c := testClient(1)

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("client count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Fatalf("client count = %d, want 0", hub.ClientCount())
	}

	// Unregistering twice must not panic on the closed channel.
	hub.Unregister(c)
}

func TestHubBroadcast(t *testing.T) {
	hub := testHub()
	c := testClient(4)
	hub.Register(c)

	hub.Broadcast(NewMessage("redemption", "requested", 12, 3, map[string]any{
		"points_spent": 80,
	}))

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if msg.Type != "redemption_requested" {
			t.Errorf("type = %q, want redemption_requested", msg.Type)
		}
		if msg.ID != 12 || msg.HouseholdID != 3 {
			t.Errorf("ids = %d/%d, want 12/3", msg.ID, msg.HouseholdID)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestHubBroadcastSkipsFullClients(t *testing.T) {
	hub := testHub()
	full := testClient(1)
	full.send <- []byte("occupied")
	ok := testClient(1)
	hub.Register(full)
	hub.Register(ok)

	// Must not block even though one client cannot accept the message.
	hub.Broadcast(NewMessage("points", "earned", 1, 1, nil))

	select {
	case <-ok.send:
	default:
		t.Error("healthy client did not receive broadcast")
	}
}
