package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + user
	return websocket.DefaultDialer.Dial(url, header)
}

func waitForClients(t *testing.T, hub *Hub, user string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(user) != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount(%s) = %d, want %d", user, hub.ClientCount(user), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesOnlyOwner(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	alice, _, err := dial(t, srv, "alice", nil)
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	defer alice.Close()
	bob, _, err := dial(t, srv, "bob", nil)
	if err != nil {
		t.Fatalf("dial bob: %v", err)
	}
	defer bob.Close()

	waitForClients(t, hub, "alice", 1)
	waitForClients(t, hub, "bob", 1)

	hub.Publish("alice", &models.ChangeEntry{ID: 7, Operation: models.OperationCreate, EntityID: "log-1"})

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alice.ReadMessage()
	if err != nil {
		t.Fatalf("alice ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != "change" || msg.Change == nil || msg.Change.ID != 7 {
		t.Errorf("message = %+v, want change 7", msg)
	}

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Error("bob received alice's change")
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	conn, _, err := dial(t, srv, "alice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, "alice", 1)

	conn.Close()
	waitForClients(t, hub, "alice", 0)

	// publishing to a user without connections is a no-op
	hub.Publish("alice", &models.ChangeEntry{ID: 1})
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"https://app.example.com"})
	srv := newTestServer(t, hub)

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := dial(t, srv, "alice", header)
	if err == nil {
		t.Fatal("dial with a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %v, want 403", resp)
	}

	header.Set("Origin", "https://app.example.com")
	conn, _, err := dial(t, srv, "alice", header)
	if err != nil {
		t.Fatalf("dial with an allowed origin: %v", err)
	}
	conn.Close()
}

func TestHub_Close(t *testing.T) {
	hub := NewHub([]string{"*"})
	srv := newTestServer(t, hub)

	conn, _, err := dial(t, srv, "alice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, "alice", 1)

	hub.Close()
	if n := hub.ClientCount("alice"); n != 0 {
		t.Errorf("ClientCount() after Close = %d, want 0", n)
	}
}
