package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server, topics string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?topics=" + topics
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectedCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d subscribers connected, want %d", hub.ConnectedCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublishReachesSubscribedTopicsOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "sandbox:s1")
	waitForSubscribers(t, hub, 1)

	hub.Publish("sandbox:other", Message{Type: MsgSandboxStatus, Payload: map[string]any{"status": "Ready"}})
	hub.Publish("sandbox:s1", Message{Type: MsgSandboxStatus, Payload: map[string]any{"status": "Creating"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}

	if msg.Topic != "sandbox:s1" {
		t.Errorf("received message for topic %q — other-topic message leaked or ordering broke", msg.Topic)
	}
	if msg.Type != MsgSandboxStatus {
		t.Errorf("type = %q", msg.Type)
	}
}

func TestRejectsMissingTopics(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "process:p1")
	waitForSubscribers(t, hub, 1)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectedCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never removed after disconnect")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.Publish("sandbox:s1", Message{Type: MsgSandboxStatus})
	if hub.ConnectedCount() != 0 {
		t.Error("nil hub should report zero subscribers")
	}
}

func TestSplitTopics(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"sandbox:s1", 1},
		{"sandbox:s1,process:p1", 2},
		{" sandbox:s1 , ,process:p1 ", 2},
	}
	for _, tc := range cases {
		if got := splitTopics(tc.in); len(got) != tc.want {
			t.Errorf("splitTopics(%q) = %v, want %d entries", tc.in, got, tc.want)
		}
	}
}
