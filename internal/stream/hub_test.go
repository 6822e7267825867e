package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"codinground/internal/models"
	"codinground/internal/session"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad payload %s: %v", data, err)
	}
	return msg
}

func TestHubDeliversToSessionOnly(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "s1")
	b := dial(t, srv, "s2")

	assert.Eventually(t, func() bool { return hub.Connected("s1") == 1 && hub.Connected("s2") == 1 }, time.Second, 5*time.Millisecond)

	hub.PhaseChanged("s1", session.PhaseRunning)
	hub.Tick("s2", 42)

	got := readMessage(t, a)
	assert.Equal(t, EventPhase, got.Type)
	assert.Equal(t, "s1", got.SessionID)

	got = readMessage(t, b)
	assert.Equal(t, EventTick, got.Type)
	assert.Equal(t, float64(42), got.Data.(map[string]interface{})["remaining_seconds"])
}

func TestHubCollaborators(t *testing.T) {
	hub, srv := startHub(t)

	assert.ErrorIs(t, hub.Capture(context.Background(), "s1"), ErrNoClients)

	conn := dial(t, srv, "s1")
	assert.Eventually(t, func() bool { return hub.Connected("s1") == 1 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, hub.Speak(context.Background(), "s1", "hello"))
	assert.NoError(t, hub.Capture(context.Background(), "s1"))
	assert.NoError(t, hub.Navigate(context.Background(), "s1", "/interview/s1"))
	hub.Message("s1", "q1", models.ChatMessage{ID: "m1", Text: "hi"})

	var types []string
	for i := 0; i < 4; i++ {
		types = append(types, readMessage(t, conn).Type)
	}
	assert.Equal(t, []string{EventSpeak, EventCaptureScreenshot, EventNavigate, EventMessage}, types)
}

func TestHubUnregistersClosedClient(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "s1")
	assert.Eventually(t, func() bool { return hub.Connected("s1") == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.Connected("s1") == 0 }, 2*time.Second, 5*time.Millisecond)
}
