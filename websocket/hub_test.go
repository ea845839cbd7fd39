package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"waveplay/types"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestClient spins up a WS endpoint that registers connections under
// sessionID and returns a connected client side
func dialTestClient(t *testing.T, hub Hub, sessionID string) *gorilla.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := GetUpgrader()
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := NewClient(hub, conn, sessionID)
		hub.RegisterClient(client)
		client.StartPumps()
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readProgress(t *testing.T, conn *gorilla.Conn) types.ProgressMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg types.ProgressMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestBroadcastReachesSessionClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestClient(t, hub, "session-1")

	// Give registration a moment to land in the hub loop
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastProgress("session-1", 3, "progress", "downloading", "mix.flac", "", 42)

	msg := readProgress(t, conn)
	assert.Equal(t, "session-1", msg.SessionID)
	assert.Equal(t, uint64(3), msg.RequestID)
	assert.Equal(t, "progress", msg.Type)
	assert.Equal(t, 42.0, msg.Percent)
	assert.Equal(t, "mix.flac", msg.FileLabel)
}

func TestBroadcastSkipsOtherSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	other := dialTestClient(t, hub, "session-other")
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastProgress("session-1", 1, "progress", "downloading", "", "", 10)

	other.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "client of another session must not receive the message")
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	all := dialTestClient(t, hub, "all")
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastProgress("session-xyz", 7, "status", "ready", "song.mp3", "", 100)

	msg := readProgress(t, all)
	assert.Equal(t, "session-xyz", msg.SessionID)
	assert.Equal(t, "ready", msg.Status)
}
