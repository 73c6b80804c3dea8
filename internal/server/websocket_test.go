package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fill-the-blank/internal/game"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEnvelope struct {
	Type     string          `json:"type"`
	ID       string          `json:"id"`
	Snapshot *game.View      `json:"snapshot"`
	Event    json.RawMessage `json:"event"`
	Result   json.RawMessage `json:"result"`
	Error    *errorBody      `json:"error"`
}

type wsEvent struct {
	Version uint64         `json:"version"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func dialRoom(t *testing.T, ts *httptest.Server, roomID, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + roomID
	if query != "" {
		wsURL += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var msg wsEnvelope
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return msg
}

// waitForEvent reads until an event of the given type arrives, checking that
// versions only ever increase by one.
func waitForEvent(t *testing.T, conn *websocket.Conn, last *uint64, eventType game.EventType) wsEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msg := readEnvelope(t, conn, time.Until(deadline))
		if msg.Type != "event" {
			continue
		}
		var ev wsEvent
		require.NoError(t, json.Unmarshal(msg.Event, &ev))
		if *last != 0 {
			require.Equal(t, *last+1, ev.Version, "events arrive in version order without gaps")
		}
		*last = ev.Version
		if ev.Type == string(eventType) {
			return ev
		}
	}
	t.Fatalf("no %s event before deadline", eventType)
	return wsEvent{}
}

func TestWebsocketSnapshotThenEvents(t *testing.T) {
	_, ts := startServer(t, testConfig())
	roomID := createRoom(t, ts, "ada")

	conn := dialRoom(t, ts, roomID, "player_id=ada")
	first := readEnvelope(t, conn, 5*time.Second)
	require.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.True(t, first.Snapshot.IsHost)
	assert.Len(t, first.Snapshot.Hand, 10)

	last := first.Snapshot.Version
	joinRoom(t, ts, roomID, "bea")
	joined := waitForEvent(t, conn, &last, game.EventPlayerJoined)
	assert.Equal(t, "bea", joined.Payload["player_id"])

	hand := waitForEvent(t, conn, &last, game.EventHandChanged)
	assert.Equal(t, "bea", hand.Payload["player_id"])
	assert.Nil(t, hand.Payload["cards"], "another player's cards are never sent")
}

func TestWebsocketCommands(t *testing.T) {
	_, ts := startServer(t, testConfig())
	roomID := startedRoom(t, ts)
	view := fetchView(t, ts, roomID, "bea")

	conn := dialRoom(t, ts, roomID, "player_id=bea")
	require.Equal(t, "snapshot", readEnvelope(t, conn, 5*time.Second).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":     "play",
		"id":       "1",
		"round_id": view.Round.ID,
		"card_id":  view.Hand[0].ID,
	}))
	var ack wsEnvelope
	for i := 0; i < 20; i++ {
		ack = readEnvelope(t, conn, 5*time.Second)
		if ack.Type == "ack" || ack.Type == "error" {
			break
		}
	}
	require.Equal(t, "ack", ack.Type)
	assert.Equal(t, "1", ack.ID)
	var result game.PlayResult
	require.NoError(t, json.Unmarshal(ack.Result, &result))
	assert.Equal(t, 1, result.Count)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "start", "id": "2"}))
	var rejected wsEnvelope
	for i := 0; i < 20; i++ {
		rejected = readEnvelope(t, conn, 5*time.Second)
		if rejected.Type == "ack" || rejected.Type == "error" {
			break
		}
	}
	require.Equal(t, "error", rejected.Type)
	assert.Equal(t, "2", rejected.ID)
	assert.Equal(t, "not_host", rejected.Error.Error)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance", "id": "3"}))
	for i := 0; i < 20; i++ {
		rejected = readEnvelope(t, conn, 5*time.Second)
		if rejected.Type == "error" {
			break
		}
	}
	assert.Equal(t, "invalid_input", rejected.Error.Error)
}

func TestWebsocketResumeReplaysMissedEvents(t *testing.T) {
	_, ts := startServer(t, testConfig())
	roomID := createRoom(t, ts, "ada")
	joinRoom(t, ts, roomID, "bea")

	conn := dialRoom(t, ts, roomID, "player_id=ada&since=1")
	first := readEnvelope(t, conn, 5*time.Second)
	require.Equal(t, "event", first.Type, "a retained version resumes without a snapshot")
	var ev wsEvent
	require.NoError(t, json.Unmarshal(first.Event, &ev))
	assert.Equal(t, uint64(2), ev.Version)
}

func TestWebsocketCloseStartsGracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.DisconnectGraceSeconds = 0
	srv, ts := startServer(t, cfg)
	roomID := createRoom(t, ts, "ada")
	joinRoom(t, ts, roomID, "bea")

	conn := dialRoom(t, ts, roomID, "player_id=bea")
	require.Equal(t, "snapshot", readEnvelope(t, conn, 5*time.Second).Type)
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	actor, ok := srv.room(roomID)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return rosterSize(actor) == 1
	}, 5*time.Second, 50*time.Millisecond, "bea leaves once the grace period runs out")
}

func TestWebsocketUnknownRoom(t *testing.T) {
	_, ts := startServer(t, testConfig())
	resp := doRequest(t, ts, http.MethodGet, "/ws/rooms/NOPE42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func rosterSize(actor *roomActor) int {
	size := -1
	_ = actor.query(context.Background(), func(room *game.Room) {
		size = room.RosterSize()
	})
	return size
}
