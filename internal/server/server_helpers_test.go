package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fill-the-blank/internal/config"
	"fill-the-blank/internal/game"
)

// testConfig disables every timer so tests drive rounds explicitly.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.RoundSeconds = 0
	cfg.AutoAdvanceSeconds = 0
	cfg.RateLimitPerSecond = 1000
	cfg.RateLimitBurst = 1000
	return cfg
}

func startServer(t *testing.T, cfg config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func createRoom(t *testing.T, ts *httptest.Server, playerID string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", map[string]string{
		"player_id": playerID,
		"handle":    playerID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["room_id"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, roomID, playerID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", map[string]string{
		"player_id": playerID,
		"handle":    playerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join %s: expected status %d, got %d", playerID, http.StatusOK, resp.StatusCode)
	}
}

// startedRoom creates a room with three players; the default rules start the
// first round as soon as the third joins.
func startedRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	roomID := createRoom(t, ts, "ada")
	joinRoom(t, ts, roomID, "bea")
	joinRoom(t, ts, roomID, "cy")
	return roomID
}

func fetchView(t *testing.T, ts *httptest.Server, roomID, playerID string) game.View {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID+"?player_id="+playerID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var view game.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

// playHand submits as many cards from the player's hand as the prompt asks
// for.
func playHand(t *testing.T, ts *httptest.Server, roomID, playerID string) {
	t.Helper()
	view := fetchView(t, ts, roomID, playerID)
	if view.Round == nil {
		t.Fatalf("no round in progress")
	}
	for i := 0; i < view.Round.PickCount; i++ {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/plays", map[string]string{
			"player_id": playerID,
			"round_id":  view.Round.ID,
			"card_id":   view.Hand[i].ID,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("play %s: expected status %d, got %d", playerID, http.StatusOK, resp.StatusCode)
		}
	}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func assertString(t *testing.T, value any) {
	t.Helper()
	if _, ok := value.(string); !ok {
		t.Fatalf("expected string, got %T", value)
	}
}
