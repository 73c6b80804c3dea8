package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"fill-the-blank/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundState(actor *roomActor) (int, game.Phase) {
	var (
		number int
		phase  game.Phase
	)
	_ = actor.query(context.Background(), func(room *game.Room) {
		if round := room.Snapshot("").Round; round != nil {
			number, phase = round.Number, round.Phase
		}
	})
	return number, phase
}

func TestPickingTimeoutMovesToJudging(t *testing.T) {
	cfg := testConfig()
	cfg.RoundSeconds = 1
	srv, ts := startServer(t, cfg)
	roomID := startedRoom(t, ts)
	playHand(t, ts, roomID, "bea")

	actor, ok := srv.room(roomID)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		_, phase := roundState(actor)
		return phase == game.PhaseJudging
	}, 5*time.Second, 50*time.Millisecond)

	view := fetchView(t, ts, roomID, "ada")
	require.Len(t, view.Round.Submissions, 1, "only the finished submission is judged")
}

func TestCompletedRoundAutoAdvances(t *testing.T) {
	cfg := testConfig()
	cfg.AutoAdvanceSeconds = 1
	srv, ts := startServer(t, cfg)
	roomID := startedRoom(t, ts)
	playHand(t, ts, roomID, "bea")
	playHand(t, ts, roomID, "cy")

	judge := fetchView(t, ts, roomID, "ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/winner", map[string]string{
		"player_id":     "ada",
		"round_id":      judge.Round.ID,
		"submission_id": judge.Round.Submissions[0].ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	actor, ok := srv.room(roomID)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		number, phase := roundState(actor)
		return number == 2 && phase == game.PhasePicking
	}, 5*time.Second, 50*time.Millisecond)
}

func TestEmptyRoomExpires(t *testing.T) {
	cfg := testConfig()
	cfg.RoomIdleSeconds = 0
	srv, ts := startServer(t, cfg)
	roomID := createRoom(t, ts, "ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/leave", map[string]string{"player_id": "ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		_, ok := srv.room(roomID)
		return !ok
	}, 5*time.Second, 50*time.Millisecond, "an empty room closes and is evicted")
}
