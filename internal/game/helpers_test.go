package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func prompts(n, pick int) []Card {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Card{
			ID:   fmt.Sprintf("p%d", i),
			Kind: CardPrompt,
			Text: fmt.Sprintf("Prompt %d", i),
			Pick: pick,
		})
	}
	return out
}

func responses(n int) []Card {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Card{
			ID:   fmt.Sprintf("r%d", i),
			Kind: CardResponse,
			Text: fmt.Sprintf("Response %d", i),
		})
	}
	return out
}

func newTestRoom(t *testing.T, rules Rules, cards ...[]Card) (*Room, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	seq := 0
	r := NewRoom("room-1", rules,
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(clock.Now),
		WithIDs(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	for _, batch := range cards {
		r.MergeCards(batch)
	}
	return r, clock
}

func manualRules(handSize int) Rules {
	return Rules{HandSize: handSize, MinPlayers: 3, MaxPlayers: 15}
}

func joinAll(t *testing.T, r *Room, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, r.Join(id, "Player "+id))
	}
}

func currentRound(t *testing.T, r *Room) *Round {
	t.Helper()
	require.NotNil(t, r.st.Round, "expected an active round")
	return r.st.Round
}

// play submits the first cards of the player's hand until their submission
// is complete.
func play(t *testing.T, r *Room, playerID string) string {
	t.Helper()
	round := currentRound(t, r)
	sub := round.submissionFor(playerID)
	require.NotNil(t, sub)
	for len(sub.Cards) < round.PickCount {
		p := r.player(playerID)
		require.NotNil(t, p)
		require.NotEmpty(t, p.Hand)
		_, err := r.PlayCard(round.ID, playerID, p.Hand[0])
		require.NoError(t, err)
	}
	return sub.ID
}

func playAll(t *testing.T, r *Room) {
	t.Helper()
	round := currentRound(t, r)
	for _, p := range append([]*Player(nil), r.st.Players...) {
		if p.ID == round.JudgeID || round.submissionFor(p.ID) == nil {
			continue
		}
		play(t, r, p.ID)
	}
}

func requireInvariants(t *testing.T, r *Room) {
	t.Helper()
	require.NoError(t, r.CheckInvariants())
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func findEvent(events []Event, kind EventType) (Event, bool) {
	for _, ev := range events {
		if ev.Type == kind {
			return ev, true
		}
	}
	return Event{}, false
}

func handCopy(r *Room, playerID string) []string {
	return append([]string(nil), r.player(playerID).Hand...)
}
