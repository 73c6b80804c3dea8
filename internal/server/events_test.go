package server

import (
	"testing"

	"fill-the-blank/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func events(from, to uint64) []game.Event {
	var out []game.Event
	for v := from; v <= to; v++ {
		out = append(out, game.Event{Version: v, Type: game.EventPlayerJoined, RoomID: "R"})
	}
	return out
}

func versions(evs []game.Event) []uint64 {
	out := make([]uint64, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Version)
	}
	return out
}

func TestFeedSinceAndTrim(t *testing.T) {
	f := newFeed(0, 3, 8)
	f.publish(events(1, 5))
	assert.Equal(t, uint64(5), f.current())

	got, ok := f.since(2)
	require.True(t, ok)
	assert.Equal(t, []uint64{3, 4, 5}, versions(got))

	got, ok = f.since(5)
	require.True(t, ok)
	assert.Empty(t, got)

	_, ok = f.since(1)
	assert.False(t, ok, "version 2 is no longer retained")
}

func TestFeedSubscribeReplaysMissed(t *testing.T) {
	f := newFeed(0, 10, 8)
	f.publish(events(1, 3))

	sub, missed, ok := f.subscribe("ada", 1)
	require.True(t, ok)
	assert.Equal(t, []uint64{2, 3}, versions(missed))

	f.publish(events(4, 4))
	ev := <-sub.Events()
	assert.Equal(t, uint64(4), ev.Version)

	f.unsubscribe(sub)
	_, open := <-sub.Events()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
}

func TestFeedDropsSlowSubscriber(t *testing.T) {
	f := newFeed(0, 10, 2)
	slow, _, ok := f.subscribe("slow", 0)
	require.True(t, ok)
	fast, _, ok := f.subscribe("fast", 0)
	require.True(t, ok)

	f.publish(events(1, 2))
	<-fast.Events()
	<-fast.Events()
	f.publish(events(3, 3))

	var seen []uint64
	for ev := range slow.Events() {
		seen = append(seen, ev.Version)
	}
	assert.Equal(t, []uint64{1, 2}, seen)
	assert.ErrorIs(t, slow.Err(), errSubscriberLagged)

	ev := <-fast.Events()
	assert.Equal(t, uint64(3), ev.Version)
}

func TestFeedPrimeAndClose(t *testing.T) {
	f := newFeed(7, 4, 4)
	f.prime(events(3, 7))
	got, ok := f.since(4)
	require.True(t, ok)
	assert.Equal(t, []uint64{5, 6, 7}, versions(got))

	sub, _, ok := f.subscribe("ada", 7)
	require.True(t, ok)
	f.close()
	_, open := <-sub.Events()
	assert.False(t, open)
	assert.ErrorIs(t, sub.Err(), errFeedClosed)

	_, _, ok = f.subscribe("bea", 7)
	assert.False(t, ok)
}
