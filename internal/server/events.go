package server

import (
	"errors"
	"sync"

	"fill-the-blank/internal/game"
)

var (
	errSubscriberLagged = errors.New("subscriber fell behind")
	errFeedClosed       = errors.New("room feed closed")
)

// feed fans committed events out to the subscribers of one room and keeps a
// bounded backlog so clients can resume from the last version they saw.
type feed struct {
	mu      sync.Mutex
	backlog []game.Event
	limit   int
	buffer  int
	version uint64
	closed  bool
	subs    map[*subscription]struct{}
}

type subscription struct {
	viewer string
	ch     chan game.Event
	err    error
}

// Events delivers events in version order. The channel closes when the
// subscriber is dropped; Err says why.
func (s *subscription) Events() <-chan game.Event { return s.ch }

func (s *subscription) Err() error { return s.err }

func newFeed(version uint64, limit, buffer int) *feed {
	if limit <= 0 {
		limit = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &feed{
		limit:   limit,
		buffer:  buffer,
		version: version,
		subs:    make(map[*subscription]struct{}),
	}
}

// prime seeds the backlog with events already committed, typically the tail
// of the durable log after a restart.
func (f *feed) prime(events []game.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		if len(f.backlog) > 0 && ev.Version <= f.lastLocked() {
			continue
		}
		f.appendLocked(ev)
	}
	if n := len(f.backlog); n > 0 && f.backlog[n-1].Version > f.version {
		f.version = f.backlog[n-1].Version
	}
}

// publish appends events to the backlog and hands them to every subscriber.
// A subscriber whose buffer is full is dropped and must resync.
func (f *feed) publish(events []game.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ev := range events {
		f.appendLocked(ev)
		f.version = ev.Version
		for sub := range f.subs {
			select {
			case sub.ch <- ev:
			default:
				f.dropLocked(sub, errSubscriberLagged)
			}
		}
	}
}

// since returns the retained events after version. ok is false when the
// backlog no longer reaches back that far.
func (f *feed) since(version uint64) ([]game.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinceLocked(version)
}

func (f *feed) sinceLocked(version uint64) ([]game.Event, bool) {
	if version >= f.version {
		return nil, true
	}
	if len(f.backlog) == 0 || f.backlog[0].Version > version+1 {
		return nil, false
	}
	start := int(version + 1 - f.backlog[0].Version)
	out := make([]game.Event, len(f.backlog)-start)
	copy(out, f.backlog[start:])
	return out, true
}

// subscribe registers viewer for events after version. It returns the
// retained events the subscriber missed; ok is false when a resync is needed.
func (f *feed) subscribe(viewer string, version uint64) (*subscription, []game.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, nil, false
	}
	missed, ok := f.sinceLocked(version)
	if !ok {
		return nil, nil, false
	}
	sub := &subscription{viewer: viewer, ch: make(chan game.Event, f.buffer)}
	f.subs[sub] = struct{}{}
	return sub, missed, true
}

func (f *feed) unsubscribe(sub *subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.ch)
	}
}

func (f *feed) current() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for sub := range f.subs {
		f.dropLocked(sub, errFeedClosed)
	}
}

func (f *feed) dropLocked(sub *subscription, reason error) {
	sub.err = reason
	delete(f.subs, sub)
	close(sub.ch)
}

func (f *feed) appendLocked(ev game.Event) {
	f.backlog = append(f.backlog, ev)
	if over := len(f.backlog) - f.limit; over > 0 {
		f.backlog = append(f.backlog[:0:0], f.backlog[over:]...)
	}
}

func (f *feed) lastLocked() uint64 {
	if len(f.backlog) == 0 {
		return 0
	}
	return f.backlog[len(f.backlog)-1].Version
}
