package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fill-the-blank/internal/game"
	"fill-the-blank/internal/web"

	"github.com/rs/zerolog/log"
)

var errRoomNotFound = errors.New("room not found")

// roomActor owns one room. Every read and write of the room runs on its
// goroutine, so operations on a room are applied one at a time in arrival
// order.
type roomActor struct {
	id   string
	deck string
	srv  *Server
	room *game.Room
	feed *feed

	inbox    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// timers is only touched on the actor goroutine.
	timers  map[string]*roomTimer
	summary atomic.Pointer[web.RoomSummary]
}

func (s *Server) newActor(id, deck string, room *game.Room) *roomActor {
	a := &roomActor{
		id:     id,
		deck:   deck,
		srv:    s,
		room:   room,
		feed:   newFeed(room.Version(), s.cfg.EventBacklog, s.cfg.SubscriberBuffer),
		inbox:  make(chan func(), 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		timers: make(map[string]*roomTimer),
	}
	a.refreshSummary()
	go a.run()
	return a
}

func (a *roomActor) run() {
	defer close(a.done)
	for {
		select {
		case <-a.quit:
			a.cancelTimers()
			return
		case fn := <-a.inbox:
			fn()
		}
	}
}

func (a *roomActor) stop() {
	a.stopOnce.Do(func() {
		close(a.quit)
		a.feed.close()
	})
	<-a.done
}

func (a *roomActor) enqueue(ctx context.Context, fn func()) error {
	select {
	case a.inbox <- fn:
		return nil
	case <-a.quit:
		return errRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// query runs fn on the actor goroutine without committing anything.
func (a *roomActor) query(ctx context.Context, fn func(room *game.Room)) error {
	finished := make(chan struct{})
	if err := a.enqueue(ctx, func() {
		fn(a.room)
		close(finished)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-a.quit:
		return errRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do applies op and commits the events it produced before anyone sees them.
func (a *roomActor) do(ctx context.Context, op func(room *game.Room) error) error {
	return a.submit(ctx, false, op)
}

// doRound is do for operations that may start a round; the catalog is merged
// into the pool first.
func (a *roomActor) doRound(ctx context.Context, op func(room *game.Room) error) error {
	return a.submit(ctx, true, op)
}

func (a *roomActor) submit(ctx context.Context, refresh bool, op func(room *game.Room) error) error {
	result := make(chan error, 1)
	if err := a.enqueue(ctx, func() {
		result <- a.apply(context.WithoutCancel(ctx), refresh, op)
	}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-a.quit:
		return errRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply must run on the actor goroutine. Events are persisted, then
// published. If the commit fails the room is rolled back to its state before
// op and nothing is announced.
func (a *roomActor) apply(ctx context.Context, refresh bool, op func(room *game.Room) error) error {
	if refresh {
		a.mergeCatalog(ctx)
	}
	before, err := a.room.MarshalState()
	if err != nil {
		return err
	}
	opErr := op(a.room)
	events := a.room.Drain()
	if len(events) == 0 {
		return opErr
	}
	if err := a.srv.persistRoom(ctx, a.deck, a.room, events); err != nil {
		log.Error().Err(err).Str("room_id", a.id).Uint64("version", events[len(events)-1].Version).Msg("commit failed, rolling back")
		restored, restoreErr := game.Restore(before, a.room.Rules(), a.srv.roomOpts...)
		if restoreErr != nil {
			log.Error().Err(restoreErr).Str("room_id", a.id).Msg("rollback failed")
		} else {
			a.room = restored
		}
		return errPersistence
	}
	a.feed.publish(events)
	for _, ev := range events {
		log.Debug().Str("room_id", a.id).Uint64("version", ev.Version).Str("type", string(ev.Type)).Msg("event")
	}
	a.refreshSummary()
	a.syncTimers()
	return opErr
}

func (a *roomActor) mergeCatalog(ctx context.Context) {
	if a.srv.catalog == nil || a.room.Status() == game.StatusClosed {
		return
	}
	cards, err := a.srv.catalog.Cards(ctx, a.deck)
	if err != nil {
		log.Warn().Err(err).Str("room_id", a.id).Msg("catalog unavailable, keeping current pool")
		return
	}
	if added := a.room.MergeCards(cards); added > 0 {
		log.Debug().Str("room_id", a.id).Int("cards", added).Msg("catalog merged")
	}
}

func (a *roomActor) refreshSummary() {
	view := a.room.Snapshot("")
	summary := web.RoomSummary{
		ID:      a.id,
		Status:  string(view.Status),
		Players: len(view.Players),
		Max:     view.MaxPlayers,
	}
	if view.Round != nil {
		summary.Round = view.Round.Number
		summary.Phase = string(view.Round.Phase)
	}
	a.summary.Store(&summary)
}

// fire is the timer entry point: op runs through the same commit path as a
// client command.
func (a *roomActor) fire(refresh bool, op func(room *game.Room) error) {
	err := a.enqueue(context.Background(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.apply(ctx, refresh, op); err != nil {
			log.Warn().Err(err).Str("room_id", a.id).Msg("timer action failed")
		}
	})
	if err != nil && !errors.Is(err, errRoomNotFound) {
		log.Warn().Err(err).Str("room_id", a.id).Msg("timer action dropped")
	}
}
