package server

import (
	"strings"
	"time"

	"fill-the-blank/internal/game"
)

const (
	timerPicking = "picking"
	timerAdvance = "advance"
	timerIdle    = "idle"
	timerEvict   = "evict"
	timerGrace   = "grace:"
)

// roomTimer is a scheduled room action. tag identifies what the timer was
// armed for so re-syncing leaves a matching timer alone.
type roomTimer struct {
	tag   string
	timer *time.Timer
}

// syncTimers arms and cancels timers to match the room after a commit. The
// engine re-checks every guard when a timer fires, so a timer that loses a
// race with a client command does nothing.
func (a *roomActor) syncTimers() {
	cfg := a.srv.cfg
	room := a.room

	if room.Status() == game.StatusClosed {
		for name := range a.timers {
			if name != timerEvict {
				a.cancelTimer(name)
			}
		}
		a.schedule(timerEvict, "", cfg.RoomIdle(), func() {
			a.srv.store.remove(a.id)
		})
		return
	}

	roundID, phase, ok := room.ActiveRound()
	if ok && phase == game.PhasePicking && cfg.RoundTimeout() > 0 {
		a.schedule(timerPicking, roundID, cfg.RoundTimeout(), func() {
			a.fire(true, func(room *game.Room) error {
				room.ExpirePicking(roundID)
				return nil
			})
		})
	} else {
		a.cancelTimer(timerPicking)
	}

	if ok && phase == game.PhaseCompleted && cfg.AutoAdvanceDelay() > 0 {
		a.schedule(timerAdvance, roundID, cfg.AutoAdvanceDelay(), func() {
			a.fire(true, func(room *game.Room) error {
				room.AutoAdvance(roundID)
				return nil
			})
		})
	} else {
		a.cancelTimer(timerAdvance)
	}

	disconnected := room.Disconnected()
	for name := range a.timers {
		if playerID, isGrace := strings.CutPrefix(name, timerGrace); isGrace {
			if _, still := disconnected[playerID]; !still {
				a.cancelTimer(name)
			}
		}
	}
	now := time.Now()
	for playerID, since := range disconnected {
		wait := cfg.DisconnectGrace() - now.Sub(since)
		if wait < 0 {
			wait = 0
		}
		a.schedule(timerGrace+playerID, since.String(), wait, func() {
			a.fire(true, func(room *game.Room) error {
				room.ExpireDisconnect(playerID, since)
				return nil
			})
		})
	}

	if room.RosterSize() == 0 {
		a.schedule(timerIdle, "", cfg.RoomIdle(), func() {
			a.fire(false, func(room *game.Room) error {
				room.Expire()
				return nil
			})
		})
	} else {
		a.cancelTimer(timerIdle)
	}
}

func (a *roomActor) schedule(name, tag string, after time.Duration, fn func()) {
	if existing, ok := a.timers[name]; ok {
		if existing.tag == tag {
			return
		}
		existing.timer.Stop()
	}
	a.timers[name] = &roomTimer{tag: tag, timer: time.AfterFunc(after, fn)}
}

func (a *roomActor) cancelTimer(name string) {
	if existing, ok := a.timers[name]; ok {
		existing.timer.Stop()
		delete(a.timers, name)
	}
}

func (a *roomActor) cancelTimers() {
	for name := range a.timers {
		a.cancelTimer(name)
	}
}
