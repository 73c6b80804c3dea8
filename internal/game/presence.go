package game

import (
	"strings"
	"time"
)

const (
	LeaveExplicit          = "left"
	LeaveDisconnectTimeout = "disconnect_timeout"
)

// Join admits a player. Joining again while on the roster is a reconnect and
// always succeeds; a player who left earlier is appended to the end of the
// rotation with their previous score.
func (r *Room) Join(playerID, handle string) error {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return ErrInvalidInput
	}
	if err := r.requireOpen(); err != nil {
		return err
	}
	if p := r.player(playerID); p != nil {
		r.touch(p)
		return nil
	}
	if len(r.st.Players) >= r.rules.MaxPlayers {
		return ErrRoomFull
	}

	now := r.now()
	p := &Player{
		ID:         playerID,
		Handle:     strings.TrimSpace(handle),
		Conn:       Connected,
		JoinSeq:    r.st.NextJoinSeq,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	r.st.NextJoinSeq++
	prior, rejoin := r.st.Departed[playerID]
	if rejoin {
		p.Score = prior.Score
		if p.Handle == "" {
			p.Handle = prior.Handle
		}
		delete(r.st.Departed, playerID)
	}
	if p.Handle == "" {
		p.Handle = playerID
	}
	r.st.Players = append(r.st.Players, p)
	r.emit(EventPlayerJoined, PlayerJoined{
		PlayerID: p.ID,
		Handle:   p.Handle,
		Score:    p.Score,
		Rejoin:   rejoin,
	})
	if r.st.HostID == "" {
		r.st.HostID = p.ID
		r.emit(EventHostChanged, HostChanged{HostID: p.ID})
	}

	// A short pool is not fatal here; the round-start top-up decides.
	if r.st.Pool.available() >= r.rules.HandSize {
		_ = r.Deal(p.ID, r.rules.HandSize)
	}

	if r.rules.AutoStart && r.st.Status == StatusOpen && !r.roundActive() && len(r.st.Players) >= r.rules.MinPlayers {
		_ = r.startRound()
	}
	return nil
}

// Leave removes a player. It never blocks the round: their unfinished picks
// are dropped, a finished submission stays, and a departing judge aborts the
// round and a replacement starts with the next judge.
func (r *Room) Leave(playerID, reason string) error {
	idx := r.playerIndex(playerID)
	if idx < 0 {
		return ErrNotOnRoster
	}
	if reason == "" {
		reason = LeaveExplicit
	}
	p := r.st.Players[idx]
	r.st.Players = append(r.st.Players[:idx], r.st.Players[idx+1:]...)
	r.st.Departed[p.ID] = Departed{Handle: p.Handle, Score: p.Score}
	r.st.Pool.discard(p.Hand...)
	p.Hand = nil
	r.emit(EventPlayerLeft, PlayerLeft{PlayerID: p.ID, Reason: reason})

	if r.st.HostID == p.ID {
		r.st.HostID = ""
		if len(r.st.Players) > 0 {
			r.st.HostID = r.st.Players[0].ID
		}
		r.emit(EventHostChanged, HostChanged{HostID: r.st.HostID})
	}

	if r.st.Status == StatusClosed || !r.roundActive() {
		return nil
	}
	round := r.st.Round
	if round.JudgeID == p.ID {
		r.abortRound("judge_left")
		r.resumeOrWait()
		return nil
	}
	if sub := round.submissionFor(p.ID); sub != nil && len(sub.Cards) < round.PickCount {
		r.st.Pool.discard(sub.Cards...)
		round.dropSubmission(sub.ID)
	}
	if round.Phase != PhasePicking {
		return nil
	}
	if len(r.st.Players) < r.rules.MinPlayers {
		r.abortRound("not_enough_players")
		r.resumeOrWait()
		return nil
	}
	r.emitProgress()
	r.checkPickingComplete()
	return nil
}

// Disconnect starts a player's grace period. They stay on the roster, keep
// their queued picks and remain judge if they were.
func (r *Room) Disconnect(playerID string) error {
	p := r.player(playerID)
	if p == nil {
		return ErrNotOnRoster
	}
	if p.Conn == Disconnected {
		return nil
	}
	p.Conn = Disconnected
	p.DisconnectedAt = r.now()
	r.emit(EventPlayerDisconnected, PlayerPresence{PlayerID: p.ID})
	if round := r.st.Round; round != nil && round.Phase == PhasePicking {
		r.emitProgress()
		r.checkPickingComplete()
	}
	return nil
}

// Heartbeat records liveness and ends a grace period early.
func (r *Room) Heartbeat(playerID string) error {
	p := r.player(playerID)
	if p == nil {
		return ErrNotOnRoster
	}
	r.touch(p)
	return nil
}

// ExpireDisconnect turns a grace period into a leave. since must match the
// disconnect being expired, so a player who reconnected and dropped again is
// not removed by the older timer.
func (r *Room) ExpireDisconnect(playerID string, since time.Time) bool {
	p := r.player(playerID)
	if p == nil || p.Conn != Disconnected || !p.DisconnectedAt.Equal(since) {
		return false
	}
	_ = r.Leave(playerID, LeaveDisconnectTimeout)
	return true
}

func (r *Room) touch(p *Player) {
	p.LastSeenAt = r.now()
	if p.Conn == Connected {
		return
	}
	p.Conn = Connected
	p.DisconnectedAt = time.Time{}
	r.emit(EventPlayerReconnected, PlayerPresence{PlayerID: p.ID})
	if round := r.st.Round; round != nil && round.Phase == PhasePicking {
		r.emitProgress()
	}
}

// nextJudge walks the roster in join order starting after the previous judge.
// Players in their grace period are passed over while a connected one exists.
func (r *Room) nextJudge() *Player {
	n := len(r.st.Players)
	if n == 0 {
		return nil
	}
	start := 0
	for i, p := range r.st.Players {
		if p.JoinSeq > r.st.LastJudgeSeq {
			start = i
			break
		}
	}
	for i := 0; i < n; i++ {
		p := r.st.Players[(start+i)%n]
		if p.Conn == Connected {
			return p
		}
	}
	return r.st.Players[start]
}
