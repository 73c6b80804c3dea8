package game

import (
	"sort"
	"strings"
)

// PlayResult is the caller's view of their submission after a play.
type PlayResult struct {
	SubmissionID string `json:"submission_id"`
	Count        int    `json:"count"`
	PickCount    int    `json:"pick_count"`
}

// PlayCard moves one card from the player's hand into their submission for
// roundID. Completing the submission redraws the hand and may close picking.
func (r *Room) PlayCard(roundID, playerID, cardID string) (PlayResult, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" || strings.TrimSpace(roundID) == "" {
		return PlayResult{}, ErrInvalidInput
	}
	p := r.player(playerID)
	if p == nil {
		return PlayResult{}, ErrNotOnRoster
	}
	round := r.st.Round
	switch {
	case round == nil:
		return PlayResult{}, r.conflict(ErrNoActiveRound)
	case round.ID != roundID:
		return PlayResult{}, r.conflict(ErrStaleRound)
	case round.Phase != PhasePicking:
		return PlayResult{}, r.conflict(ErrWrongPhase)
	case round.JudgeID == p.ID:
		return PlayResult{}, ErrPlayerIsJudge
	}
	sub := round.submissionFor(p.ID)
	if sub == nil {
		return PlayResult{}, ErrNotInRound
	}
	if len(sub.Cards) >= round.PickCount {
		return PlayResult{}, r.conflict(ErrSubmissionComplete)
	}
	hand, ok := removeID(p.Hand, cardID)
	if !ok {
		return PlayResult{}, ErrCardNotInHand
	}

	r.touch(p)
	p.Hand = hand
	sub.Cards = append(sub.Cards, cardID)
	r.emitHand(p)

	res := PlayResult{SubmissionID: sub.ID, Count: len(sub.Cards), PickCount: round.PickCount}
	if len(sub.Cards) == round.PickCount {
		// Refill now so the next round never asks for more cards than held.
		// A short pool is settled by the top-up at round start.
		if missing := r.rules.HandSize - len(p.Hand); missing > 0 && r.st.Pool.available() >= missing {
			_ = r.deal(p, missing)
		}
	}
	r.emitProgress()
	r.checkPickingComplete()
	return res, nil
}

// checkPickingComplete opens judging once nobody connected still owes cards
// and at least one submission is complete.
func (r *Room) checkPickingComplete() {
	round := r.st.Round
	if round == nil || round.Phase != PhasePicking {
		return
	}
	complete, pending := r.tally(round)
	if pending == 0 && complete > 0 {
		r.enterJudging("all_submitted")
	}
}

func (r *Room) enterJudging(reason string) {
	round := r.st.Round
	kept := round.Submissions[:0]
	for _, sub := range round.Submissions {
		if len(sub.Cards) == round.PickCount {
			kept = append(kept, sub)
			continue
		}
		if len(sub.Cards) > 0 {
			r.settle(sub)
		}
	}
	round.Submissions = kept
	round.Phase = PhaseJudging
	round.PhaseStartedAt = r.now()
	r.emit(EventPhaseChanged, PhaseChanged{RoundID: round.ID, Phase: PhaseJudging, Reason: reason})
}

func (r *Room) emitProgress() {
	round := r.st.Round
	if round == nil || round.Phase != PhasePicking {
		return
	}
	complete, pending := r.tally(round)
	r.emit(EventSubmissionProgress, SubmissionProgress{
		RoundID:        round.ID,
		CompletedCount: complete,
		TotalExpected:  complete + pending,
	})
}

// tally counts complete submissions and the connected players still picking.
func (r *Room) tally(round *Round) (complete, pending int) {
	for _, sub := range round.Submissions {
		if len(sub.Cards) == round.PickCount {
			complete++
			continue
		}
		if p := r.player(sub.PlayerID); p != nil && p.Conn == Connected {
			pending++
		}
	}
	return complete, pending
}

func (rd *Round) submission(id string) *Submission {
	for _, sub := range rd.Submissions {
		if sub.ID == id {
			return sub
		}
	}
	return nil
}

func (rd *Round) submissionFor(playerID string) *Submission {
	for _, sub := range rd.Submissions {
		if sub.PlayerID == playerID {
			return sub
		}
	}
	return nil
}

func (rd *Round) dropSubmission(id string) {
	for i, sub := range rd.Submissions {
		if sub.ID == id {
			rd.Submissions = append(rd.Submissions[:i], rd.Submissions[i+1:]...)
			return
		}
	}
}

func (rd *Round) completeCount() int {
	n := 0
	for _, sub := range rd.Submissions {
		if len(sub.Cards) == rd.PickCount {
			n++
		}
	}
	return n
}

// revealOrder returns the submissions in their fixed display order.
func (rd *Round) revealOrder() []*Submission {
	out := append([]*Submission(nil), rd.Submissions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
