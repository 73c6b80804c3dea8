package game

const (
	AbortJudgeLeft        = "judge_left"
	AbortNotEnoughPlayers = "not_enough_players"
	AbortNoSubmissions    = "no_submissions"
	AbortReset            = "reset"

	EndPromptsExhausted = "prompts_exhausted"
	EndPoolExhausted    = "pool_exhausted"
	EndClosedByHost     = "closed_by_host"
	EndIdle             = "idle"
)

// WinResult is returned to the judge after a winner is recorded.
type WinResult struct {
	WinnerPlayerID string `json:"winner_player_id"`
	NewScore       int    `json:"new_score"`
}

func (r *Room) roundActive() bool {
	return r.st.Round != nil && r.st.Round.Phase != PhaseCompleted
}

// StartRound is the host's manual start, for rooms that do not auto-start or
// that fell back to Open after losing players.
func (r *Room) StartRound(callerID string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.requireHost(callerID); err != nil {
		return err
	}
	if r.roundActive() {
		return r.conflict(ErrRoundInProgress)
	}
	return r.startRound()
}

// NextRound moves a completed round on without waiting for auto-advance.
func (r *Room) NextRound(callerID string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.requireHost(callerID); err != nil {
		return err
	}
	if r.st.Round == nil {
		return r.conflict(ErrNoActiveRound)
	}
	if r.st.Round.Phase != PhaseCompleted {
		return r.conflict(ErrWrongPhase)
	}
	return r.startRound()
}

// AutoAdvance starts the round after roundID once its grace delay is over.
// It is a no-op if anything moved the room on in the meantime.
func (r *Room) AutoAdvance(roundID string) bool {
	round := r.st.Round
	if r.st.Status != StatusPlaying || round == nil || round.ID != roundID || round.Phase != PhaseCompleted {
		return false
	}
	r.resumeOrWait()
	return true
}

// ExpirePicking closes the picking window of roundID. Players who did not
// finish are left out of judging and get their cards back. A round that
// collected nothing is aborted.
func (r *Room) ExpirePicking(roundID string) bool {
	round := r.st.Round
	if round == nil || round.ID != roundID || round.Phase != PhasePicking {
		return false
	}
	if round.completeCount() == 0 {
		r.abortRound(AbortNoSubmissions)
		r.resumeOrWait()
		return true
	}
	r.enterJudging("timeout")
	return true
}

func (r *Room) startRound() error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if r.roundActive() {
		return r.conflict(ErrRoundInProgress)
	}
	if len(r.st.Players) < r.rules.MinPlayers {
		return ErrNotEnoughPlayers
	}

	judge := r.nextJudge()
	prompt, ok := r.st.Pool.nextPrompt(r.rng, r.rules.HandSize)
	if !ok {
		r.endGame(EndPromptsExhausted)
		return ErrPromptsExhausted
	}
	participants := make([]*Player, 0, len(r.st.Players)-1)
	for _, p := range r.st.Players {
		if p.ID != judge.ID {
			participants = append(participants, p)
		}
	}
	if err := r.topUp(participants); err != nil {
		r.endGame(EndPoolExhausted)
		return err
	}

	now := r.now()
	r.st.Pool.UsedPrompts[prompt.ID] = true
	r.st.RoundSeq++
	r.st.LastJudgeSeq = judge.JoinSeq
	round := &Round{
		ID:             r.newID(),
		Number:         r.st.RoundSeq,
		JudgeID:        judge.ID,
		Prompt:         prompt,
		PickCount:      prompt.PickCount(),
		Phase:          PhasePicking,
		CreatedAt:      now,
		PhaseStartedAt: now,
	}
	order := r.rng.Perm(len(participants))
	for i, p := range participants {
		round.Submissions = append(round.Submissions, &Submission{
			ID:       r.newID(),
			PlayerID: p.ID,
			Order:    order[i],
		})
	}
	r.st.Round = round
	r.st.Status = StatusPlaying

	r.emit(EventRoundStarted, RoundStarted{
		RoundID:   round.ID,
		Number:    round.Number,
		JudgeID:   round.JudgeID,
		Prompt:    round.Prompt,
		PickCount: round.PickCount,
	})
	r.emit(EventPhaseChanged, PhaseChanged{RoundID: round.ID, Phase: PhasePicking})
	r.emitProgress()
	return nil
}

// ChooseWinner records the judge's pick, scores it and reveals every author.
func (r *Room) ChooseWinner(roundID, callerID, submissionID string) (WinResult, error) {
	caller := r.player(callerID)
	if caller == nil {
		return WinResult{}, ErrNotOnRoster
	}
	round := r.st.Round
	switch {
	case round == nil:
		return WinResult{}, r.conflict(ErrNoActiveRound)
	case round.ID != roundID:
		return WinResult{}, r.conflict(ErrStaleRound)
	case round.Phase != PhaseJudging:
		return WinResult{}, r.conflict(ErrWrongPhase)
	case round.JudgeID != caller.ID:
		return WinResult{}, ErrNotTheJudge
	}
	winner := round.submission(submissionID)
	if winner == nil || len(winner.Cards) != round.PickCount {
		return WinResult{}, ErrInvalidSubmission
	}
	r.touch(caller)

	now := r.now()
	score := r.award(winner.PlayerID)
	round.WinnerSubmissionID = winner.ID
	round.WinnerPlayerID = winner.PlayerID
	round.Phase = PhaseCompleted
	round.PhaseStartedAt = now

	reveals := make([]RevealedSubmission, 0, len(round.Submissions))
	for _, sub := range round.revealOrder() {
		reveals = append(reveals, RevealedSubmission{
			SubmissionID: sub.ID,
			PlayerID:     sub.PlayerID,
			Order:        sub.Order,
			Cards:        r.st.Pool.cards(sub.Cards),
		})
		if sub.ID == winner.ID {
			r.st.Pool.retire(sub.Cards...)
		} else {
			r.st.Pool.discard(sub.Cards...)
		}
	}
	r.st.History = append(r.st.History, RoundResult{
		RoundID:        round.ID,
		Number:         round.Number,
		JudgeID:        round.JudgeID,
		PromptID:       round.Prompt.ID,
		PickCount:      round.PickCount,
		WinnerPlayerID: winner.PlayerID,
		WinningCards:   append([]string(nil), winner.Cards...),
		EndedAt:        now,
	})

	r.emit(EventScoreUpdated, ScoreUpdated{PlayerID: winner.PlayerID, Score: score})
	r.emit(EventPhaseChanged, PhaseChanged{RoundID: round.ID, Phase: PhaseCompleted})
	r.emit(EventRoundCompleted, RoundCompleted{
		RoundID:             round.ID,
		WinnerPlayerID:      winner.PlayerID,
		WinnerSubmissionID:  winner.ID,
		RevealedSubmissions: reveals,
	})
	return WinResult{WinnerPlayerID: winner.PlayerID, NewScore: score}, nil
}

// award credits a point to a player who may have left after submitting.
func (r *Room) award(playerID string) int {
	if p := r.player(playerID); p != nil {
		p.Score++
		return p.Score
	}
	d := r.st.Departed[playerID]
	d.Score++
	r.st.Departed[playerID] = d
	return d.Score
}

// abortRound drops the active round without a winner and gives every played
// card back to its owner.
func (r *Room) abortRound(reason string) {
	round := r.st.Round
	if round == nil || round.Phase == PhaseCompleted {
		return
	}
	for _, sub := range round.Submissions {
		if len(sub.Cards) > 0 {
			r.settle(sub)
		}
	}
	r.st.History = append(r.st.History, RoundResult{
		RoundID:   round.ID,
		Number:    round.Number,
		JudgeID:   round.JudgeID,
		PromptID:  round.Prompt.ID,
		PickCount: round.PickCount,
		Aborted:   true,
		Reason:    reason,
		EndedAt:   r.now(),
	})
	r.st.Round = nil
	r.emit(EventRoundAborted, RoundAborted{RoundID: round.ID, Reason: reason})
}

// resumeOrWait starts the next round when the roster allows it and parks the
// room in Open otherwise.
func (r *Room) resumeOrWait() {
	if r.st.Status == StatusClosed {
		return
	}
	if len(r.st.Players) >= r.rules.MinPlayers {
		if err := r.startRound(); err == nil || r.st.Status == StatusClosed {
			return
		}
	}
	if r.st.Round != nil && r.st.Round.Phase == PhaseCompleted {
		r.st.Round = nil
	}
	r.st.Status = StatusOpen
}

func (r *Room) endGame(reason string) {
	if r.st.Status == StatusClosed {
		return
	}
	r.abortRound(reason)
	r.st.Status = StatusClosed
	r.st.EndReason = reason
	r.emit(EventGameEnded, GameEnded{Reason: reason})
	r.emit(EventRoomClosed, RoomClosed{Reason: reason})
}

// Close ends the game at the host's request. No transitions follow.
func (r *Room) Close(callerID string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.requireHost(callerID); err != nil {
		return err
	}
	r.endGame(EndClosedByHost)
	return nil
}

// Expire closes a room that sat empty for too long.
func (r *Room) Expire() bool {
	if r.st.Status == StatusClosed || len(r.st.Players) > 0 {
		return false
	}
	r.endGame(EndIdle)
	return true
}

// Reset starts a fresh game with the current roster: scores go to zero, all
// cards return to the pool and prompts become available again.
func (r *Room) Reset(callerID string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.requireHost(callerID); err != nil {
		return err
	}
	r.abortRound(AbortReset)
	pool := &r.st.Pool
	for _, p := range r.st.Players {
		pool.discard(p.Hand...)
		p.Hand = nil
	}
	pool.discard(pool.Retired...)
	pool.Retired = nil
	pool.UsedPrompts = make(map[string]bool)
	r.st.Round = nil
	r.st.History = nil
	r.st.Departed = make(map[string]Departed)
	r.st.LastJudgeSeq = -1
	r.st.Status = StatusOpen
	r.emit(EventRoomReset, RoomReset{HostID: r.st.HostID})
	for _, p := range r.st.Players {
		if p.Score != 0 {
			p.Score = 0
			r.emit(EventScoreUpdated, ScoreUpdated{PlayerID: p.ID, Score: 0})
		}
		if pool.available() >= r.rules.HandSize {
			_ = r.deal(p, r.rules.HandSize)
		}
	}
	if r.rules.AutoStart && len(r.st.Players) >= r.rules.MinPlayers {
		_ = r.startRound()
	}
	return nil
}
