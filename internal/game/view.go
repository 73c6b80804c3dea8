package game

import "time"

// View is a read projection of the room for one viewer. Every flag in it is
// derived from the round phase and judge id.
type View struct {
	RoomID     string        `json:"room_id"`
	Status     RoomStatus    `json:"status"`
	Version    uint64        `json:"version"`
	HostID     string        `json:"host_id"`
	EndReason  string        `json:"end_reason,omitempty"`
	MinPlayers int           `json:"min_players"`
	MaxPlayers int           `json:"max_players"`
	HandSize   int           `json:"hand_size"`
	Players    []PlayerView  `json:"players"`
	Round      *RoundView    `json:"round,omitempty"`
	Hand       []Card        `json:"hand"`
	Mine       *Submission   `json:"my_submission,omitempty"`
	History    []RoundResult `json:"history"`

	IsHost     bool `json:"is_host"`
	IsJudge    bool `json:"is_judge"`
	CanPlay    bool `json:"can_play"`
	CanJudge   bool `json:"can_judge"`
	CanStart   bool `json:"can_start"`
	CanAdvance bool `json:"can_advance"`
}

type PlayerView struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	HandSize  int    `json:"hand_size"`
	IsHost    bool   `json:"is_host"`
	IsJudge   bool   `json:"is_judge"`
	// Submitted is only set while picking; it says nothing about content.
	Submitted bool   `json:"submitted"`
}

type RoundView struct {
	ID                 string           `json:"id"`
	Number             int              `json:"number"`
	JudgeID            string           `json:"judge_id"`
	Prompt             Card             `json:"prompt"`
	PickCount          int              `json:"pick_count"`
	Phase              Phase            `json:"phase"`
	PhaseStartedAt     time.Time        `json:"phase_started_at"`
	CompletedCount     int              `json:"completed_count"`
	TotalExpected      int              `json:"total_expected"`
	Submissions        []SubmissionView `json:"submissions,omitempty"`
	WinnerSubmissionID string           `json:"winner_submission_id,omitempty"`
	WinnerPlayerID     string           `json:"winner_player_id,omitempty"`
}

// SubmissionView is anonymous until the round completes.
type SubmissionView struct {
	ID       string `json:"id"`
	Order    int    `json:"order"`
	Cards    []Card `json:"cards"`
	PlayerID string `json:"player_id,omitempty"`
}

// Snapshot builds the full state a (re)connecting client needs. Only the
// viewer's own hand and submission are included.
func (r *Room) Snapshot(viewerID string) View {
	v := View{
		RoomID:     r.st.ID,
		Status:     r.st.Status,
		Version:    r.st.Version,
		HostID:     r.st.HostID,
		EndReason:  r.st.EndReason,
		MinPlayers: r.rules.MinPlayers,
		MaxPlayers: r.rules.MaxPlayers,
		HandSize:   r.rules.HandSize,
		Players:    make([]PlayerView, 0, len(r.st.Players)),
		Hand:       []Card{},
		History:    append([]RoundResult{}, r.st.History...),
	}
	round := r.st.Round
	for _, p := range r.st.Players {
		pv := PlayerView{
			ID:        p.ID,
			Handle:    p.Handle,
			Score:     p.Score,
			Connected: p.Conn == Connected,
			HandSize:  len(p.Hand),
			IsHost:    p.ID == r.st.HostID,
		}
		if round != nil {
			pv.IsJudge = p.ID == round.JudgeID
			if sub := round.submissionFor(p.ID); sub != nil && round.Phase == PhasePicking {
				pv.Submitted = len(sub.Cards) == round.PickCount
			}
		}
		v.Players = append(v.Players, pv)
	}

	viewer := r.player(viewerID)
	if viewer != nil {
		v.Hand = r.st.Pool.cards(viewer.Hand)
		v.IsHost = viewer.ID == r.st.HostID
	}
	if round != nil {
		v.Round = r.roundView(round)
		v.IsJudge = viewer != nil && viewer.ID == round.JudgeID
		if viewer != nil && round.Phase != PhaseCompleted {
			if sub := round.submissionFor(viewer.ID); sub != nil {
				mine := *sub
				mine.Cards = append([]string(nil), sub.Cards...)
				v.Mine = &mine
				v.CanPlay = round.Phase == PhasePicking && len(sub.Cards) < round.PickCount
			}
		}
		v.CanJudge = v.IsJudge && round.Phase == PhaseJudging
	}
	open := r.st.Status != StatusClosed
	v.CanStart = open && v.IsHost && !r.roundActive() && len(r.st.Players) >= r.rules.MinPlayers
	v.CanAdvance = open && v.IsHost && round != nil && round.Phase == PhaseCompleted
	return v
}

func (r *Room) roundView(round *Round) *RoundView {
	rv := &RoundView{
		ID:                 round.ID,
		Number:             round.Number,
		JudgeID:            round.JudgeID,
		Prompt:             round.Prompt,
		PickCount:          round.PickCount,
		Phase:              round.Phase,
		PhaseStartedAt:     round.PhaseStartedAt,
		WinnerSubmissionID: round.WinnerSubmissionID,
		WinnerPlayerID:     round.WinnerPlayerID,
	}
	switch round.Phase {
	case PhasePicking:
		complete, pending := r.tally(round)
		rv.CompletedCount = complete
		rv.TotalExpected = complete + pending
	default:
		rv.CompletedCount = len(round.Submissions)
		rv.TotalExpected = len(round.Submissions)
		for _, sub := range round.revealOrder() {
			sv := SubmissionView{
				ID:    sub.ID,
				Order: sub.Order,
				Cards: r.st.Pool.cards(sub.Cards),
			}
			if round.Phase == PhaseCompleted {
				sv.PlayerID = sub.PlayerID
			}
			rv.Submissions = append(rv.Submissions, sv)
		}
	}
	return rv
}
