package game

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so transports can map it to a response.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindPermission    Kind = "permission"
	KindPhaseConflict Kind = "phase_conflict"
	KindCapacity      Kind = "capacity"
	KindPresence      Kind = "presence"
)

// Error is returned by every rejected room operation. Rejections never change
// room state.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Phase and RoundID are set on phase conflicts so the caller can resync.
	Phase   Phase
	RoundID string
}

func (e *Error) Error() string {
	if e.Phase != "" || e.RoundID != "" {
		return fmt.Sprintf("%s: %s (phase=%s round=%s)", e.Code, e.Message, e.Phase, e.RoundID)
	}
	return e.Code + ": " + e.Message
}

// Is matches on Code so that conflicts carrying room context still compare
// equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidInput       = &Error{Kind: KindValidation, Code: "invalid_input", Message: "malformed request"}
	ErrCardNotInHand      = &Error{Kind: KindValidation, Code: "card_not_in_hand", Message: "card is not in the player's hand"}
	ErrInvalidSubmission  = &Error{Kind: KindValidation, Code: "invalid_submission", Message: "submission does not belong to this round"}
	ErrPlayerIsJudge      = &Error{Kind: KindPermission, Code: "player_is_judge", Message: "the judge cannot submit cards"}
	ErrNotTheJudge        = &Error{Kind: KindPermission, Code: "not_the_judge", Message: "only the judge can choose the winner"}
	ErrNotHost            = &Error{Kind: KindPermission, Code: "not_host", Message: "only the host can do that"}
	ErrNotInRound         = &Error{Kind: KindPermission, Code: "not_in_round", Message: "player joined after the round started"}
	ErrWrongPhase         = &Error{Kind: KindPhaseConflict, Code: "wrong_phase", Message: "operation not valid in the current phase"}
	ErrStaleRound         = &Error{Kind: KindPhaseConflict, Code: "stale_round", Message: "round is no longer current"}
	ErrNoActiveRound      = &Error{Kind: KindPhaseConflict, Code: "no_active_round", Message: "no round is in progress"}
	ErrRoundInProgress    = &Error{Kind: KindPhaseConflict, Code: "round_in_progress", Message: "a round is already in progress"}
	ErrSubmissionComplete = &Error{Kind: KindPhaseConflict, Code: "submission_complete", Message: "submission already has every card"}
	ErrRoomFull           = &Error{Kind: KindCapacity, Code: "room_full", Message: "room is full"}
	ErrRoomClosed         = &Error{Kind: KindCapacity, Code: "room_closed", Message: "room is closed"}
	ErrPoolExhausted      = &Error{Kind: KindCapacity, Code: "pool_exhausted", Message: "not enough response cards left"}
	ErrPromptsExhausted   = &Error{Kind: KindCapacity, Code: "prompts_exhausted", Message: "every prompt has been used"}
	ErrNotEnoughPlayers   = &Error{Kind: KindCapacity, Code: "not_enough_players", Message: "not enough players to start a round"}
	ErrNotOnRoster        = &Error{Kind: KindPresence, Code: "not_on_roster", Message: "player is not in the room"}
)

// KindOf reports the taxonomy kind of err, or "" for non-engine errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func (r *Room) conflict(base *Error) error {
	e := *base
	if round := r.st.Round; round != nil {
		e.Phase = round.Phase
		e.RoundID = round.ID
	}
	return &e
}
