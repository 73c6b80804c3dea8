package game

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventHostChanged        EventType = "host_changed"
	EventRoundStarted       EventType = "round_started"
	EventHandChanged        EventType = "hand_changed"
	EventSubmissionProgress EventType = "submission_progress"
	EventPhaseChanged       EventType = "phase_changed"
	EventRoundCompleted     EventType = "round_completed"
	EventRoundAborted       EventType = "round_aborted"
	EventScoreUpdated       EventType = "score_updated"
	EventGameEnded          EventType = "game_ended"
	EventRoomClosed         EventType = "room_closed"
	EventRoomReset          EventType = "room_reset"
)

// Event is one applied state transition. Versions are contiguous per room.
type Event struct {
	Version uint64    `json:"version"`
	Type    EventType `json:"type"`
	RoomID  string    `json:"room_id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type PlayerJoined struct {
	PlayerID string `json:"player_id"`
	Handle   string `json:"handle"`
	Score    int    `json:"score"`
	Rejoin   bool   `json:"rejoin,omitempty"`
}

type PlayerLeft struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

type PlayerPresence struct {
	PlayerID string `json:"player_id"`
}

type HostChanged struct {
	HostID string `json:"host_id"`
}

type RoundStarted struct {
	RoundID   string `json:"round_id"`
	Number    int    `json:"number"`
	JudgeID   string `json:"judge_id"`
	Prompt    Card   `json:"prompt"`
	PickCount int    `json:"pick_count"`
}

// HandChanged carries the hand contents only for its owner; everyone else
// sees the size.
type HandChanged struct {
	PlayerID string `json:"player_id"`
	Size     int    `json:"size"`
	Cards    []Card `json:"cards,omitempty"`
}

type SubmissionProgress struct {
	RoundID        string `json:"round_id"`
	CompletedCount int    `json:"completed_count"`
	TotalExpected  int    `json:"total_expected"`
}

type PhaseChanged struct {
	RoundID string `json:"round_id"`
	Phase   Phase  `json:"phase"`
	Reason  string `json:"reason,omitempty"`
}

type RevealedSubmission struct {
	SubmissionID string `json:"submission_id"`
	PlayerID     string `json:"player_id"`
	Order        int    `json:"order"`
	Cards        []Card `json:"cards"`
}

type RoundCompleted struct {
	RoundID             string               `json:"round_id"`
	WinnerPlayerID      string               `json:"winner_player_id"`
	WinnerSubmissionID  string               `json:"winner_submission_id"`
	RevealedSubmissions []RevealedSubmission `json:"revealed_submissions"`
}

type RoundAborted struct {
	RoundID string `json:"round_id"`
	Reason  string `json:"reason"`
}

type ScoreUpdated struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

type GameEnded struct {
	Reason string `json:"reason"`
}

type RoomClosed struct {
	Reason string `json:"reason"`
}

type RoomReset struct {
	HostID string `json:"host_id"`
}

func (r *Room) emit(kind EventType, payload any) {
	r.st.Version++
	r.pending = append(r.pending, Event{
		Version: r.st.Version,
		Type:    kind,
		RoomID:  r.st.ID,
		At:      r.now(),
		Payload: payload,
	})
}

func (r *Room) emitHand(p *Player) {
	r.emit(EventHandChanged, HandChanged{
		PlayerID: p.ID,
		Size:     len(p.Hand),
		Cards:    r.st.Pool.cards(p.Hand),
	})
}

// ForViewer returns the event as viewerID may see it. Hand contents of other
// players are stripped, including from events reloaded from storage.
func (e Event) ForViewer(viewerID string) Event {
	if e.Type != EventHandChanged {
		return e
	}
	var hand HandChanged
	switch payload := e.Payload.(type) {
	case HandChanged:
		hand = payload
	case json.RawMessage:
		if err := json.Unmarshal(payload, &hand); err != nil {
			e.Payload = nil
			return e
		}
	default:
		return e
	}
	if hand.PlayerID != viewerID {
		hand.Cards = nil
	}
	e.Payload = hand
	return e
}
