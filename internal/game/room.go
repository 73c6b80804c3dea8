package game

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhasePicking   Phase = "picking"
	PhaseJudging   Phase = "judging"
	PhaseCompleted Phase = "completed"
)

type RoomStatus string

const (
	StatusOpen    RoomStatus = "open"
	StatusPlaying RoomStatus = "playing"
	StatusClosed  RoomStatus = "closed"
)

type ConnState string

const (
	Connected    ConnState = "connected"
	Disconnected ConnState = "disconnected"
)

// Rules are the per-room tunables.
type Rules struct {
	HandSize   int
	MinPlayers int
	MaxPlayers int
	// AutoStart opens the first round as soon as the roster reaches MinPlayers.
	AutoStart  bool
}

func DefaultRules() Rules {
	return Rules{
		HandSize:   10,
		MinPlayers: 3,
		MaxPlayers: 15,
		AutoStart:  true,
	}
}

func (r Rules) normalized() Rules {
	def := DefaultRules()
	if r.HandSize <= 0 {
		r.HandSize = def.HandSize
	}
	if r.MinPlayers < 2 {
		r.MinPlayers = 2
	}
	if r.MaxPlayers < r.MinPlayers {
		r.MaxPlayers = r.MinPlayers
	}
	return r
}

type Player struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	Score          int       `json:"score"`
	Conn           ConnState `json:"conn"`
	Hand           []string  `json:"hand"`
	JoinSeq        int       `json:"join_seq"`
	JoinedAt       time.Time `json:"joined_at"`
	LastSeenAt     time.Time `json:"last_seen_at"`
	DisconnectedAt time.Time `json:"disconnected_at"`
}

// Departed remembers a player's score after they leave so a rejoin never
// lowers it.
type Departed struct {
	Handle string `json:"handle"`
	Score  int    `json:"score"`
}

type Submission struct {
	ID       string   `json:"id"`
	PlayerID string   `json:"player_id"`
	Cards    []string `json:"cards"`
	// Order is the reveal position, fixed when the round starts.
	Order    int      `json:"order"`
}

type Round struct {
	ID                 string        `json:"id"`
	Number             int           `json:"number"`
	JudgeID            string        `json:"judge_id"`
	Prompt             Card          `json:"prompt"`
	PickCount          int           `json:"pick_count"`
	Phase              Phase         `json:"phase"`
	Submissions        []*Submission `json:"submissions"`
	WinnerSubmissionID string        `json:"winner_submission_id,omitempty"`
	WinnerPlayerID     string        `json:"winner_player_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	PhaseStartedAt     time.Time     `json:"phase_started_at"`
}

type RoundResult struct {
	RoundID        string    `json:"round_id"`
	Number         int       `json:"number"`
	JudgeID        string    `json:"judge_id"`
	PromptID       string    `json:"prompt_id"`
	PickCount      int       `json:"pick_count"`
	WinnerPlayerID string    `json:"winner_player_id,omitempty"`
	WinningCards   []string  `json:"winning_cards,omitempty"`
	Aborted        bool      `json:"aborted,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	EndedAt        time.Time `json:"ended_at"`
}

// State is the durable form of a room. Everything the engine needs to resume
// after a restart lives here.
type State struct {
	ID           string              `json:"id"`
	Status       RoomStatus          `json:"status"`
	HostID       string              `json:"host_id"`
	Players      []*Player           `json:"players"`
	Departed     map[string]Departed `json:"departed"`
	Round        *Round              `json:"round,omitempty"`
	History      []RoundResult       `json:"history"`
	Pool         Pool                `json:"pool"`
	NextJoinSeq  int                 `json:"next_join_seq"`
	LastJudgeSeq int                 `json:"last_judge_seq"`
	RoundSeq     int                 `json:"round_seq"`
	Version      uint64              `json:"version"`
	EndReason    string              `json:"end_reason,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Room is one room's authoritative state machine. It is not safe for
// concurrent use; callers serialize every operation through a single writer.
type Room struct {
	st      State
	rules   Rules
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string
	pending []Event
}

type Option func(*Room)

func WithRand(rng *rand.Rand) Option {
	return func(r *Room) {
		if rng != nil {
			r.rng = rng
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Room) {
		if now != nil {
			r.now = now
		}
	}
}

func WithIDs(newID func() string) Option {
	return func(r *Room) {
		if newID != nil {
			r.newID = newID
		}
	}
}

func NewRoom(id string, rules Rules, opts ...Option) *Room {
	r := newRoom(rules, opts)
	r.st = State{
		ID:           id,
		Status:       StatusOpen,
		Departed:     make(map[string]Departed),
		Pool:         newPool(),
		LastJudgeSeq: -1,
		CreatedAt:    r.now(),
	}
	return r
}

// Restore rebuilds a room from MarshalState output.
func Restore(data []byte, rules Rules, opts ...Option) (*Room, error) {
	r := newRoom(rules, opts)
	if err := json.Unmarshal(data, &r.st); err != nil {
		return nil, err
	}
	if r.st.Departed == nil {
		r.st.Departed = make(map[string]Departed)
	}
	if r.st.Pool.Responses == nil {
		r.st.Pool.Responses = make(map[string]Card)
	}
	if r.st.Pool.UsedPrompts == nil {
		r.st.Pool.UsedPrompts = make(map[string]bool)
	}
	return r, nil
}

func newRoom(rules Rules, opts []Option) *Room {
	r := &Room{
		rules: rules.normalized(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Room) MarshalState() ([]byte, error) {
	return json.Marshal(r.st)
}

// Drain returns the events emitted since the last call, in version order.
func (r *Room) Drain() []Event {
	out := r.pending
	r.pending = nil
	return out
}

func (r *Room) ID() string { return r.st.ID }
func (r *Room) Status() RoomStatus { return r.st.Status }
func (r *Room) Version() uint64 { return r.st.Version }
func (r *Room) HostID() string { return r.st.HostID }
func (r *Room) RosterSize() int { return len(r.st.Players) }
func (r *Room) Rules() Rules { return r.rules }
func (r *Room) EndReason() string { return r.st.EndReason }
func (r *Room) History() []RoundResult {
	return append([]RoundResult(nil), r.st.History...)
}

// ActiveRound reports the current round id and phase. A completed round is
// still reported until the next one replaces it.
func (r *Room) ActiveRound() (string, Phase, bool) {
	if r.st.Round == nil {
		return "", "", false
	}
	return r.st.Round.ID, r.st.Round.Phase, true
}

// Disconnected lists roster players in their grace period with the time they
// dropped.
func (r *Room) Disconnected() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, p := range r.st.Players {
		if p.Conn == Disconnected {
			out[p.ID] = p.DisconnectedAt
		}
	}
	return out
}

// MergeCards adds newly approved catalog cards to the pool.
func (r *Room) MergeCards(cards []Card) int {
	return r.st.Pool.merge(cards, r.rng)
}

func (r *Room) player(id string) *Player {
	for _, p := range r.st.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerIndex(id string) int {
	for i, p := range r.st.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) requireOpen() error {
	if r.st.Status == StatusClosed {
		return ErrRoomClosed
	}
	return nil
}

func (r *Room) requireHost(callerID string) error {
	if r.player(callerID) == nil {
		return ErrNotOnRoster
	}
	if callerID != r.st.HostID {
		return ErrNotHost
	}
	return nil
}

func removeID(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
