package web

// RoomSummary is the public, hand-free view of a room used by the lobby list.
type RoomSummary struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Phase   string `json:"phase,omitempty"`
	Round   int    `json:"round"`
	Players int    `json:"players"`
	Max     int    `json:"max_players"`
}
