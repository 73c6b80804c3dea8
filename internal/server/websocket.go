package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"fill-the-blank/internal/game"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait    = 10 * time.Second
	wsCommandWait  = 10 * time.Second
	wsMaxFrameSize = 4096
)

// wsHub counts open sockets per player so that only the last socket to close
// starts the player's grace period.
type wsHub struct {
	mu    sync.Mutex
	conns map[string]map[string]int
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[string]map[string]int)}
}

func (h *wsHub) Add(roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	players, ok := h.conns[roomID]
	if !ok {
		players = make(map[string]int)
		h.conns[roomID] = players
	}
	players[playerID]++
}

// Remove returns how many sockets the player still has open in the room.
func (h *wsHub) Remove(roomID, playerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	players, ok := h.conns[roomID]
	if !ok {
		return 0
	}
	players[playerID]--
	left := players[playerID]
	if left <= 0 {
		delete(players, playerID)
		left = 0
	}
	if len(players) == 0 {
		delete(h.conns, roomID)
	}
	return left
}

type wsCommand struct {
	Type         string `json:"type" binding:"required,oneof=play choose_winner start next reset heartbeat leave"`
	ID           string `json:"id" binding:"max=64"`
	RoundID      string `json:"round_id" binding:"omitempty,ident"`
	CardID       string `json:"card_id" binding:"omitempty,ident"`
	SubmissionID string `json:"submission_id" binding:"omitempty,ident"`
}

type wsMessage struct {
	Type     string      `json:"type"`
	ID       string      `json:"id,omitempty"`
	Snapshot *game.View  `json:"snapshot,omitempty"`
	Event    *game.Event `json:"event,omitempty"`
	Result   any         `json:"result,omitempty"`
	Error    *errorBody  `json:"error,omitempty"`
}

// wsClient serializes writes; gorilla connections allow one writer at a time.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsClient) sendError(id string, err error) {
	_, body := describeError(err)
	_ = c.send(wsMessage{Type: "error", ID: id, Error: &body})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebsocket streams a room to one viewer. The first message is a
// snapshot unless ?since= names a version still in the backlog, in which
// case the missed events are replayed instead. Events then follow in version
// order.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, ok := s.room(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return
	}
	var q viewerQuery
	if !bindQuery(w, r, &q) {
		return
	}
	resume := r.URL.Query().Has("since")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(wsMaxFrameSize)
	client := &wsClient{conn: conn}

	var (
		sub   *subscription
		first []wsMessage
	)
	err = actor.query(r.Context(), func(room *game.Room) {
		if resume {
			if resumed, missed, ok := actor.feed.subscribe(q.PlayerID, q.Since); ok {
				sub = resumed
				for i := range missed {
					ev := missed[i].ForViewer(q.PlayerID)
					first = append(first, wsMessage{Type: "event", Event: &ev})
				}
				return
			}
		}
		view := room.Snapshot(q.PlayerID)
		sub, _, _ = actor.feed.subscribe(q.PlayerID, view.Version)
		first = append(first, wsMessage{Type: "snapshot", Snapshot: &view})
	})
	if err != nil || sub == nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "room closed"))
		_ = conn.Close()
		return
	}
	for _, msg := range first {
		if err := client.send(msg); err != nil {
			actor.feed.unsubscribe(sub)
			_ = conn.Close()
			return
		}
	}
	log.Debug().Str("room_id", actor.id).Str("player_id", q.PlayerID).Str("remote", r.RemoteAddr).Msg("ws connected")

	if q.PlayerID != "" {
		s.ws.Add(actor.id, q.PlayerID)
		ctx, cancel := context.WithTimeout(context.Background(), wsCommandWait)
		err := actor.do(ctx, func(room *game.Room) error {
			return room.Heartbeat(q.PlayerID)
		})
		cancel()
		if err != nil && !errors.Is(err, game.ErrNotOnRoster) {
			log.Warn().Err(err).Str("room_id", actor.id).Str("player_id", q.PlayerID).Msg("reconnect failed")
		}
	}

	go s.writeWS(actor, client, sub, q.PlayerID)
	go s.readWS(actor, client, sub, q.PlayerID)
}

func (s *Server) writeWS(actor *roomActor, client *wsClient, sub *subscription, playerID string) {
	for ev := range sub.Events() {
		view := ev.ForViewer(playerID)
		if err := client.send(wsMessage{Type: "event", Event: &view}); err != nil {
			_ = client.conn.Close()
			return
		}
	}
	if errors.Is(sub.Err(), errSubscriberLagged) {
		log.Warn().Str("room_id", actor.id).Str("player_id", playerID).Msg("ws subscriber lagged, asking for resync")
		_ = client.send(wsMessage{Type: "resync"})
	}
	_ = client.conn.Close()
}

func (s *Server) readWS(actor *roomActor, client *wsClient, sub *subscription, playerID string) {
	defer func() {
		actor.feed.unsubscribe(sub)
		_ = client.conn.Close()
		if playerID == "" || s.ws.Remove(actor.id, playerID) > 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), wsCommandWait)
		defer cancel()
		err := actor.do(ctx, func(room *game.Room) error {
			return room.Disconnect(playerID)
		})
		if err != nil && !errors.Is(err, game.ErrNotOnRoster) && !errors.Is(err, errRoomNotFound) {
			log.Warn().Err(err).Str("room_id", actor.id).Str("player_id", playerID).Msg("disconnect not recorded")
		}
		log.Debug().Str("room_id", actor.id).Str("player_id", playerID).Msg("ws disconnected")
	}()

	limiter := s.limiter.connLimiter()
	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			client.sendError("", game.ErrInvalidInput)
			continue
		}
		if err := validateCommand(&cmd); err != nil {
			client.sendError(cmd.ID, game.ErrInvalidInput)
			continue
		}
		if playerID == "" {
			client.sendError(cmd.ID, game.ErrNotOnRoster)
			continue
		}
		if !limiter.Allow() {
			_ = client.send(wsMessage{Type: "error", ID: cmd.ID, Error: &errorBody{Error: "rate_limited", Message: "too many commands"}})
			continue
		}
		result, err := s.dispatch(actor, playerID, cmd)
		if err != nil {
			client.sendError(cmd.ID, err)
			continue
		}
		_ = client.send(wsMessage{Type: "ack", ID: cmd.ID, Result: result})
	}
}

// dispatch runs one socket command against the room.
func (s *Server) dispatch(actor *roomActor, playerID string, cmd wsCommand) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), wsCommandWait)
	defer cancel()

	var result any
	var err error
	switch cmd.Type {
	case "play":
		err = actor.do(ctx, func(room *game.Room) error {
			res, err := room.PlayCard(cmd.RoundID, playerID, cmd.CardID)
			result = res
			return err
		})
	case "choose_winner":
		err = actor.do(ctx, func(room *game.Room) error {
			res, err := room.ChooseWinner(cmd.RoundID, playerID, cmd.SubmissionID)
			result = res
			return err
		})
	case "start":
		err = actor.doRound(ctx, func(room *game.Room) error { return room.StartRound(playerID) })
	case "next":
		err = actor.doRound(ctx, func(room *game.Room) error { return room.NextRound(playerID) })
	case "reset":
		err = actor.doRound(ctx, func(room *game.Room) error { return room.Reset(playerID) })
	case "heartbeat":
		err = actor.do(ctx, func(room *game.Room) error { return room.Heartbeat(playerID) })
	case "leave":
		err = actor.doRound(ctx, func(room *game.Room) error { return room.Leave(playerID, game.LeaveExplicit) })
	default:
		err = game.ErrInvalidInput
	}
	return result, err
}
