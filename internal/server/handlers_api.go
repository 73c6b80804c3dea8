package server

import (
	"context"
	"net/http"

	"fill-the-blank/internal/game"

	"github.com/rs/zerolog/log"
)

type createRoomRequest struct {
	PlayerID string `json:"player_id" binding:"required,ident"`
	Handle   string `json:"handle" binding:"handle"`
	Deck     string `json:"deck" binding:"omitempty,ident"`
}

type joinRequest struct {
	PlayerID string `json:"player_id" binding:"required,ident"`
	Handle   string `json:"handle" binding:"handle"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required,ident"`
}

type playRequest struct {
	PlayerID string `json:"player_id" binding:"required,ident"`
	RoundID  string `json:"round_id" binding:"required,ident"`
	CardID   string `json:"card_id" binding:"required,ident"`
}

type winnerRequest struct {
	PlayerID     string `json:"player_id" binding:"required,ident"`
	RoundID      string `json:"round_id" binding:"required,ident"`
	SubmissionID string `json:"submission_id" binding:"required,ident"`
}

type viewerQuery struct {
	PlayerID string `form:"player_id" binding:"omitempty,ident"`
	Since    uint64 `form:"since"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !bindJSON(w, r, &req, playerMessages, "player_id is required") {
		return
	}
	handle, _ := validateHandle(req.Handle)
	actor, err := s.createRoom(r.Context(), req.Deck, req.PlayerID, handle)
	if err != nil {
		writeFailure(w, err)
		return
	}
	log.Info().Str("room_id", actor.id).Str("player_id", req.PlayerID).Str("deck", req.Deck).Msg("room created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"room_id": actor.id,
	})
}

// createRoom registers a new room and joins its creator as host.
func (s *Server) createRoom(ctx context.Context, deck, playerID, handle string) (*roomActor, error) {
	actor := s.store.reserve(func(code string) *roomActor {
		return s.newActor(code, deck, game.NewRoom(code, s.cfg.Rules(), s.roomOpts...))
	})
	if err := actor.doRound(ctx, func(room *game.Room) error {
		return room.Join(playerID, handle)
	}); err != nil {
		s.store.remove(actor.id)
		return nil, err
	}
	return actor, nil
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.store.summaries(),
	})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	roomID, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, ok := s.room(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, actor)
		case "events":
			s.handleEvents(w, r, actor)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoin(w, r, actor)
		case "leave":
			s.handlePlayerAction(w, r, actor, true, func(room *game.Room, playerID string) error {
				return room.Leave(playerID, game.LeaveExplicit)
			})
		case "heartbeat":
			s.handlePlayerAction(w, r, actor, false, func(room *game.Room, playerID string) error {
				return room.Heartbeat(playerID)
			})
		case "start":
			s.handlePlayerAction(w, r, actor, true, func(room *game.Room, playerID string) error {
				return room.StartRound(playerID)
			})
		case "next":
			s.handlePlayerAction(w, r, actor, true, func(room *game.Room, playerID string) error {
				return room.NextRound(playerID)
			})
		case "reset":
			s.handlePlayerAction(w, r, actor, true, func(room *game.Room, playerID string) error {
				return room.Reset(playerID)
			})
		case "close":
			s.handlePlayerAction(w, r, actor, false, func(room *game.Room, playerID string) error {
				return room.Close(playerID)
			})
		case "plays":
			s.handlePlay(w, r, actor)
		case "winner":
			s.handleWinner(w, r, actor)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, actor *roomActor) {
	var q viewerQuery
	if !bindQuery(w, r, &q) {
		return
	}
	var view game.View
	if err := actor.query(r.Context(), func(room *game.Room) {
		view = room.Snapshot(q.PlayerID)
	}); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEvents serves the feed after ?since=. When the in-memory backlog no
// longer reaches back that far the durable log is consulted; without one the
// client must resync from a snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, actor *roomActor) {
	var q viewerQuery
	if !bindQuery(w, r, &q) {
		return
	}
	events, ok := actor.feed.since(q.Since)
	if !ok && s.db != nil {
		loaded, err := s.loadEvents(r.Context(), actor.id, q.Since, 0)
		if err != nil {
			writeFailure(w, err)
			return
		}
		events, ok = loaded, true
	}
	version := actor.feed.current()
	if !ok {
		writeJSON(w, http.StatusGone, map[string]any{
			"error":   "resync_required",
			"message": "events before this version are no longer retained",
			"version": version,
		})
		return
	}
	out := make([]game.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ForViewer(q.PlayerID))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":  out,
		"version": version,
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, actor *roomActor) {
	var req joinRequest
	if !bindJSON(w, r, &req, playerMessages, "player_id is required") {
		return
	}
	handle, _ := validateHandle(req.Handle)
	err := actor.doRound(r.Context(), func(room *game.Room) error {
		return room.Join(req.PlayerID, handle)
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	log.Info().Str("room_id", actor.id).Str("player_id", req.PlayerID).Msg("player joined")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "accepted",
		"room_id": actor.id,
	})
}

func (s *Server) handlePlayerAction(w http.ResponseWriter, r *http.Request, actor *roomActor, refresh bool, op func(room *game.Room, playerID string) error) {
	var req playerRequest
	if !bindJSON(w, r, &req, playerMessages, "player_id is required") {
		return
	}
	run := actor.do
	if refresh {
		run = actor.doRound
	}
	if err := run(r.Context(), func(room *game.Room) error {
		return op(room, req.PlayerID)
	}); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request, actor *roomActor) {
	var req playRequest
	if !bindJSON(w, r, &req, playerMessages, "round_id and card_id are required") {
		return
	}
	var result game.PlayResult
	err := actor.do(r.Context(), func(room *game.Room) error {
		var err error
		result, err = room.PlayCard(req.RoundID, req.PlayerID, req.CardID)
		return err
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWinner(w http.ResponseWriter, r *http.Request, actor *roomActor) {
	var req winnerRequest
	if !bindJSON(w, r, &req, playerMessages, "round_id and submission_id are required") {
		return
	}
	var result game.WinResult
	err := actor.do(r.Context(), func(room *game.Room) error {
		var err error
		result, err = room.ChooseWinner(req.RoundID, req.PlayerID, req.SubmissionID)
		return err
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	log.Info().Str("room_id", actor.id).Str("round_id", req.RoundID).Str("player_id", result.WinnerPlayerID).Msg("round won")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
