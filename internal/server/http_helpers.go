package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fill-the-blank/internal/game"

	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Error   string     `json:"error"`
	Message string     `json:"message"`
	Phase   game.Phase `json:"phase,omitempty"`
	RoundID string     `json:"round_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeFailure maps an operation error onto a response. Engine rejections
// keep their code; phase conflicts also carry the authoritative phase and
// round so the client can resync.
func writeFailure(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func describeError(err error) (int, errorBody) {
	var engineErr *game.Error
	if errors.As(err, &engineErr) {
		body := errorBody{
			Error:   engineErr.Code,
			Message: engineErr.Message,
			Phase:   engineErr.Phase,
			RoundID: engineErr.RoundID,
		}
		return statusForKind(engineErr), body
	}
	switch {
	case errors.Is(err, errRoomNotFound):
		return http.StatusNotFound, errorBody{Error: "room_not_found", Message: err.Error()}
	case errors.Is(err, errPersistence):
		return http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorBody{Error: "timeout", Message: "room did not respond in time"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"}
	}
}

func statusForKind(err *game.Error) int {
	switch err.Kind {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindPermission, game.KindPresence:
		return http.StatusForbidden
	case game.KindPhaseConflict:
		return http.StatusConflict
	case game.KindCapacity:
		if errors.Is(err, game.ErrRoomFull) || errors.Is(err, game.ErrRoomClosed) {
			return http.StatusConflict
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
