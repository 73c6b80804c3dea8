package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

var playerMessages = bindMessages{
	"PlayerID": {
		"required": "player_id is required",
		"ident":    "player_id must be 1-64 visible characters",
	},
	"Handle": {
		"handle": "handle must be 1-24 characters of text",
	},
	"RoundID": {
		"required": "round_id is required",
		"ident":    "round_id is malformed",
	},
	"CardID": {
		"required": "card_id is required",
		"ident":    "card_id is malformed",
	},
	"SubmissionID": {
		"required": "submission_id is required",
		"ident":    "submission_id is malformed",
	},
	"Deck": {
		"ident": "deck is malformed",
	},
}

func bindJSON(w http.ResponseWriter, r *http.Request, req any, messages bindMessages, fallback string) bool {
	if err := binding.JSON.Bind(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func bindQuery(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := binding.Query.Bind(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", resolveBindError(err, playerMessages, "invalid query"))
		return false
	}
	return true
}

// validateCommand runs the struct tags of a websocket command.
func validateCommand(cmd any) error {
	return binding.Validator.ValidateStruct(cmd)
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
