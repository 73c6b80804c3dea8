package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxHandleLength = 24
	maxIdentLength  = 64
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			_, err := validateHandle(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
			return validIdent(fl.Field().String())
		})
	})
}

// validateHandle normalizes a display name. Empty is allowed; the engine
// falls back to the player id.
func validateHandle(handle string) (string, error) {
	trimmed := normalizeText(handle)
	if trimmed == "" {
		return "", nil
	}
	if utf8.RuneCountInString(trimmed) > maxHandleLength {
		return "", fmt.Errorf("handle must be %d characters or fewer", maxHandleLength)
	}
	if !isSafeText(trimmed) {
		return "", errors.New("handle contains unsupported characters")
	}
	return trimmed, nil
}

// validIdent accepts opaque ids supplied by clients: non-empty, bounded and
// free of spaces and control characters.
func validIdent(id string) bool {
	if id == "" || len(id) > maxIdentLength {
		return false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return false
		}
		switch r {
		case '<', '>', '`':
			return false
		}
	}
	return true
}
