package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DoyleJ11/werewolf-arena/internal/engine"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

// Every response goes through the {code, message, data} envelope so the
// client boundary unwraps one shape, never "maybe wrapped, maybe not".

func respondOK(w http.ResponseWriter, data any) {
	respond(w, http.StatusOK, "ok", data)
}

func respondErr(w http.ResponseWriter, code int, message string) {
	respond(w, code, message, nil)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	env := types.Envelope{Code: code, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			code = http.StatusInternalServerError
			env = types.Envelope{Code: code, Message: "encode response"}
		} else {
			env.Data = raw
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

// statusFor maps engine protocol errors onto HTTP codes. Unknown errors
// are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrAlreadyAssigned):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidSeat),
		errors.Is(err, engine.ErrInvalidTarget),
		errors.Is(err, engine.ErrDeadVoter),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrTooLong),
		errors.Is(err, engine.ErrEmptySpeech),
		errors.Is(err, engine.ErrPotionSpent),
		errors.Is(err, engine.ErrUnsupportedCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
