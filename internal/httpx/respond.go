package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/preloved/marketplace/internal/market"
)

type errorBody struct {
	Error errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy to distinct status/code pairs.
// Conflict is the only retryable kind.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, market.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, market.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, market.ErrInvalidState):
		status, code = http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, market.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, market.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	default:
		status, code = http.StatusInternalServerError, "internal"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorInfo{Code: code, Message: msg}})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorInfo{Code: "invalid_input", Message: msg}})
}
