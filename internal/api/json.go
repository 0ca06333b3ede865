package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/laguz/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeErr maps the apperr taxonomy onto HTTP statuses. A record that does
// not resolve under the current principal is a 404, never a 403.
func writeErr(w http.ResponseWriter, err error, logMsg string) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: ve.Msg, Field: ve.Field, Value: ve.Value})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict, retry the request"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	default:
		slog.Error(logMsg, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
