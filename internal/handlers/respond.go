package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/ledger"
	"budget-tracker/internal/log"
	"budget-tracker/internal/models"
	"budget-tracker/internal/storage"
)

// Envelope is the response wrapper used by every endpoint.
type Envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// requestError is a malformed request body or parameter.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func writeJSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, Envelope{Code: status, Message: message, Data: data})
}

func write(w http.ResponseWriter, r *http.Request, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(payload.Code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.FromContext(r.Context()).Error("encode response failed", log.Err(err)...)
	}
}

// writeError maps err onto a status code. Unrecognised errors are logged and
// reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := models.AsValidationError(err); ok {
		write(w, r, Envelope{Code: http.StatusBadRequest, Message: "validation failed", Errors: ve.Fields})
		return
	}

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		write(w, r, Envelope{Code: http.StatusBadRequest, Message: reqErr.msg})
	case errors.Is(err, auth.ErrUsernameTaken):
		write(w, r, Envelope{Code: http.StatusConflict, Message: "username already taken",
			Errors: map[string]string{"username": "username already taken"}})
	case errors.Is(err, auth.ErrEmailTaken):
		write(w, r, Envelope{Code: http.StatusConflict, Message: "email already registered",
			Errors: map[string]string{"email": "email already registered"}})
	case errors.Is(err, auth.ErrConflict):
		write(w, r, Envelope{Code: http.StatusConflict, Message: "conflict"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		write(w, r, Envelope{Code: http.StatusUnauthorized, Message: auth.ErrInvalidCredentials.Error()})
	case errors.Is(err, auth.ErrUnauthenticated):
		write(w, r, Envelope{Code: http.StatusUnauthorized, Message: auth.ErrUnauthenticated.Error()})
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		write(w, r, Envelope{Code: http.StatusNotFound, Message: "not found"})
	default:
		log.FromContext(r.Context()).Error("request failed", log.Err(err)...)
		write(w, r, Envelope{Code: http.StatusInternalServerError, Message: "internal server error"})
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}
