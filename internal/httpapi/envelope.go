package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"estatehub.app/internal/auth"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/obs"
	"estatehub.app/internal/report"
)

// Error codes carried in the envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeServerError      = "SERVER_ERROR"
)

type envelope struct {
	Status    string     `json:"status"`
	Data      any        `json:"data,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data, Timestamp: now()})
}

func fail(w http.ResponseWriter, code int, errCode, msg string, details any) {
	writeJSON(w, code, envelope{
		Status:    "error",
		Error:     &errorBody{Code: errCode, Message: msg, Details: details},
		Timestamp: now(),
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	fail(w, http.StatusBadRequest, CodeValidation, msg, nil)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	fail(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	fail(w, http.StatusNotFound, CodeNotFound, "resource not found", nil)
}

// message strips the sentinel prefix from a wrapped validation error.
func message(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return "invalid request"
	}
	return msg
}

// writeError maps domain errors onto envelope codes. Anything unrecognized is
// logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		fail(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", nil)
	case errors.Is(err, auth.ErrInvalidInput):
		badRequest(w, message(err, auth.ErrInvalidInput))
	case errors.Is(err, estate.ErrInvalidInput):
		badRequest(w, message(err, estate.ErrInvalidInput))
	case errors.Is(err, report.ErrInvalidInput):
		badRequest(w, message(err, report.ErrInvalidInput))
	case errors.Is(err, auth.ErrAlreadyExists):
		badRequest(w, "email already registered")
	case errors.Is(err, auth.ErrInvalidResetToken):
		badRequest(w, "invalid or expired reset token")
	case errors.Is(err, estate.ErrConflict):
		badRequest(w, message(err, estate.ErrConflict))
	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials", nil)
	case errors.Is(err, auth.ErrInvalidToken):
		unauthenticated(w, CodeInvalidToken, "invalid or expired token")
	case errors.Is(err, auth.ErrAccountInactive):
		fail(w, http.StatusForbidden, CodeForbidden, "account is not active", nil)
	case errors.Is(err, estate.ErrForbidden):
		fail(w, http.StatusForbidden, CodeForbidden, message(err, estate.ErrForbidden), nil)
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, estate.ErrNotFound):
		fail(w, http.StatusNotFound, CodeNotFound, "resource not found", nil)
	case errors.Is(err, report.ErrNoData):
		fail(w, http.StatusNotFound, CodeNotFound, "no data available for export", nil)
	default:
		obs.Error("request_failed", err, map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		fail(w, http.StatusInternalServerError, CodeServerError, "internal server error", nil)
	}
}

// decodeJSON reads exactly one JSON document into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return invalidBody("request body is required")
		default:
			return invalidBody("malformed JSON body")
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidBody("unexpected data after JSON body")
	}
	return nil
}

func invalidBody(msg string) error {
	return fmt.Errorf("%w: %s", estate.ErrInvalidInput, msg)
}
