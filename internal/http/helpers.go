package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, exchange.ErrMalformed),
		errors.Is(err, exchange.ErrEmpty):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// messageFor turns err into the text shown to the user.
func messageFor(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "Request body is too large"
	case errors.Is(err, ErrBadRequest):
		return "Invalid request: " + strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": ")
	}
	return services.ErrorNotification(err).Message
}

// writeError logs err and writes the matching JSON error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request refused",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	ErrorResponse(status, messageFor(err)).Write(w)
}

// writeMutation answers a successful change with body, the notification and
// a ledger:changed trigger carrying the new version.
func (s *Server) writeMutation(w http.ResponseWriter, status int, body any, n services.Notification) {
	s.mutations.Add(1)
	resp := NewResponse().
		Status(status).
		Notify(n).
		TriggerLedgerChanged(s.svc.Version())
	if body != nil {
		resp.JSON(body)
	}
	resp.Write(w)
}

// writeJSON answers a read.
func writeJSON(w http.ResponseWriter, body any) {
	NewResponse().JSON(body).Write(w)
}

// orEmpty keeps empty lists encoding as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
