// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for constructing responses. It
// provides a fluent API for HX-Trigger headers, so clients receive the
// show-notification event alongside the JSON body.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/services"
)

// TriggerShowNotification is the HX-Trigger event carrying toasts.
const TriggerShowNotification = "show-notification"

// TriggerLedgerChanged tells clients to refresh their views.
const TriggerLedgerChanged = "ledger:changed"

// Notification display durations in milliseconds.
const (
	successDuration = 3000
	warningDuration = 5000
	errorDuration   = 5000
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerLedgerChanged adds the ledger:changed trigger with the new version.
func (b *ResponseBuilder) TriggerLedgerChanged(version uint64) *ResponseBuilder {
	return b.Trigger(TriggerLedgerChanged, map[string]uint64{"version": version})
}

// Notify adds a show-notification trigger for n.
func (b *ResponseBuilder) Notify(n services.Notification) *ResponseBuilder {
	duration := successDuration
	switch n.Type {
	case services.NotifyWarning:
		duration = warningDuration
	case services.NotifyError:
		duration = errorDuration
	}
	return b.Trigger(TriggerShowNotification, map[string]any{
		"type":     string(n.Type),
		"message":  n.Message,
		"duration": duration,
	})
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.headers["Content-Type"] = "application/json"
	return b
}

// Raw sets a pre-encoded body with the given content type.
func (b *ResponseBuilder) Raw(contentType string, content []byte) *ResponseBuilder {
	b.raw = content
	b.headers["Content-Type"] = contentType
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	payload := b.raw
	if b.body != nil {
		encoded, err := json.Marshal(b.body)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
			return
		}
		payload = append(encoded, '\n')
	}

	w.WriteHeader(b.statusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response that also raises an error
// notification.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: message}).
		Notify(services.Notification{Type: services.NotifyError, Message: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
