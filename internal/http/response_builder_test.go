package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/services"
)

func decodeTrigger(t *testing.T, rec *httptest.ResponseRecorder) map[string]map[string]any {
	t.Helper()
	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("decode HX-Trigger %q: %v", rec.Header().Get("HX-Trigger"), err)
	}
	return triggers
}

func TestResponseBuilder_JSONAndTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		JSON(map[string]int{"id": 7}).
		TriggerLedgerChanged(3).
		Notify(services.Notification{Type: services.NotifySuccess, Message: "Saved"}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "{\"id\":7}\n" {
		t.Errorf("body = %q", rec.Body.String())
	}

	triggers := decodeTrigger(t, rec)
	n := triggers[TriggerShowNotification]
	if n["type"] != "success" || n["message"] != "Saved" || n["duration"] != float64(successDuration) {
		t.Errorf("unexpected notification trigger %v", n)
	}
	if triggers[TriggerLedgerChanged]["version"] != float64(3) {
		t.Errorf("unexpected ledger trigger %v", triggers[TriggerLedgerChanged])
	}
}

func TestResponseBuilder_NoTriggersNoHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Raw("text/plain", []byte("ok")).Write(rec)
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("no triggers means no header")
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestResponseBuilder_WarningDuration(t *testing.T) {
	rec := httptest.NewRecorder()
	NewResponse().Notify(services.Notification{Type: services.NotifyWarning, Message: "storage is full"}).Write(rec)
	if got := decodeTrigger(t, rec)[TriggerShowNotification]["duration"]; got != float64(warningDuration) {
		t.Errorf("duration = %v", got)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		builder *ResponseBuilder
		status  int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{NotFoundError("bad"), http.StatusNotFound},
		{InternalServerError("bad"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.builder.Write(rec)
		if rec.Code != tt.status {
			t.Errorf("status = %d, want %d", rec.Code, tt.status)
		}
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "bad" {
			t.Errorf("unexpected body %q (%v)", rec.Body.String(), err)
		}
		if decodeTrigger(t, rec)[TriggerShowNotification]["type"] != "error" {
			t.Error("errors raise an error notification")
		}
	}
}
