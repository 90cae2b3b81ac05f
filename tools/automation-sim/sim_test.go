package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time { return time.Date(2025, 1, 3, 1, 0, 0, 0, time.UTC) }

func TestWebhookDialects(t *testing.T) {
	cases := map[string]string{
		modeEncoded:   `"Slot"`,
		modeRaw:       `[{"start"`,
		modeCanonical: `"slots"`,
		modeExecution: `"executionId"`,
		modeSession:   `"sessionId"`,
	}
	for mode, want := range cases {
		t.Run(mode, func(t *testing.T) {
			sim, err := newSimulator(mode, 0, 2, "", fixedNow)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			rec := httptest.NewRecorder()
			sim.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/availability", strings.NewReader(`{}`)))
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
				t.Fatalf("unexpected reply %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRawSlotsSkipWeekends(t *testing.T) {
	sim, _ := newSimulator(modeRaw, 0, 3, "", fixedNow)
	slots := sim.rawSlots()
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	// Friday Jan 3 -> Mon 6, Tue 7, Wed 8.
	if slots[0].Start != "2025-01-06T02:00:00Z" || slots[2].Start != "2025-01-08T02:00:00Z" {
		t.Fatalf("unexpected slots %+v", slots)
	}
	if slots[0].StartDisplay != "9:00 AM GMT+7" {
		t.Fatalf("unexpected display %q", slots[0].StartDisplay)
	}
}

func TestExecutionRunsThenSucceeds(t *testing.T) {
	sim, _ := newSimulator(modeExecution, 2, 1, "secret", fixedNow)
	h := sim.routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/availability", strings.NewReader(`{}`)))
	var reply struct {
		ExecutionID string `json:"executionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil || reply.ExecutionID == "" {
		t.Fatalf("expected execution id, got %s", rec.Body.String())
	}

	poll := func(key string) (int, string) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/executions/"+reply.ExecutionID, nil)
		req.Header.Set("X-N8N-API-KEY", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var body struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return rec.Code, body.Status
	}

	if code, _ := poll("wrong"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad key, got %d", code)
	}
	for i, want := range []string{"running", "running", "success"} {
		code, status := poll("secret")
		if code != http.StatusOK || status != want {
			t.Fatalf("poll %d: expected %s, got %d %s", i, want, code, status)
		}
	}
}

func TestUnknownModeRejected(t *testing.T) {
	if _, err := newSimulator("xml", 0, 1, "", fixedNow); err == nil {
		t.Fatalf("expected error")
	}
}
