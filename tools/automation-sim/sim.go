package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
)

const (
	modeEncoded   = "encoded"
	modeRaw       = "raw"
	modeCanonical = "canonical"
	modeExecution = "execution"
	modeSession   = "session"
	modeEmpty     = "empty"
)

type rawSlot struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	StartDisplay string `json:"startDisplay"`
	StartVN      string `json:"startVN"`
}

type simulator struct {
	mode    string
	running int
	slots   int
	apiKey  string
	now     func() time.Time

	mu    sync.Mutex
	polls map[string]int
}

func newSimulator(mode string, running, slots int, apiKey string, now func() time.Time) (*simulator, error) {
	switch mode {
	case modeEncoded, modeRaw, modeCanonical, modeExecution, modeSession, modeEmpty:
	default:
		return nil, fmt.Errorf("unsupported mode: %s", mode)
	}
	if running < 0 {
		running = 0
	}
	return &simulator{mode: mode, running: running, slots: slots, apiKey: apiKey, now: now, polls: map[string]int{}}, nil
}

func (s *simulator) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/availability", s.webhook)
	mux.HandleFunc("/api/v1/executions/{id}", s.execution)
	return mux
}

type webhookRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *simulator) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req webhookRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	session := req.SessionID
	if session == "" {
		session = "sim-" + uuid.NewString()
	}

	slots := s.rawSlots()
	switch s.mode {
	case modeEncoded:
		encoded, _ := json.Marshal(slots)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"Slot": string(encoded), "sessionId": session})
	case modeRaw:
		httpx.WriteJSON(w, http.StatusOK, slots)
	case modeCanonical:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"slots": s.canonicalSlots(slots), "sessionId": session})
	case modeExecution:
		id := fmt.Sprintf("%d", s.now().UnixNano())
		s.mu.Lock()
		s.polls[id] = 0
		s.mu.Unlock()
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"executionId": id, "sessionId": session, "text": "Checking calendars..."})
	case modeSession:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessionId": session})
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *simulator) execution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.apiKey != "" && r.Header.Get("X-N8N-API-KEY") != s.apiKey {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")

	s.mu.Lock()
	seen, ok := s.polls[id]
	if ok {
		s.polls[id] = seen + 1
	}
	s.mu.Unlock()
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "execution not found")
		return
	}
	if seen < s.running {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "running"})
		return
	}

	slots := s.rawSlots()
	toolOutput, _ := json.Marshal(map[string]any{"availableSlots": slots, "totalSlots": len(slots)})
	runData := map[string]any{
		"Webhook": []any{stepOutput(map[string]any{"question": "Find available meeting times"})},
		"Send request to agent": []any{stepOutput(map[string]any{
			"text":   fmt.Sprintf("I found %d open slots this week.", len(slots)),
			"chatId": "sim-chat-" + id,
			"usedTools": []any{
				map[string]any{"tool": "get_available_slots", "toolOutput": string(toolOutput)},
			},
		})},
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": "success",
		"data":   map[string]any{"resultData": map[string]any{"runData": runData}},
	})
}

func stepOutput(item any) map[string]any {
	return map[string]any{"data": map[string]any{"main": [][]any{{map[string]any{"json": item}}}}}
}

// rawSlots offers half-hour slots on the next weekday mornings, 9:00 to
// 9:30 at UTC+7.
func (s *simulator) rawSlots() []rawSlot {
	zone := time.FixedZone("GMT+7", 7*60*60)
	day := s.now().In(zone)
	out := make([]rawSlot, 0, s.slots)
	for len(out) < s.slots {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, zone)
		end := start.Add(30 * time.Minute)
		out = append(out, rawSlot{
			Start:        start.UTC().Format(time.RFC3339),
			End:          end.UTC().Format(time.RFC3339),
			StartDisplay: start.Format("3:04 PM") + " GMT+7",
			StartVN:      start.Format("15:04"),
		})
	}
	return out
}

func (s *simulator) canonicalSlots(raw []rawSlot) []map[string]any {
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		start, _ := time.Parse(time.RFC3339, r.Start)
		start = start.In(time.FixedZone("GMT+7", 7*60*60))
		out = append(out, map[string]any{
			"date":      start.Format("Jan 2, 2006"),
			"time":      start.Format("3:04 PM"),
			"available": true,
			"members":   []string{},
			"startTime": r.Start,
			"endTime":   r.End,
		})
	}
	return out
}
