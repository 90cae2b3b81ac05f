package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/storage"
)

const memberID = "6f1c3f0e-2b7a-4d4e-9a55-1c2d3e4f5a6b"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResolver struct {
	calls int
	res   availability.Result
}

func (f *fakeResolver) Resolve(_ context.Context, _ model.AvailabilityRequest) availability.Result {
	f.calls++
	return f.res
}

func TestAvailabilityRejectsMissingParticipants(t *testing.T) {
	for name, body := range map[string]string{
		"empty list":   `{"participants":[],"timezone":"UTC"}`,
		"missing":      `{"timezone":"UTC"}`,
		"empty body":   ``,
		"invalid json": `{"participants":`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeResolver{}
			h := NewAvailabilityHandler(svc, quietLogger())
			rec := httptest.NewRecorder()
			h.Resolve(rec, httptest.NewRequest(http.MethodPost, "/api/v1/availability", strings.NewReader(body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if svc.calls != 0 {
				t.Fatalf("upstream must not be called")
			}
			var out map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out["error"] == "" {
				t.Fatalf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestAvailabilityReturnsSlots(t *testing.T) {
	svc := &fakeResolver{res: availability.Result{
		Slots:     []model.TimeSlot{{Date: "Jan 9, 2025", Time: "9:00 AM", Available: true, Members: []string{}}},
		SessionID: "s-1",
	}}
	h := NewAvailabilityHandler(svc, quietLogger())
	rec := httptest.NewRecorder()
	body := `{"participants":[{"name":"Linh","email":"linh@example.com","type":"internal"}],"timezone":"UTC"}`
	h.Resolve(rec, httptest.NewRequest(http.MethodPost, "/api/v1/availability", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Slots     []map[string]any `json:"slots"`
		SessionID string           `json:"sessionId"`
		Message   *string          `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Slots) != 1 || out.SessionID != "s-1" || out.Message != nil {
		t.Fatalf("unexpected body %+v", out)
	}
	if _, ok := out.Slots[0]["startTime"]; ok {
		t.Fatalf("empty startTime should be omitted")
	}
}

type fakeDirectory struct {
	members map[string]model.TeamMember
	err     error
	lastQ   string
}

func (f *fakeDirectory) Search(_ context.Context, q string, limit int) ([]model.TeamMember, error) {
	f.lastQ = q
	if f.err != nil {
		return nil, f.err
	}
	var out []model.TeamMember
	for _, m := range f.members {
		if strings.Contains(strings.ToLower(m.Name), strings.ToLower(q)) && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (model.TeamMember, error) {
	if f.err != nil {
		return model.TeamMember{}, f.err
	}
	m, ok := f.members[id]
	if !ok {
		return model.TeamMember{}, storage.ErrNotFound
	}
	return m, nil
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{members: map[string]model.TeamMember{
		memberID: {ID: memberID, Name: "Linh Tran", Role: "Solutions Engineer", Email: "linh@example.com", Expertise: []string{"onboarding"}},
	}}
}

func TestTeamSearch(t *testing.T) {
	h := NewTeamHandler(newDirectory(), quietLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team-members/search?q=linh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out searchResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || len(out.Members) != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team-members/search?q=zzz", nil))
	if !strings.Contains(rec.Body.String(), `"members":[]`) {
		t.Fatalf("no match should be an empty list, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team-members/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}
}

func TestTeamSearchStoreError(t *testing.T) {
	h := NewTeamHandler(&fakeDirectory{err: errors.New("db down")}, quietLogger())
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team-members/search?q=a", nil))
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("expected opaque 500, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestTeamGet(t *testing.T) {
	mux := http.NewServeMux()
	h := NewTeamHandler(newDirectory(), quietLogger())
	mux.HandleFunc("/api/v1/team-members/{id}", h.Get)

	cases := map[string]int{
		memberID:                               http.StatusOK,
		"not-a-uuid":                           http.StatusNotFound,
		"00000000-0000-0000-0000-000000000000": http.StatusNotFound,
	}
	for id, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team-members/"+id, nil))
		if rec.Code != want {
			t.Fatalf("id %s: expected %d, got %d", id, want, rec.Code)
		}
	}
}

type fakeBookings struct {
	created []model.Booking
	err     error
}

func (f *fakeBookings) CreateConfirmed(ctx context.Context, b model.Booking, onCreated func(context.Context, pgx.Tx, model.Booking) error) (model.Booking, error) {
	if f.err != nil {
		return model.Booking{}, f.err
	}
	b.ID = "b-1"
	b.Status = model.BookingConfirmed
	b.CreatedAt = time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	b.UpdatedAt = b.CreatedAt
	if err := onCreated(ctx, nil, b); err != nil {
		return model.Booking{}, err
	}
	f.created = append(f.created, b)
	return b, nil
}

type fakeEvents struct {
	events []outbox.Event
	err    error
}

func (f *fakeEvents) Insert(_ context.Context, _ pgx.Tx, evt outbox.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

func postBooking(h *BookingHandler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)))
	return rec
}

func TestBookingCreate(t *testing.T) {
	bookings := &fakeBookings{}
	events := &fakeEvents{}
	h := NewBookingHandler(bookings, events, newDirectory(), "Asia/Ho_Chi_Minh", quietLogger())

	rec := postBooking(h, `{"teamMemberId":"`+memberID+`","date":"Jan 9, 2025","time":"9:00 AM","guestName":"An","guestEmail":"an@example.org","startTime":"2025-01-09T02:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out createBookingResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Booking.ID != "b-1" || out.Booking.Status != model.BookingConfirmed {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.Booking.MeetingPurpose != model.DefaultMeetingPurpose || out.Booking.Timezone != "Asia/Ho_Chi_Minh" {
		t.Fatalf("defaults not applied: %+v", out.Booking)
	}

	if len(events.events) != 1 || events.events[0].EventType != outbox.EventBookingConfirmed || events.events[0].AggregateID != "b-1" {
		t.Fatalf("expected one booking.confirmed event, got %+v", events.events)
	}
	var payload bookingConfirmedPayload
	if err := json.Unmarshal(events.events[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.MemberName != "Linh Tran" || payload.GuestEmail != "an@example.org" || payload.StartTime != "2025-01-09T02:00:00Z" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestBookingCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing guest", `{"teamMemberId":"` + memberID + `","date":"d","time":"t","guestEmail":"a@b.co"}`, http.StatusBadRequest, "Missing required fields"},
		{"bad email", `{"teamMemberId":"` + memberID + `","date":"d","time":"t","guestName":"A","guestEmail":"nope"}`, http.StatusBadRequest, "Invalid guest email"},
		{"unknown member", `{"teamMemberId":"00000000-0000-0000-0000-000000000000","date":"d","time":"t","guestName":"A","guestEmail":"a@b.co"}`, http.StatusNotFound, "Team member not found"},
		{"bad start", `{"teamMemberId":"` + memberID + `","date":"d","time":"t","guestName":"A","guestEmail":"a@b.co","startTime":"tomorrow"}`, http.StatusBadRequest, "Invalid startTime"},
		{"end before start", `{"teamMemberId":"` + memberID + `","date":"d","time":"t","guestName":"A","guestEmail":"a@b.co","startTime":"2025-01-09T02:00:00Z","endTime":"2025-01-09T01:00:00Z"}`, http.StatusBadRequest, "endTime must be after startTime"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &fakeBookings{}
			h := NewBookingHandler(bookings, &fakeEvents{}, newDirectory(), "UTC", quietLogger())
			rec := postBooking(h, tc.body)
			if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.msg) {
				t.Fatalf("expected %d %q, got %d %s", tc.code, tc.msg, rec.Code, rec.Body.String())
			}
			if len(bookings.created) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

func TestBookingCreateOutboxFailure(t *testing.T) {
	bookings := &fakeBookings{}
	h := NewBookingHandler(bookings, &fakeEvents{err: errors.New("outbox insert failed")}, newDirectory(), "UTC", quietLogger())
	rec := postBooking(h, `{"teamMemberId":"`+memberID+`","date":"d","time":"t","guestName":"A","guestEmail":"a@b.co"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(bookings.created) != 0 {
		t.Fatalf("booking must not be reported stored when its event failed")
	}
}
