package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/storage"
)

type BookingStore interface {
	CreateConfirmed(ctx context.Context, b model.Booking, onCreated func(context.Context, pgx.Tx, model.Booking) error) (model.Booking, error)
}

type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type BookingHandler struct {
	bookings        BookingStore
	events          EventWriter
	members         MemberLookup
	defaultTimezone string
	logger          *slog.Logger
}

func NewBookingHandler(bookings BookingStore, events EventWriter, members MemberLookup, defaultTimezone string, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		bookings:        bookings,
		events:          events,
		members:         members,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

type createBookingRequest struct {
	TeamMemberID   string `json:"teamMemberId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	GuestName      string `json:"guestName"`
	GuestEmail     string `json:"guestEmail"`
	GuestPhone     string `json:"guestPhone"`
	MeetingPurpose string `json:"meetingPurpose"`
	Timezone       string `json:"timezone"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
}

type createBookingResponse struct {
	Success bool          `json:"success"`
	Booking model.Booking `json:"booking"`
	Message string        `json:"message"`
}

// bookingConfirmedPayload is the body of booking.confirmed.v1.
type bookingConfirmedPayload struct {
	BookingID      string `json:"booking_id"`
	TeamMemberID   string `json:"team_member_id"`
	MemberName     string `json:"member_name"`
	MemberRole     string `json:"member_role"`
	MemberEmail    string `json:"member_email"`
	GuestName      string `json:"guest_name"`
	GuestEmail     string `json:"guest_email"`
	GuestPhone     string `json:"guest_phone,omitempty"`
	MeetingPurpose string `json:"meeting_purpose"`
	MeetingDate    string `json:"meeting_date"`
	MeetingTime    string `json:"meeting_time"`
	Timezone       string `json:"timezone"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	ConfirmedAt    string `json:"confirmed_at"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.TeamMemberID = strings.TrimSpace(req.TeamMemberID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.GuestName = strings.TrimSpace(req.GuestName)
	req.GuestEmail = strings.TrimSpace(req.GuestEmail)

	if req.TeamMemberID == "" || req.Date == "" || req.Time == "" || req.GuestName == "" || req.GuestEmail == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if addr, err := mail.ParseAddress(req.GuestEmail); err != nil || addr.Address != req.GuestEmail {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid guest email")
		return
	}

	b := model.Booking{
		TeamMemberID:   req.TeamMemberID,
		GuestName:      req.GuestName,
		GuestEmail:     req.GuestEmail,
		MeetingPurpose: strings.TrimSpace(req.MeetingPurpose),
		MeetingDate:    req.Date,
		MeetingTime:    req.Time,
		Timezone:       strings.TrimSpace(req.Timezone),
	}
	if b.MeetingPurpose == "" {
		b.MeetingPurpose = model.DefaultMeetingPurpose
	}
	if b.Timezone == "" {
		b.Timezone = h.defaultTimezone
	}
	if phone := strings.TrimSpace(req.GuestPhone); phone != "" {
		b.GuestPhone = &phone
	}

	var err error
	if b.StartTime, err = optionalTime(req.StartTime); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid startTime")
		return
	}
	if b.EndTime, err = optionalTime(req.EndTime); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid endTime")
		return
	}
	if b.StartTime != nil && b.EndTime != nil && !b.EndTime.After(*b.StartTime) {
		httpx.WriteError(w, http.StatusBadRequest, "endTime must be after startTime")
		return
	}

	ctx := r.Context()
	member, err := lookupMember(ctx, h.members, b.TeamMemberID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Team member not found")
			return
		}
		h.logger.Error("team member lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	created, err := h.bookings.CreateConfirmed(ctx, b, func(ctx context.Context, tx pgx.Tx, stored model.Booking) error {
		payload, err := json.Marshal(confirmedPayload(stored, member))
		if err != nil {
			return err
		}
		return h.events.Insert(ctx, tx, outbox.Event{
			AggregateType: "booking",
			AggregateID:   stored.ID,
			EventType:     outbox.EventBookingConfirmed,
			Payload:       payload,
		})
	})
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			httpx.WriteError(w, http.StatusNotFound, "Team member not found")
			return
		}
		h.logger.Error("booking create failed", "err", err, "team_member_id", b.TeamMemberID)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	h.logger.Info("booking confirmed", "booking_id", created.ID, "team_member_id", created.TeamMemberID)
	httpx.WriteJSON(w, http.StatusOK, createBookingResponse{
		Success: true,
		Booking: created,
		Message: "Booking confirmed and confirmation email queued",
	})
}

func confirmedPayload(b model.Booking, m model.TeamMember) bookingConfirmedPayload {
	p := bookingConfirmedPayload{
		BookingID:      b.ID,
		TeamMemberID:   b.TeamMemberID,
		MemberName:     m.Name,
		MemberRole:     m.Role,
		MemberEmail:    m.Email,
		GuestName:      b.GuestName,
		GuestEmail:     b.GuestEmail,
		MeetingPurpose: b.MeetingPurpose,
		MeetingDate:    b.MeetingDate,
		MeetingTime:    b.MeetingTime,
		Timezone:       b.Timezone,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if b.GuestPhone != nil {
		p.GuestPhone = *b.GuestPhone
	}
	if b.StartTime != nil {
		p.StartTime = b.StartTime.UTC().Format(time.RFC3339)
	}
	if b.EndTime != nil {
		p.EndTime = b.EndTime.UTC().Format(time.RFC3339)
	}
	return p
}

func optionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
