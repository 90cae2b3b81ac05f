// Package notify turns booking.confirmed.v1 events into confirmation emails.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/teambook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const channelEmail = "email"

// BookingConfirmed is the event body published by the scheduling service.
type BookingConfirmed struct {
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

type NotificationStore interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Processor struct {
	sender email.Sender
	store  NotificationStore
	brand  string
	logger *slog.Logger
	now    func() time.Time
}

func NewProcessor(sender email.Sender, store NotificationStore, brand string, logger *slog.Logger) *Processor {
	return &Processor{sender: sender, store: store, brand: brand, logger: logger, now: time.Now}
}

// Handle is a consumer.Handler. Malformed events are dropped; only a failure
// to record the attempt is returned.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	var evt BookingConfirmed
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		p.logger.Error("invalid booking payload", "err", err)
		return nil
	}
	if evt.BookingID == "" || evt.GuestEmail == "" || evt.MemberName == "" {
		p.logger.Error("missing booking fields", "booking_id", evt.BookingID)
		return nil
	}

	booking := email.Booking{
		ID:             evt.BookingID,
		GuestName:      evt.GuestName,
		GuestEmail:     evt.GuestEmail,
		MeetingPurpose: evt.MeetingPurpose,
		MeetingDate:    evt.MeetingDate,
		MeetingTime:    evt.MeetingTime,
		Timezone:       evt.Timezone,
		MemberName:     evt.MemberName,
		MemberRole:     evt.MemberRole,
		MemberEmail:    evt.MemberEmail,
	}

	var attachments []email.Attachment
	slot, err := email.MeetingSlot(parseTime(evt.StartTime), parseTime(evt.EndTime), evt.MeetingDate, evt.MeetingTime, evt.Timezone)
	switch {
	case err == nil:
		invite, err := email.BuildInvite(booking, slot, p.now())
		if err != nil {
			p.logger.Error("invite build failed", "err", err, "booking_id", evt.BookingID)
		} else {
			attachments = append(attachments, email.Attachment{
				Filename:    email.InviteFilename,
				ContentType: email.InviteContentType,
				Data:        invite,
			})
		}
	case errors.Is(err, email.ErrNoMeetingTime):
		p.logger.Warn("sending confirmation without invite", "booking_id", evt.BookingID,
			"meeting_date", evt.MeetingDate, "meeting_time", evt.MeetingTime)
	}

	body, err := email.ConfirmationBody(booking, p.brand, len(attachments) > 0)
	if err != nil {
		return err
	}

	n := storage.Notification{
		BookingID: evt.BookingID,
		Channel:   channelEmail,
		Recipient: evt.GuestEmail,
		Payload: map[string]any{
			"subject":        email.ConfirmationSubject(booking),
			"team_member_id": evt.TeamMemberID,
			"meeting_date":   evt.MeetingDate,
			"meeting_time":   evt.MeetingTime,
			"invite":         len(attachments) > 0,
		},
		Status: storage.StatusSent,
	}
	if err := p.sender.Send(ctx, email.Message{
		To:          evt.GuestEmail,
		Subject:     email.ConfirmationSubject(booking),
		Body:        body,
		Attachments: attachments,
	}); err != nil {
		n.Status = storage.StatusFailed
		n.Error = err.Error()
		p.logger.Error("email send failed", "err", err, "booking_id", evt.BookingID, "recipient", evt.GuestEmail)
	}

	if err := p.store.Insert(ctx, n); err != nil {
		p.logger.Error("failed to persist notification", "err", err)
		return err
	}
	p.logger.Info("confirmation processed", "booking_id", evt.BookingID, "status", n.Status)
	return nil
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
