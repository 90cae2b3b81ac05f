package email

import (
	"bytes"
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	ical "github.com/emersion/go-ical"
)

const (
	InviteFilename    = "invite.ics"
	InviteContentType = "text/calendar; charset=utf-8; method=REQUEST"

	defaultMeetingLength = 30 * time.Minute
	inviteLocation       = "Video Call"
	productID            = "-//Teambook//Booking//EN"
)

var ErrNoMeetingTime = errors.New("email: meeting start time unknown")

// Slot is the resolved meeting interval of a booking.
type Slot struct {
	Start time.Time
	End   time.Time
}

var dateTimeLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"Jan 2, 2006 15:04",
}

// MeetingSlot works out when the meeting happens. An explicit start wins;
// otherwise the display date and time are parsed in the booking's timezone.
// A missing or non-positive end becomes start plus thirty minutes.
func MeetingSlot(start, end *time.Time, date, clock, timezone string) (Slot, error) {
	var slot Slot
	if start != nil && !start.IsZero() {
		slot.Start = *start
	} else {
		loc := time.UTC
		if tz := strings.TrimSpace(timezone); tz != "" {
			if l, err := time.LoadLocation(tz); err == nil {
				loc = l
			}
		}
		value := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
		parsed := false
		for _, layout := range dateTimeLayouts {
			if t, err := time.ParseInLocation(layout, value, loc); err == nil {
				slot.Start = t
				parsed = true
				break
			}
		}
		if !parsed {
			return Slot{}, ErrNoMeetingTime
		}
	}
	if end != nil && end.After(slot.Start) {
		slot.End = *end
	} else {
		slot.End = slot.Start.Add(defaultMeetingLength)
	}
	return slot, nil
}

// BuildInvite encodes a METHOD:REQUEST calendar holding one confirmed event
// between the team member (organizer) and the guest (attendee).
func BuildInvite(b Booking, slot Slot, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropMethod, "REQUEST")

	purpose := strings.TrimSpace(b.MeetingPurpose)
	if purpose == "" {
		purpose = defaultPurpose
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, b.ID+"@teambook")
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, slot.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, slot.End.UTC())
	event.Props.SetText(ical.PropSummary, "Meeting with "+b.MemberName)
	event.Props.SetText(ical.PropDescription, purpose)
	event.Props.SetText(ical.PropLocation, inviteLocation)
	event.Props.SetText(ical.PropStatus, string(ical.EventConfirmed))

	organizer := ical.NewProp(ical.PropOrganizer)
	organizer.Value = "mailto:" + b.MemberEmail
	if b.MemberName != "" {
		organizer.Params.Set(ical.ParamCommonName, b.MemberName)
	}
	event.Props.Set(organizer)

	attendee := ical.NewProp(ical.PropAttendee)
	attendee.Value = "mailto:" + b.GuestEmail
	if b.GuestName != "" {
		attendee.Params.Set(ical.ParamCommonName, b.GuestName)
	}
	attendee.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
	attendee.Params.Set(ical.ParamParticipationStatus, "ACCEPTED")
	event.Props.Add(attendee)

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
