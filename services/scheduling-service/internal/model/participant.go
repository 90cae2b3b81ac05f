package model

// ParticipantType distinguishes team members, whose calendars are queried,
// from guests, whose calendars are not.
type ParticipantType string

const (
	ParticipantInternal ParticipantType = "internal"
	ParticipantExternal ParticipantType = "external"
)

type Participant struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Type  ParticipantType `json:"type"`
}

type AvailabilityRequest struct {
	Participants []Participant `json:"participants"`
	Timezone     string        `json:"timezone"`
	SessionID    string        `json:"sessionId,omitempty"`
}

// InternalParticipants keeps request order.
func (r AvailabilityRequest) InternalParticipants() []Participant {
	out := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.Type == ParticipantInternal {
			out = append(out, p)
		}
	}
	return out
}

// InternalEmails is never nil so it always encodes as a JSON array.
func (r AvailabilityRequest) InternalEmails() []string {
	emails := []string{}
	for _, p := range r.InternalParticipants() {
		emails = append(emails, p.Email)
	}
	return emails
}
