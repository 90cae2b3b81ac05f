package email

import (
	"bytes"
	"strings"
	"text/template"
)

// Booking is the part of a confirmed booking the confirmation email needs.
type Booking struct {
	ID             string
	GuestName      string
	GuestEmail     string
	MeetingPurpose string
	MeetingDate    string
	MeetingTime    string
	Timezone       string
	MemberName     string
	MemberRole     string
	MemberEmail    string
}

const defaultPurpose = "General discussion"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`Hi {{.Booking.GuestName}},

Great news! Your meeting has been confirmed.

Meeting Details:
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
📅 Date: {{.Booking.MeetingDate}}
⏰ Time: {{.Booking.MeetingTime}}{{if .Booking.Timezone}} ({{.Booking.Timezone}}){{end}}
👤 With: {{.Booking.MemberName}}, {{.Booking.MemberRole}}
📧 Email: {{.Booking.MemberEmail}}

Purpose: {{.Purpose}}

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

What's Next?
• Add this meeting to your calendar{{if .HasInvite}} (invite.ics is attached){{end}}
• Prepare any questions or topics you'd like to discuss
• Join the meeting on time (link will be sent separately if virtual)

Need to reschedule? Just reply to this email and we'll help you out.

Looking forward to connecting with you!

Best regards,
The {{.Brand}} Team

━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
{{.Brand}} | Book Time with Our Team
`))

// ConfirmationSubject is the subject line of the confirmation email.
func ConfirmationSubject(b Booking) string {
	return "Meeting Confirmed with " + b.MemberName
}

// ConfirmationBody renders the plain text confirmation for b.
func ConfirmationBody(b Booking, brand string, hasInvite bool) (string, error) {
	purpose := strings.TrimSpace(b.MeetingPurpose)
	if purpose == "" {
		purpose = defaultPurpose
	}
	if strings.TrimSpace(brand) == "" {
		brand = "Teambook"
	}
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Booking   Booking
		Purpose   string
		Brand     string
		HasInvite bool
	}{b, purpose, brand, hasInvite})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
