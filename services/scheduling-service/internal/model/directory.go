package model

import "time"

type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Expertise []string  `json:"expertise"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"

	DefaultMeetingPurpose = "General discussion"
)

type Booking struct {
	ID             string     `json:"id"`
	TeamMemberID   string     `json:"team_member_id"`
	GuestName      string     `json:"guest_name"`
	GuestEmail     string     `json:"guest_email"`
	GuestPhone     *string    `json:"guest_phone"`
	MeetingPurpose string     `json:"meeting_purpose"`
	MeetingDate    string     `json:"meeting_date"`
	MeetingTime    string     `json:"meeting_time"`
	Timezone       string     `json:"timezone,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
