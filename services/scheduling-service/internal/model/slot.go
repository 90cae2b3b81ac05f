package model

// TimeSlot is the canonical slot shape returned to the booking UI, whatever
// the upstream reply looked like.
type TimeSlot struct {
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Available bool     `json:"available"`
	Members   []string `json:"members"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
}
