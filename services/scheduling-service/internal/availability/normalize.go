package availability

import (
	"strings"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/automation"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

const (
	DateLayout = "Jan 2, 2006"
	TimeLayout = "3:04 PM"

	// The calendar tool labels display times with a fixed offset.
	displayZoneSuffix = " GMT+7"
)

// FromRaw maps calendar tool slots onto the canonical shape. Every raw slot is
// free by construction, so Available is always true.
func FromRaw(raw []automation.RawSlot, members []string, loc *time.Location) []model.TimeSlot {
	if loc == nil {
		loc = time.Local
	}
	out := make([]model.TimeSlot, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.TimeSlot{
			Date:      rawDate(r.Start, loc),
			Time:      rawTime(r),
			Available: true,
			Members:   copyMembers(members),
			StartTime: r.Start,
			EndTime:   r.End,
		})
	}
	return out
}

// Normalize returns slots with the invariants of the canonical shape
// enforced. Applying it to its own output changes nothing.
func Normalize(slots []model.TimeSlot) []model.TimeSlot {
	out := make([]model.TimeSlot, len(slots))
	for i, s := range slots {
		s.Members = copyMembers(s.Members)
		out[i] = s
	}
	return out
}

func rawDate(start string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return start
	}
	return t.In(loc).Format(DateLayout)
}

func rawTime(r automation.RawSlot) string {
	if r.StartDisplay != "" {
		return strings.Replace(r.StartDisplay, displayZoneSuffix, "", 1)
	}
	return r.StartVN
}

func copyMembers(members []string) []string {
	out := make([]string, len(members))
	copy(out, members)
	return out
}
