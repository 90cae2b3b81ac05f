package availability

import (
	"math/rand/v2"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

// workdayMarks are the half-hour slots offered each weekday. The lunch hour
// is skipped.
var workdayMarks = []string{
	"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM",
	"3:00 PM", "3:30 PM", "4:00 PM", "4:30 PM", "5:00 PM",
}

const availableThreshold = 0.4

// SyntheticSlots produces placeholder availability for every weekday from
// now's date through end. Each slot is free when draw() exceeds 0.4; free
// slots list all members, busy ones none. A nil draw uses math/rand.
func SyntheticSlots(now, end time.Time, members []string, draw func() float64) []model.TimeSlot {
	if draw == nil {
		draw = rand.Float64
	}

	var slots []model.TimeSlot
	y, m, d := now.Date()
	for day := time.Date(y, m, d, 0, 0, 0, 0, now.Location()); !day.After(end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := day.Format(DateLayout)
		for _, mark := range workdayMarks {
			available := draw() > availableThreshold
			slot := model.TimeSlot{Date: date, Time: mark, Available: available, Members: []string{}}
			if available {
				slot.Members = copyMembers(members)
			}
			slots = append(slots, slot)
		}
	}
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	return slots
}
