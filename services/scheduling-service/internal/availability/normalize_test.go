package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/automation"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

func TestFromRaw(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	raw := []automation.RawSlot{
		{Start: "2025-01-06T02:00:00Z", End: "2025-01-06T02:30:00Z", StartDisplay: "9:00 AM GMT+7"},
		{Start: "2025-01-06T17:30:00Z", End: "2025-01-06T18:00:00Z", StartVN: "00:30"},
		{Start: "next tuesday", StartDisplay: "2:00 PM"},
	}
	members := []string{"linh@example.com"}

	got := FromRaw(raw, members, loc)
	want := []model.TimeSlot{
		{Date: "Jan 6, 2025", Time: "9:00 AM", Available: true, Members: []string{"linh@example.com"}, StartTime: "2025-01-06T02:00:00Z", EndTime: "2025-01-06T02:30:00Z"},
		{Date: "Jan 7, 2025", Time: "00:30", Available: true, Members: []string{"linh@example.com"}, StartTime: "2025-01-06T17:30:00Z", EndTime: "2025-01-06T18:00:00Z"},
		{Date: "next tuesday", Time: "2:00 PM", Available: true, Members: []string{"linh@example.com"}, StartTime: "next tuesday"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected slots:\n got %+v\nwant %+v", got, want)
	}

	got[0].Members[0] = "changed"
	if members[0] != "linh@example.com" || got[1].Members[0] != "linh@example.com" {
		t.Fatalf("slots must not share the members slice")
	}
}

func TestFromRawWithoutMembers(t *testing.T) {
	got := FromRaw([]automation.RawSlot{{Start: "2025-01-06T02:00:00Z"}}, nil, time.UTC)
	if got[0].Members == nil {
		t.Fatalf("members must be an empty list, not nil")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	slots := []model.TimeSlot{
		{Date: "Jan 6, 2025", Time: "9:00 AM", Available: true, Members: []string{"a@example.com"}, StartTime: "2025-01-06T02:00:00Z"},
		{Date: "Jan 6, 2025", Time: "9:30 AM", Available: false},
	}
	once := Normalize(slots)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\n%+v\n%+v", once, twice)
	}
	if once[1].Members == nil {
		t.Fatalf("nil members should become an empty list")
	}

	canonical := FromRaw([]automation.RawSlot{{Start: "2025-01-06T02:00:00Z", StartDisplay: "9:00 AM GMT+7"}}, []string{"a@example.com"}, time.UTC)
	if !reflect.DeepEqual(Normalize(canonical), canonical) {
		t.Fatalf("normalizing canonical slots must be a no-op")
	}
}
