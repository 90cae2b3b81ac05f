package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/automation"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

// BuildQuestion renders the natural-language prompt the scheduling agent answers.
func BuildQuestion(names []string, w Window, timezone string) string {
	return fmt.Sprintf(
		"Find available meeting times by checking the calendar of: %s. Find free slots from today until the end of this week (%s to %s). Timezone: %s.",
		strings.Join(names, ", "),
		shortDate(w.Start),
		shortDate(w.End),
		timezone,
	)
}

// BuildPayload only forwards internal participants; guest calendars are
// never queried. An empty timezone is reported as loc's name.
func BuildPayload(req model.AvailabilityRequest, w Window, loc *time.Location) automation.WebhookPayload {
	internal := req.InternalParticipants()
	names := make([]string, 0, len(internal))
	for _, p := range internal {
		names = append(names, p.Name)
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" && loc != nil {
		tz = loc.String()
	}

	payload := automation.WebhookPayload{
		Question:     BuildQuestion(names, w, tz),
		Participants: internal,
		Timezone:     tz,
		StartDate:    isoMillis(w.Start),
		EndDate:      isoMillis(w.End),
	}
	if req.SessionID != "" {
		payload.SessionID = req.SessionID
		payload.OverrideConfig = &automation.OverrideConfig{SessionID: req.SessionID}
	}
	return payload
}
