package automation

import (
	"testing"
)

func TestClassifyReply(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		kind      ReplyKind
		slots     int
		session   string
		execution string
		text      string
	}{
		{
			name:    "encoded slot field",
			body:    `{"Slot":"[{\"start\":\"2025-01-06T09:00:00Z\",\"end\":\"2025-01-06T09:30:00Z\",\"startDisplay\":\"9:00 AM GMT+7\"}]","sessionId":"s-1"}`,
			kind:    ReplyEncodedSlots,
			slots:   1,
			session: "s-1",
		},
		{
			name:  "encoded slot field repaired",
			body:  `{"Slot":"[{\"start\":\"2025-01-06T09:00:00Z\",},]"}`,
			kind:  ReplyEncodedSlots,
			slots: 1,
		},
		{
			name: "encoded empty array falls through",
			body: `{"Slot":"[]"}`,
			kind: ReplyUnrecognized,
		},
		{
			name:  "bare array of raw slots",
			body:  `[{"start":"2025-01-06T09:00:00Z","startVN":"16:00"},{"start":"2025-01-06T10:00:00Z"}]`,
			kind:  ReplyRawSlots,
			slots: 2,
		},
		{
			name: "array without start",
			body: `[{"foo":1}]`,
			kind: ReplyUnrecognized,
		},
		{
			name:    "canonical slots",
			body:    `{"slots":[{"date":"Jan 6, 2025","time":"9:00 AM","available":true,"members":[]}],"sessionId":"s-2"}`,
			kind:    ReplyCanonicalSlots,
			slots:   1,
			session: "s-2",
		},
		{
			name:      "numeric execution id",
			body:      `{"executionId":1234}`,
			kind:      ReplyExecution,
			execution: "1234",
		},
		{
			name:      "execution beats session",
			body:      `{"executionId":"abc","sessionId":"s-3"}`,
			kind:      ReplyExecution,
			execution: "abc",
			session:   "s-3",
		},
		{
			name:    "session with text",
			body:    `{"sessionId":"s-4","text":"Checking calendars"}`,
			kind:    ReplySession,
			session: "s-4",
			text:    "Checking calendars",
		},
		{
			name:    "session with output",
			body:    `{"sessionId":"s-5","output":"Working"}`,
			kind:    ReplySession,
			session: "s-5",
			text:    "Working",
		},
		{
			name: "null",
			body: `null`,
			kind: ReplyUnrecognized,
		},
		{
			name: "unrelated object",
			body: `{"message":"Workflow was started"}`,
			kind: ReplyUnrecognized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := ClassifyReply([]byte(tc.body))
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if reply.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, reply.Kind)
			}
			if n := len(reply.RawSlots) + len(reply.Slots); n != tc.slots {
				t.Fatalf("expected %d slots, got %d", tc.slots, n)
			}
			if reply.SessionID != tc.session {
				t.Fatalf("expected session %q, got %q", tc.session, reply.SessionID)
			}
			if reply.ExecutionID != tc.execution {
				t.Fatalf("expected execution %q, got %q", tc.execution, reply.ExecutionID)
			}
			if reply.Text != tc.text {
				t.Fatalf("expected text %q, got %q", tc.text, reply.Text)
			}
		})
	}
}

func TestClassifyReplyInvalidJSON(t *testing.T) {
	if _, err := ClassifyReply([]byte(`<html>502</html>`)); err == nil {
		t.Fatalf("expected error for non-JSON body")
	}
}

func TestClassifyReplyKeepsRawSlotFields(t *testing.T) {
	reply, err := ClassifyReply([]byte(`{"Slot":"[{\"start\":\"2025-01-06T09:00:00Z\",\"end\":\"2025-01-06T09:30:00Z\",\"startDisplay\":\"4:00 PM GMT+7\",\"startVN\":\"16:00\"}]"}`))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	want := RawSlot{Start: "2025-01-06T09:00:00Z", End: "2025-01-06T09:30:00Z", StartDisplay: "4:00 PM GMT+7", StartVN: "16:00"}
	if reply.RawSlots[0] != want {
		t.Fatalf("unexpected raw slot %+v", reply.RawSlots[0])
	}
}

func TestClassifyReplyToleratesOddSlotFieldTypes(t *testing.T) {
	cases := map[string]string{
		"bare array":   `[{"start":"2025-01-06T09:00:00Z","startDisplay":"9:00 AM GMT+7"},{"start":"2025-01-06T10:00:00Z","startVN":10,"end":null}]`,
		"encoded slot": `{"Slot":"[{\"start\":\"2025-01-06T09:00:00Z\",\"startDisplay\":\"9:00 AM GMT+7\"},{\"start\":\"2025-01-06T10:00:00Z\",\"startVN\":10,\"end\":null}]"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			reply, err := ClassifyReply([]byte(body))
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if reply.Kind != ReplyRawSlots && reply.Kind != ReplyEncodedSlots {
				t.Fatalf("expected a raw slot dialect, got %s", reply.Kind)
			}
			if len(reply.RawSlots) != 2 {
				t.Fatalf("expected 2 slots, got %+v", reply.RawSlots)
			}
			if got := reply.RawSlots[1]; got.StartVN != "10" || got.End != "" {
				t.Fatalf("unexpected lenient decode %+v", got)
			}
		})
	}
}

func TestClassifyReplySkipsNonObjectSlots(t *testing.T) {
	reply, err := ClassifyReply([]byte(`[{"start":"2025-01-06T09:00:00Z"},"junk",42,{"end":"2025-01-06T11:00:00Z"}]`))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if reply.Kind != ReplyRawSlots || len(reply.RawSlots) != 1 {
		t.Fatalf("expected one usable raw slot, got %s %+v", reply.Kind, reply.RawSlots)
	}
}
