package automation

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

type ReplyKind int

const (
	ReplyUnrecognized ReplyKind = iota
	ReplyEncodedSlots
	ReplyRawSlots
	ReplyCanonicalSlots
	ReplyExecution
	ReplySession
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyEncodedSlots:
		return "encoded_slots"
	case ReplyRawSlots:
		return "raw_slots"
	case ReplyCanonicalSlots:
		return "canonical_slots"
	case ReplyExecution:
		return "execution"
	case ReplySession:
		return "session"
	default:
		return "unrecognized"
	}
}

// RawSlot is a slot as the calendar tool emits it.
type RawSlot struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	StartDisplay string `json:"startDisplay"`
	StartVN      string `json:"startVN"`
}

// UnmarshalJSON reads each field leniently: strings as-is, numbers as their
// literal text, anything else as empty. Only a non-object is an error.
func (s *RawSlot) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*s = RawSlot{
		Start:        scalarString(obj["start"]),
		End:          scalarString(obj["end"]),
		StartDisplay: scalarString(obj["startDisplay"]),
		StartVN:      scalarString(obj["startVN"]),
	}
	return nil
}

// decodeRawSlots decodes a slot array element by element and skips entries
// that carry no start.
func decodeRawSlots(raw json.RawMessage) ([]RawSlot, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	slots := make([]RawSlot, 0, len(items))
	for _, item := range items {
		var slot RawSlot
		if err := json.Unmarshal(item, &slot); err != nil || slot.Start == "" {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Reply is a classified webhook response. Only the fields relevant to Kind are set.
type Reply struct {
	Kind        ReplyKind
	RawSlots    []RawSlot
	Slots       []model.TimeSlot
	ExecutionID string
	SessionID   string
	Text        string
	Raw         json.RawMessage
}

type replyBody struct {
	raw    json.RawMessage
	object map[string]json.RawMessage
	array  []json.RawMessage
}

type replyMatcher struct {
	kind  ReplyKind
	match func(replyBody, *Reply) bool
}

// Checked in order; the first match wins.
var replyMatchers = []replyMatcher{
	{ReplyEncodedSlots, matchEncodedSlots},
	{ReplyRawSlots, matchRawSlots},
	{ReplyCanonicalSlots, matchCanonicalSlots},
	{ReplyExecution, matchExecution},
	{ReplySession, matchSession},
}

// ClassifyReply decides which dialect a webhook body is written in. A body
// that is not JSON is an error; JSON that matches nothing, null included, is
// ReplyUnrecognized.
func ClassifyReply(body []byte) (Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Reply{Kind: ReplyUnrecognized}, nil
	}
	if !json.Valid(trimmed) {
		return Reply{}, errors.New("automation: webhook reply is not valid JSON")
	}

	rb := replyBody{raw: json.RawMessage(trimmed)}
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &rb.object); err != nil {
			return Reply{}, err
		}
	case '[':
		if err := json.Unmarshal(trimmed, &rb.array); err != nil {
			return Reply{}, err
		}
	}

	for _, m := range replyMatchers {
		reply := Reply{Kind: m.kind, Raw: rb.raw}
		if m.match(rb, &reply) {
			return reply, nil
		}
	}
	return Reply{Kind: ReplyUnrecognized, Raw: rb.raw}, nil
}

func matchEncodedSlots(rb replyBody, r *Reply) bool {
	var encoded string
	if err := json.Unmarshal(rb.object["Slot"], &encoded); err != nil || encoded == "" {
		return false
	}
	var items json.RawMessage
	if err := decodeEmbedded(encoded, &items); err != nil {
		return false
	}
	slots, err := decodeRawSlots(items)
	if err != nil || len(slots) == 0 {
		return false
	}
	r.RawSlots = slots
	r.SessionID = scalarString(rb.object["sessionId"])
	return true
}

func matchRawSlots(rb replyBody, r *Reply) bool {
	if len(rb.array) == 0 {
		return false
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(rb.array[0], &first); err != nil || !truthy(first["start"]) {
		return false
	}
	slots, err := decodeRawSlots(rb.raw)
	if err != nil {
		return false
	}
	r.RawSlots = slots
	return true
}

func matchCanonicalSlots(rb replyBody, r *Reply) bool {
	raw, ok := rb.object["slots"]
	if !ok || !isArray(raw) {
		return false
	}
	var slots []model.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return false
	}
	r.Slots = slots
	r.SessionID = scalarString(rb.object["sessionId"])
	return true
}

func matchExecution(rb replyBody, r *Reply) bool {
	id := scalarString(rb.object["executionId"])
	if id == "" {
		return false
	}
	r.ExecutionID = id
	r.SessionID = scalarString(rb.object["sessionId"])
	r.Text = firstText(rb.object, "text", "output")
	return true
}

func matchSession(rb replyBody, r *Reply) bool {
	id := scalarString(rb.object["sessionId"])
	if id == "" {
		return false
	}
	r.SessionID = id
	r.Text = firstText(rb.object, "text", "output")
	return true
}

// decodeEmbedded decodes JSON an agent wrote into a string field. Agents
// sometimes emit trailing commas or single quotes, so one repair pass is
// attempted before giving up.
func decodeEmbedded(encoded string, dst any) error {
	err := json.Unmarshal([]byte(encoded), dst)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(encoded)
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), dst)
}

// scalarString returns a JSON string as-is and a JSON number as its literal
// text. Anything else is "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil || n.String() == "0" {
			return ""
		}
		return n.String()
	}
	return ""
}

// firstText returns the first key holding a non-empty string.
func firstText(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(obj[k], &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`, "0":
		return false
	}
	return true
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
