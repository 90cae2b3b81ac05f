package automation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// SlotToolName is the agent tool whose output lists free calendar slots.
const SlotToolName = "get_available_slots"

type SlotToolOutput struct {
	AvailableSlots []RawSlot `json:"availableSlots"`
	TotalSlots     *int      `json:"totalSlots"`
}

// AgentResult is what the scheduling agent answered inside a finished execution.
type AgentResult struct {
	Step      string
	Text      string
	SessionID string
	// Tool is nil when the agent did not call the slot tool or its output
	// could not be decoded; ToolError holds the decode failure.
	Tool      *SlotToolOutput
	ToolError error
	Raw       json.RawMessage
}

type stepRun struct {
	Data struct {
		Main [][]struct {
			JSON json.RawMessage `json:"json"`
		} `json:"main"`
	} `json:"data"`
}

type toolCall struct {
	Tool       string          `json:"tool"`
	ToolOutput json.RawMessage `json:"toolOutput"`
}

// ExtractAgentResult walks the per-step outputs of an execution in the order
// the engine wrote them and returns the first one that looks like an agent
// reply. It returns nil, nil when no step qualifies.
func ExtractAgentResult(runData json.RawMessage) (*AgentResult, error) {
	dec := json.NewDecoder(bytes.NewReader(runData))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("automation: read runData: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("automation: runData is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("automation: read runData: %w", err)
		}
		step, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("automation: read step %q: %w", step, err)
		}

		agent, ok := agentReply(firstItemJSON(value))
		if !ok {
			continue
		}
		res := parseAgentReply(agent)
		res.Step = step
		return res, nil
	}
	return nil, nil
}

// firstItemJSON returns step[0].data.main[0][0].json, or nil.
func firstItemJSON(step json.RawMessage) json.RawMessage {
	var runs []stepRun
	if err := json.Unmarshal(step, &runs); err != nil || len(runs) == 0 {
		return nil
	}
	main := runs[0].Data.Main
	if len(main) == 0 || len(main[0]) == 0 {
		return nil
	}
	return main[0][0].JSON
}

func agentReply(item json.RawMessage) (json.RawMessage, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return nil, false
	}
	if item[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(item, &arr); err != nil || len(arr) == 0 {
			return nil, false
		}
		return arr[0], true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(item, &obj); err != nil {
		return nil, false
	}
	if !truthy(obj["text"]) || !truthy(obj["usedTools"]) {
		return nil, false
	}
	return item, true
}

func parseAgentReply(raw json.RawMessage) *AgentResult {
	res := &AgentResult{Raw: raw}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return res
	}
	res.Text = firstText(obj, "text")
	res.SessionID = scalarString(obj["sessionId"])
	if res.SessionID == "" {
		res.SessionID = scalarString(obj["chatId"])
	}

	var calls []toolCall
	if err := json.Unmarshal(obj["usedTools"], &calls); err != nil {
		return res
	}
	for _, c := range calls {
		if c.Tool != SlotToolName {
			continue
		}
		if !truthy(c.ToolOutput) {
			break
		}
		out, err := decodeToolOutput(c.ToolOutput)
		if err != nil {
			res.ToolError = err
			break
		}
		res.Tool = out
		break
	}
	return res
}

func decodeToolOutput(raw json.RawMessage) (*SlotToolOutput, error) {
	var out SlotToolOutput
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := decodeEmbedded(encoded, &out); err != nil {
			return nil, fmt.Errorf("automation: decode %s output: %w", SlotToolName, err)
		}
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("automation: decode %s output: %w", SlotToolName, err)
	}
	return &out, nil
}
