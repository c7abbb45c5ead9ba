package stream

import (
	"encoding/json"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Two event surfaces coexist on the wire. The legacy surface tags frames
// with an "event" name; the newer surface uses "type" and currently only
// carries reasoning updates and the terminator. Both must be accepted.
type wireFrame struct {
	Event string          `json:"event"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// wireData is the union of payload fields across legacy event kinds.
type wireData struct {
	Token  string `json:"token"`
	Chunk  string `json:"chunk"`
	ID     string `json:"id"`
	SpanID string `json:"span_id"`
	RunID  string `json:"run_id"`
	Name   string `json:"name"`
	Input  any    `json:"input"`
	Output any    `json:"output"`
	Status string `json:"status"`
}

// ParseEvent decodes one frame payload into a typed execution event.
// Unparsable frames and unrecognized kinds yield a
// *domain.MalformedEventError; callers log and skip those rather than
// aborting the stream.
func ParseEvent(frame []byte) (domain.ExecutionEvent, error) {
	var wf wireFrame
	if err := json.Unmarshal(frame, &wf); err != nil {
		return domain.ExecutionEvent{}, &domain.MalformedEventError{
			Frame:  string(frame),
			Reason: "invalid json: " + err.Error(),
		}
	}

	// Newer surface.
	switch wf.Type {
	case "reasoning":
		return parseReasoning(frame, wf.Data)
	case "done":
		return domain.ExecutionEvent{Type: domain.EventDone}, nil
	}

	// Legacy surface.
	switch wf.Event {
	case "token", "on_llm_new_token":
		var d wireData
		_ = json.Unmarshal(wf.Data, &d)
		tok := d.Token
		if tok == "" {
			tok = d.Chunk
		}
		return domain.ExecutionEvent{Type: domain.EventToken, Token: tok}, nil

	case "tool_start", "on_tool_start":
		return parseSpan(domain.EventToolStart, wf.Data), nil
	case "tool_end", "on_tool_end":
		return parseSpan(domain.EventToolEnd, wf.Data), nil
	case "chain_start", "on_chain_start":
		return parseSpan(domain.EventChainStart, wf.Data), nil
	case "chain_end", "on_chain_end":
		return parseSpan(domain.EventChainEnd, wf.Data), nil

	case "reasoning", "reasoning_update":
		return parseReasoning(frame, wf.Data)

	case "run_id", "run_id_assigned":
		var d wireData
		_ = json.Unmarshal(wf.Data, &d)
		id := d.RunID
		if id == "" {
			id = d.ID
		}
		return domain.ExecutionEvent{Type: domain.EventRunID, RunID: id}, nil

	case "run_status", "status":
		var d wireData
		_ = json.Unmarshal(wf.Data, &d)
		return domain.ExecutionEvent{Type: domain.EventRunStatus, Status: d.Status}, nil

	case "done", "end":
		return domain.ExecutionEvent{Type: domain.EventDone}, nil
	}

	return domain.ExecutionEvent{}, &domain.MalformedEventError{
		Frame:  string(frame),
		Reason: "unrecognized event kind",
	}
}

func parseSpan(t domain.EventType, data json.RawMessage) domain.ExecutionEvent {
	var d wireData
	_ = json.Unmarshal(data, &d)

	key := d.SpanID
	if key == "" {
		key = d.ID
	}
	if key == "" {
		key = d.RunID
	}
	return domain.ExecutionEvent{
		Type:   t,
		SpanID: key,
		Name:   d.Name,
		Input:  d.Input,
		Output: d.Output,
	}
}

func parseReasoning(frame []byte, data json.RawMessage) (domain.ExecutionEvent, error) {
	var step domain.ReasoningStep
	if err := json.Unmarshal(data, &step); err != nil {
		return domain.ExecutionEvent{}, &domain.MalformedEventError{
			Frame:  string(frame),
			Reason: "invalid reasoning payload: " + err.Error(),
		}
	}
	if step.Label == "" {
		return domain.ExecutionEvent{}, &domain.MalformedEventError{
			Frame:  string(frame),
			Reason: "reasoning update without label",
		}
	}
	return domain.ExecutionEvent{Type: domain.EventReasoning, Step: &step}, nil
}
