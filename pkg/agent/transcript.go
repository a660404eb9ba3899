package agent

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/toolguide/pkg/domain"
)

// EventKind classifies transcript entries.
type EventKind string

const (
	EventToolCall EventKind = "tool_call"
	EventPatient  EventKind = "patient"
	EventAgent    EventKind = "agent"
)

// Event is one entry of an agent run.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Tool   string         `json:"tool,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// Observer receives events as they happen (live demo output).
type Observer func(Event)

// Outcome is the result of a complete agent run.
type Outcome struct {
	SessionID  string
	Final      domain.Response
	Transcript []Event

	// Summary is the agent's closing words (LLM agents only).
	Summary string
}

// Calls returns the names of the tools called, in order.
func (o Outcome) Calls() []string {
	var names []string
	for _, e := range o.Transcript {
		if e.Kind == EventToolCall {
			names = append(names, e.Tool)
		}
	}
	return names
}

// asMap re-shapes a tool result into a generic JSON object.
func asMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("tool result is not an object: %w", err)
	}
	return out, nil
}
