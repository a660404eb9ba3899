package domain

import (
	"encoding/json"
	"fmt"
)

// Status is the coarse outcome of a step, read first by the calling agent.
type Status string

const (
	StatusInProgress            Status = "in_progress"
	StatusComplete              Status = "complete"
	StatusCancelled             Status = "cancelled"
	StatusError                 Status = "error"
	StatusEmergencySaveRequired Status = "emergency_save_required"
	StatusEmergency             Status = "emergency"
)

// Final reports whether no further input is expected for the session.
func (s Status) Final() bool {
	switch s {
	case StatusComplete, StatusCancelled, StatusEmergency:
		return true
	}
	return false
}

// Action tells a chat host what to do with the payload.
type Action string

const (
	ActionAskUser Action = "ask_user"
	ActionRespond Action = "respond"
)

// Response is the instruction payload returned to the agent after every step.
//
// The wire form is a flat JSON object: empty fields are omitted and Extra is
// merged into the top level.
type Response struct {
	Status    Status
	SessionID string
	Action    Action
	Task      string
	Prompt    string
	Message   string
	NextState StateName

	// StayInState is set when the input was rejected and the same question is asked again.
	StayInState bool

	InstructionsForAI    string
	InstructionsForAgent string
	RequiredData         []string
	Protocol             string
	Decision             string

	// Extra carries guide-specific fields (menus, summaries, audit trails).
	Extra map[string]any
}

// ErrorResponse builds a protocol-level error payload.
func ErrorResponse(format string, args ...any) Response {
	return Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// With sets an Extra field and returns the response for chaining.
func (r Response) With(key string, value any) Response {
	extra := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	extra[key] = value
	r.Extra = extra
	return r
}

// Map flattens the response into a generic object.
func (r Response) Map() map[string]any {
	m := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		m[k] = v
	}
	set := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	set("status", string(r.Status))
	set("session_id", r.SessionID)
	set("action", string(r.Action))
	set("task", r.Task)
	set("prompt", r.Prompt)
	set("message", r.Message)
	set("next_state", string(r.NextState))
	set("instructions_for_ai", r.InstructionsForAI)
	set("instructions_for_agent", r.InstructionsForAgent)
	set("protocol", r.Protocol)
	set("decision", r.Decision)
	if r.StayInState {
		m["stay_in_state"] = true
	}
	if len(r.RequiredData) > 0 {
		m["required_data"] = r.RequiredData
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON implements json.Unmarshaler. Unknown keys land in Extra.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string) string {
		v, _ := raw[key].(string)
		delete(raw, key)
		return v
	}

	*r = Response{
		Status:               Status(take("status")),
		SessionID:            take("session_id"),
		Action:               Action(take("action")),
		Task:                 take("task"),
		Prompt:               take("prompt"),
		Message:              take("message"),
		NextState:            StateName(take("next_state")),
		InstructionsForAI:    take("instructions_for_ai"),
		InstructionsForAgent: take("instructions_for_agent"),
		Protocol:             take("protocol"),
		Decision:             take("decision"),
	}
	if stay, ok := raw["stay_in_state"].(bool); ok {
		r.StayInState = stay
		delete(raw, "stay_in_state")
	}
	if req, ok := raw["required_data"].([]any); ok {
		for _, item := range req {
			if s, ok := item.(string); ok {
				r.RequiredData = append(r.RequiredData, s)
			}
		}
		delete(raw, "required_data")
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}
