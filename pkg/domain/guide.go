package domain

import (
	"context"
	"fmt"
)

// Handler processes the input reported for the session's current state.
// It mutates the session (state, data, audit trail) and returns the payload
// for the agent. Protocol problems (unrecognized answers) belong in the
// Response; a returned error means the step could not be executed at all.
type Handler func(ctx context.Context, s *Session, in Input) (Response, error)

// Input is what the agent reports back to the guide.
// Chat guides read Text; agent guides read Report.
type Input struct {
	Text   string         `json:"text,omitempty"`
	Report map[string]any `json:"report,omitempty"`
}

// TextInput builds an Input carrying a user utterance.
func TextInput(text string) Input {
	return Input{Text: text}
}

// ReportInput builds an Input carrying an agent report.
func ReportInput(report map[string]any) Input {
	return Input{Report: report}
}

// Transition is a declared edge of the protocol.
type Transition struct {
	From  StateName `json:"from"`
	To    StateName `json:"to"`
	Label string    `json:"label,omitempty"`
}

// Guide is a protocol definition: an ordered set of states, the edges allowed
// between them and one handler per interactive state.
type Guide struct {
	Name        string
	Description string

	// Noun names a session in user-facing messages ("order", "triage").
	Noun string

	// CancelMessage is returned when a session is cancelled on request.
	CancelMessage string

	Initial     StateName
	States      []StateName
	Transitions []Transition

	// Begin renders the first instruction; the session is already at Initial.
	Begin func(ctx context.Context, s *Session) Response

	Handlers map[StateName]Handler

	// Snapshot renders the public view of a session (status lookups).
	// When nil, the session itself is returned.
	Snapshot func(s *Session) map[string]any
}

// HasState reports whether state belongs to the guide.
func (g *Guide) HasState(state StateName) bool {
	for _, s := range g.States {
		if s == state {
			return true
		}
	}
	return false
}

// Allows reports whether the guide declares the edge from -> to.
func (g *Guide) Allows(from, to StateName) bool {
	for _, t := range g.Transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// Validate checks the definition for dangling references.
func (g *Guide) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidGuide)
	}
	if g.Begin == nil {
		return fmt.Errorf("%w: %s has no Begin", ErrInvalidGuide, g.Name)
	}
	if !g.HasState(g.Initial) {
		return fmt.Errorf("%w: %s initial state %q is not declared", ErrInvalidGuide, g.Name, g.Initial)
	}
	for _, t := range g.Transitions {
		if !g.HasState(t.From) || !g.HasState(t.To) {
			return fmt.Errorf("%w: %s transition %s -> %s references an undeclared state", ErrInvalidGuide, g.Name, t.From, t.To)
		}
	}
	for state := range g.Handlers {
		if !g.HasState(state) {
			return fmt.Errorf("%w: %s handler for undeclared state %q", ErrInvalidGuide, g.Name, state)
		}
	}
	return nil
}

// View returns the public representation of s.
func (g *Guide) View(s *Session) map[string]any {
	if g.Snapshot != nil {
		return g.Snapshot(s)
	}
	return map[string]any{
		"session_id":     s.ID,
		"state":          string(s.State),
		"data":           s.Data,
		"protocol_steps": s.Steps,
	}
}
