package domain

import "time"

// StateName identifies a step of a guide protocol.
type StateName string

// Reserved states shared by every guide.
const (
	StateStart     StateName = "START"
	StateComplete  StateName = "COMPLETE"
	StateCancelled StateName = "CANCELLED"
)

// AuditStep is one entry of a session's protocol trail.
type AuditStep struct {
	Step      string         `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Session represents a single walk through a guide.
type Session struct {
	ID    string    `json:"session_id"`
	Guide string    `json:"guide"`
	State StateName `json:"state"`

	// Data holds the guide-specific fields collected so far.
	Data map[string]any `json:"data"`

	// Steps is the append-only audit trail.
	Steps []AuditStep `json:"protocol_steps,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session positioned at START.
func NewSession(id, guide string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Guide:     guide,
		State:     StateStart,
		Data:      make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddStep appends an entry to the audit trail.
func (s *Session) AddStep(step string, data map[string]any) {
	s.Steps = append(s.Steps, AuditStep{
		Step:      step,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// Clone returns a copy that shares no mutable containers with s.
// Nested values inside Data are copied one level deep.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Data = make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		c.Data[k] = v
	}
	if s.Steps != nil {
		c.Steps = make([]AuditStep, len(s.Steps))
		copy(c.Steps, s.Steps)
	}
	return &c
}
