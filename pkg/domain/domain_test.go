package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_JSONIsFlat(t *testing.T) {
	resp := domain.Response{
		Status:            domain.StatusInProgress,
		SessionID:         "abc12345",
		Action:            domain.ActionAskUser,
		Prompt:            "What kind of crust?",
		NextState:         "CHOOSE_CRUST",
		InstructionsForAI: "Ask the user this exact question.",
	}.With("available_toppings", []string{"Ham"})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "in_progress", raw["status"])
	assert.Equal(t, "CHOOSE_CRUST", raw["next_state"])
	assert.Equal(t, []any{"Ham"}, raw["available_toppings"])
	assert.NotContains(t, raw, "message")
	assert.NotContains(t, raw, "stay_in_state")

	var back domain.Response
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, resp.Prompt, back.Prompt)
	assert.Equal(t, resp.NextState, back.NextState)
	assert.Equal(t, []any{"Ham"}, back.Extra["available_toppings"])
}

func TestResponse_WithDoesNotAlias(t *testing.T) {
	base := domain.Response{Status: domain.StatusComplete}.With("a", 1)
	derived := base.With("b", 2)

	assert.NotContains(t, base.Extra, "b")
	assert.Contains(t, derived.Extra, "a")
}

func TestStatus_Final(t *testing.T) {
	assert.True(t, domain.StatusComplete.Final())
	assert.True(t, domain.StatusCancelled.Final())
	assert.True(t, domain.StatusEmergency.Final())
	assert.False(t, domain.StatusInProgress.Final())
	assert.False(t, domain.StatusEmergencySaveRequired.Final())
	assert.False(t, domain.StatusError.Final())
}

func TestGuide_Validate(t *testing.T) {
	begin := func(ctx context.Context, s *domain.Session) domain.Response { return domain.Response{} }

	valid := &domain.Guide{
		Name:        "demo",
		Initial:     "ASK",
		States:      []domain.StateName{domain.StateStart, "ASK", domain.StateComplete},
		Transitions: []domain.Transition{{From: "ASK", To: domain.StateComplete}},
		Begin:       begin,
	}
	assert.NoError(t, valid.Validate())
	assert.True(t, valid.Allows("ASK", domain.StateComplete))
	assert.False(t, valid.Allows(domain.StateComplete, "ASK"))

	dangling := *valid
	dangling.Transitions = []domain.Transition{{From: "ASK", To: "NOWHERE"}}
	assert.True(t, errors.Is(dangling.Validate(), domain.ErrInvalidGuide))

	noInitial := *valid
	noInitial.Initial = "MISSING"
	assert.True(t, errors.Is(noInitial.Validate(), domain.ErrInvalidGuide))
}

type order struct {
	Crust    string   `mapstructure:"crust"`
	Toppings []string `mapstructure:"toppings"`
	Score    int      `mapstructure:"score"`
}

func TestSession_DataRoundTripThroughJSON(t *testing.T) {
	s := domain.NewSession("id", "pizza", time.Now())
	require.NoError(t, s.EncodeData(order{Crust: "Thin", Toppings: []string{"Ham", "Olives"}, Score: 3}))

	// Simulate a store that serializes to JSON.
	data, err := json.Marshal(s)
	require.NoError(t, err)
	var loaded domain.Session
	require.NoError(t, json.Unmarshal(data, &loaded))

	var got order
	require.NoError(t, loaded.DecodeData(&got))
	assert.Equal(t, "Thin", got.Crust)
	assert.Equal(t, []string{"Ham", "Olives"}, got.Toppings)
	assert.Equal(t, 3, got.Score)
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := domain.NewSession("id", "pizza", time.Now())
	s.Data["crust"] = "Thin"
	s.AddStep("started", nil)

	c := s.Clone()
	c.Data["crust"] = "Thick"
	c.AddStep("changed", nil)

	assert.Equal(t, "Thin", s.Data["crust"])
	assert.Len(t, s.Steps, 1)
	assert.Len(t, c.Steps, 2)
}
