package toolguide_test

import (
	"context"
	"testing"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/pkg/adapters/file"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultGuides(t *testing.T) {
	eng, err := toolguide.New()
	require.NoError(t, err)

	var names []string
	for _, g := range eng.Guides() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"pizza", "triage"}, names)
}

func TestEngine_PizzaOrder(t *testing.T) {
	var events []domain.EventType
	record := func(ctx context.Context, e *domain.TransitionEvent) { events = append(events, e.Type) }

	eng, err := toolguide.New(
		toolguide.WithStore(file.New(t.TempDir())),
		toolguide.WithIDGenerator(func() string { return "order-01" }),
		toolguide.WithLifecycleHooks(domain.LifecycleHooks{OnSessionStart: record, OnSessionEnd: record}),
		toolguide.WithLifecycleHooks(domain.LifecycleHooks{OnTransition: record}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := eng.Start(ctx, pizza.Name)
	require.NoError(t, err)
	assert.Equal(t, "order-01", resp.SessionID)
	assert.Equal(t, pizza.StateChooseCrust, resp.NextState)

	for _, answer := range []string{"Regular", "meat", "Ham, Bacon", "medium", "looks good"} {
		resp, err = eng.Continue(ctx, pizza.Name, "order-01", domain.TextInput(answer))
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusComplete, resp.Status)

	ids, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-01"}, ids)

	s, err := eng.Session(ctx, "order-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, s.State)

	assert.Equal(t, domain.EventSessionStart, events[0])
	assert.Equal(t, domain.EventSessionEnd, events[len(events)-1])
	assert.Len(t, events, 7)

	require.NoError(t, eng.Delete(ctx, "order-01"))
	_, found, err := eng.Get(ctx, pizza.Name, "order-01")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEngine_WithGuides(t *testing.T) {
	eng, err := toolguide.New(toolguide.WithGuides(pizza.New()))
	require.NoError(t, err)

	_, err = eng.Start(context.Background(), "triage")
	assert.ErrorIs(t, err, domain.ErrUnknownGuide)
}

func TestEngine_RejectsInvalidGuide(t *testing.T) {
	_, err := toolguide.New(toolguide.WithGuides(&domain.Guide{Name: "broken"}))
	assert.ErrorIs(t, err, domain.ErrInvalidGuide)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, toolguide.Version)
}
