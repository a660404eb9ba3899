package pizza_test

import (
	"context"
	"testing"

	"github.com/aretw0/toolguide/internal/runtime"
	"github.com/aretw0/toolguide/pkg/adapters/file"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/ports"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, store ports.SessionStore) *runtime.Engine {
	t.Helper()
	eng := runtime.NewEngine(session.NewManager(store))
	require.NoError(t, eng.Register(pizza.New()))
	return eng
}

func step(t *testing.T, eng *runtime.Engine, id, answer string) domain.Response {
	t.Helper()
	resp, err := eng.Continue(context.Background(), pizza.Name, id, domain.TextInput(answer))
	require.NoError(t, err)
	return resp
}

func TestGuide_Validates(t *testing.T) {
	require.NoError(t, pizza.New().Validate())
}

func TestPizza_FullOrder(t *testing.T) {
	stores := map[string]ports.SessionStore{
		"memory": memory.NewStore(),
		"file":   file.New(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			eng := newEngine(t, store)
			ctx := context.Background()

			start, err := eng.Start(ctx, pizza.Name)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusInProgress, start.Status)
			assert.Equal(t, domain.ActionAskUser, start.Action)
			assert.Equal(t, pizza.StateChooseCrust, start.NextState)
			assert.Contains(t, start.Prompt, "Options: Thin, Regular, Thick, Gluten-free")
			assert.Equal(t, "Ask the user this exact question and wait for their response.", start.InstructionsForAI)
			id := start.SessionID

			resp := step(t, eng, id, "thin please")
			assert.Equal(t, "Perfect! Thin crust it is. Would you like a vegetarian pizza or one with meat?", resp.Prompt)
			assert.Equal(t, pizza.StateChooseCategory, resp.NextState)

			resp = step(t, eng, id, "Veggie")
			assert.Equal(t, pizza.StateChooseToppings, resp.NextState)
			assert.Equal(t, pizza.VegetarianToppings, resp.Extra["available_toppings"])

			resp = step(t, eng, id, "mushrooms, olives and spinach")
			assert.Contains(t, resp.Prompt, "Excellent! Your pizza will have: Mushrooms, Olives, Spinach")

			resp = step(t, eng, id, "large")
			assert.Equal(t, pizza.StateConfirm, resp.NextState)
			summary := "• Size: Large (14\")\n• Crust: Thin\n• Category: Vegetarian\n• Toppings: Mushrooms, Olives, Spinach"
			assert.Equal(t, summary, resp.Extra["order_summary"])
			assert.Contains(t, resp.Prompt, "Looks good? (yes/no)")

			resp = step(t, eng, id, "Looks good")
			assert.Equal(t, domain.StatusComplete, resp.Status)
			assert.Equal(t, domain.ActionRespond, resp.Action)
			assert.Contains(t, resp.Message, "Order confirmed!")
			assert.Contains(t, resp.Message, "ready in 20-30 minutes")

			order, ok := resp.Extra["order"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "COMPLETE", order["state"])
			assert.Equal(t, []string{"Mushrooms", "Olives", "Spinach"}, order["toppings"])

			view, found, err := eng.Get(ctx, pizza.Name, id)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "Thin", view["crust"])
			assert.Equal(t, "vegetarian", view["category"])
		})
	}
}

func TestPizza_Reasks(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	start, err := eng.Start(context.Background(), pizza.Name)
	require.NoError(t, err)
	id := start.SessionID

	resp := step(t, eng, id, "stuffed")
	assert.True(t, resp.StayInState)
	assert.Equal(t, "I didn't catch that. Please choose from: Thin, Regular, Thick, Gluten-free", resp.Prompt)
	assert.Equal(t, "The user's response was unclear. Ask them to choose from the listed options.", resp.InstructionsForAI)

	resp = step(t, eng, id, "   ")
	assert.True(t, resp.StayInState, "blank input never matches")

	step(t, eng, id, "regular")

	resp = step(t, eng, id, "fish")
	assert.True(t, resp.StayInState)
	assert.Equal(t, "Please say 'vegetarian' or 'meat'.", resp.Prompt)

	step(t, eng, id, "meat")

	resp = step(t, eng, id, "anchovies, tofu")
	assert.True(t, resp.StayInState)
	assert.Contains(t, resp.Prompt, "I didn't recognize any of those toppings. Please choose from: Pepperoni")

	step(t, eng, id, "pepperoni and anchovies")

	resp = step(t, eng, id, "gigantic")
	assert.True(t, resp.StayInState)
	assert.Contains(t, resp.Prompt, "Please choose from: Small")
}

func TestPizza_DecliningCancelsAndDeletes(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	ctx := context.Background()
	start, err := eng.Start(ctx, pizza.Name)
	require.NoError(t, err)
	id := start.SessionID

	for _, answer := range []string{"thick", "meat", "bacon", "small"} {
		step(t, eng, id, answer)
	}
	resp := step(t, eng, id, "no thanks")
	assert.Equal(t, domain.StatusCancelled, resp.Status)
	assert.Equal(t, "No problem! Your order has been cancelled. Feel free to start a new order anytime.", resp.Message)

	_, found, err := eng.Get(ctx, pizza.Name, id)
	require.NoError(t, err)
	assert.False(t, found)

	resp = step(t, eng, id, "yes")
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Session "+id+" not found. Please start a new order.", resp.Message)
}

func TestPizza_CancelOrder(t *testing.T) {
	eng := newEngine(t, memory.NewStore())
	ctx := context.Background()
	start, err := eng.Start(ctx, pizza.Name)
	require.NoError(t, err)

	resp, err := eng.Cancel(ctx, pizza.Name, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Status)
	assert.Equal(t, "Order cancelled successfully.", resp.Message)
}
