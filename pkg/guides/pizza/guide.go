// Package pizza implements the pizza ordering guide: a chat protocol where the
// guide asks one question at a time and the host relays the user's answer.
package pizza

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/toolguide/pkg/domain"
)

// Name is the registry name of the guide.
const Name = "pizza"

// States.
const (
	StateChooseCrust    domain.StateName = "CHOOSE_CRUST"
	StateChooseCategory domain.StateName = "CHOOSE_CATEGORY"
	StateChooseToppings domain.StateName = "CHOOSE_TOPPINGS"
	StateChooseSize     domain.StateName = "CHOOSE_SIZE"
	StateConfirm        domain.StateName = "CONFIRM"
)

// New returns the pizza ordering guide definition.
func New() *domain.Guide {
	return &domain.Guide{
		Name:          Name,
		Description:   "Build a pizza order step by step: crust, category, toppings, size, confirmation.",
		Noun:          "order",
		CancelMessage: "Order cancelled successfully.",
		Initial:       domain.StateStart,
		States: []domain.StateName{
			domain.StateStart,
			StateChooseCrust,
			StateChooseCategory,
			StateChooseToppings,
			StateChooseSize,
			StateConfirm,
			domain.StateComplete,
			domain.StateCancelled,
		},
		Transitions: []domain.Transition{
			{From: domain.StateStart, To: StateChooseCrust, Label: "start"},
			{From: StateChooseCrust, To: StateChooseCategory, Label: "crust"},
			{From: StateChooseCategory, To: StateChooseToppings, Label: "category"},
			{From: StateChooseToppings, To: StateChooseSize, Label: "toppings"},
			{From: StateChooseSize, To: StateConfirm, Label: "size"},
			{From: StateConfirm, To: domain.StateComplete, Label: "yes"},
			{From: StateConfirm, To: domain.StateCancelled, Label: "no"},
		},
		Begin: begin,
		Handlers: map[domain.StateName]domain.Handler{
			StateChooseCrust:    handleCrust,
			StateChooseCategory: handleCategory,
			StateChooseToppings: handleToppings,
			StateChooseSize:     handleSize,
			StateConfirm:        handleConfirm,
		},
		Snapshot: View,
	}
}

func ask(prompt string) domain.Response {
	return domain.Response{
		Status: domain.StatusInProgress,
		Action: domain.ActionAskUser,
		Prompt: prompt,
	}
}

func reask(prompt, instructions string) domain.Response {
	r := ask(prompt)
	r.StayInState = true
	r.InstructionsForAI = instructions
	return r
}

func begin(ctx context.Context, s *domain.Session) domain.Response {
	s.State = StateChooseCrust
	r := ask(fmt.Sprintf("Great! Let's build your perfect pizza. What kind of crust would you like?\n\nOptions: %s",
		strings.Join(Crusts, ", ")))
	r.NextState = StateChooseCrust
	r.InstructionsForAI = "Ask the user this exact question and wait for their response."
	return r
}

func load(s *domain.Session) (Order, error) {
	var o Order
	if err := s.DecodeData(&o); err != nil {
		return o, fmt.Errorf("corrupt order data: %w", err)
	}
	return o, nil
}

func handleCrust(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
	crust, ok := MatchOption(in.Text, Crusts)
	if !ok {
		return reask(fmt.Sprintf("I didn't catch that. Please choose from: %s", strings.Join(Crusts, ", ")),
			"The user's response was unclear. Ask them to choose from the listed options."), nil
	}

	o, err := load(s)
	if err != nil {
		return domain.Response{}, err
	}
	o.Crust = crust
	if err := s.EncodeData(o); err != nil {
		return domain.Response{}, err
	}
	s.State = StateChooseCategory

	r := ask(fmt.Sprintf("Perfect! %s crust it is. Would you like a vegetarian pizza or one with meat?", crust))
	r.NextState = StateChooseCategory
	r.InstructionsForAI = "Acknowledge their choice and ask this next question."
	return r, nil
}

func handleCategory(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
	category, ok := ParseCategory(strings.TrimSpace(in.Text))
	if !ok {
		return reask("Please say 'vegetarian' or 'meat'.", ""), nil
	}

	o, err := load(s)
	if err != nil {
		return domain.Response{}, err
	}
	o.Category = category
	if err := s.EncodeData(o); err != nil {
		return domain.Response{}, err
	}
	s.State = StateChooseToppings

	toppings := ToppingsFor(category)
	r := ask(fmt.Sprintf("Great choice! Here are your %s topping options:\n\n%s\n\nPlease list the toppings you'd like (e.g., 'Mushrooms, Olives, Bell Peppers')",
		category, strings.Join(toppings, ", ")))
	r.NextState = StateChooseToppings
	r.InstructionsForAI = "Show the user the topping options and wait for their selection."
	return r.With("available_toppings", toppings), nil
}

func handleToppings(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
	o, err := load(s)
	if err != nil {
		return domain.Response{}, err
	}
	available := ToppingsFor(o.Category)

	selected := ParseToppings(strings.TrimSpace(in.Text), available)
	if len(selected) == 0 {
		return reask(fmt.Sprintf("I didn't recognize any of those toppings. Please choose from: %s", strings.Join(available, ", ")), ""), nil
	}

	o.Toppings = selected
	if err := s.EncodeData(o); err != nil {
		return domain.Response{}, err
	}
	s.State = StateChooseSize

	r := ask(fmt.Sprintf("Excellent! Your pizza will have: %s\n\nWhat size would you like?\n\nOptions: %s",
		strings.Join(selected, ", "), strings.Join(Sizes, ", ")))
	r.NextState = StateChooseSize
	r.InstructionsForAI = "Confirm their toppings and ask about size."
	return r, nil
}

func handleSize(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
	size, ok := MatchOption(in.Text, Sizes)
	if !ok {
		return reask(fmt.Sprintf("Please choose from: %s", strings.Join(Sizes, ", ")), ""), nil
	}

	o, err := load(s)
	if err != nil {
		return domain.Response{}, err
	}
	o.Size = size
	if err := s.EncodeData(o); err != nil {
		return domain.Response{}, err
	}
	s.State = StateConfirm

	summary := o.Summary()
	r := ask(fmt.Sprintf("Here's your order:\n\n%s\n\nLooks good? (yes/no)", summary))
	r.NextState = StateConfirm
	r.InstructionsForAI = "Show the order summary and ask for confirmation."
	return r.With("order_summary", summary), nil
}

func handleConfirm(ctx context.Context, s *domain.Session, in domain.Input) (domain.Response, error) {
	if !IsConfirmation(strings.TrimSpace(in.Text)) {
		s.State = domain.StateCancelled
		return domain.Response{
			Status:            domain.StatusCancelled,
			Action:            domain.ActionRespond,
			Message:           "No problem! Your order has been cancelled. Feel free to start a new order anytime.",
			InstructionsForAI: "Tell the user the order was cancelled.",
		}, nil
	}

	o, err := load(s)
	if err != nil {
		return domain.Response{}, err
	}
	s.State = domain.StateComplete
	summary := o.Summary()

	r := domain.Response{
		Status:            domain.StatusComplete,
		Action:            domain.ActionRespond,
		Message:           fmt.Sprintf("🎉 Order confirmed!\n\n%s\n\nYour pizza will be ready in 20-30 minutes. Thank you!", summary),
		InstructionsForAI: "Tell the user their order is confirmed and provide the summary.",
	}
	return r.With("order", View(s)), nil
}
