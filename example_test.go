package toolguide_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/pkg/domain"
)

// ExampleEngine_Continue walks the first step of a pizza order.
func ExampleEngine_Continue() {
	eng, err := toolguide.New(toolguide.WithIDGenerator(func() string { return "abc12345" }))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	resp, err := eng.Start(ctx, "pizza")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.SessionID, resp.NextState)

	resp, err = eng.Continue(ctx, "pizza", resp.SessionID, domain.TextInput("gluten free please"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.StayInState)

	resp, err = eng.Continue(ctx, "pizza", resp.SessionID, domain.TextInput("thick"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Prompt)

	// Output:
	// abc12345 CHOOSE_CRUST
	// true
	// Perfect! Thick crust it is. Would you like a vegetarian pizza or one with meat?
}
