package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/runner"
)

var sessionParam = Param{Name: "session_id", Type: TypeString, Description: "The session ID returned by the start tool", Required: true}

func (tb *Toolbox) pizzaTools() []Tool {
	return []Tool{
		{
			Name:  "start_pizza_order",
			Group: GroupPizza,
			Description: "Start a new pizza order. This begins the guided ordering workflow. " +
				"The result tells you what to ask the user next.",
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				return tb.engine.Start(ctx, pizza.Name)
			},
		},
		{
			Name:  "continue_pizza_order",
			Group: GroupPizza,
			Description: "Continue an existing pizza order with the user's response. " +
				"Follow the returned instructions exactly: the workflow logic lives in the tool, not in you.",
			Params: []Param{
				sessionParam,
				{Name: "user_response", Type: TypeString, Description: "The user's response to the last question", Required: true},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				text, err := stringArg(args, "user_response", "")
				if err != nil {
					return nil, err
				}
				clean, err := runner.SanitizeInputWithLimit(text, tb.maxInput)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
				}
				return tb.engine.Continue(ctx, pizza.Name, id, domain.TextInput(clean))
			},
		},
		{
			Name:        "get_order_status",
			Group:       GroupPizza,
			Description: "Get the current status of a pizza order.",
			Params:      []Param{sessionParam},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				return tb.lookup(ctx, pizza.Name, id, "order", "Order %s not found")
			},
		},
		{
			Name:        "cancel_pizza_order",
			Group:       GroupPizza,
			Description: "Cancel a pizza order.",
			Params:      []Param{sessionParam},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				return tb.engine.Cancel(ctx, pizza.Name, id)
			},
		},
	}
}

func (tb *Toolbox) triageTools() []Tool {
	return []Tool{
		{
			Name:  "start_triage",
			Group: GroupTriage,
			Description: "Start a medical triage session. The guide enforces the emergency department protocol: " +
				"perform exactly the task it returns, then report the result with continue_triage.",
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				return tb.engine.Start(ctx, triage.Name)
			},
		},
		{
			Name:  "continue_triage",
			Group: GroupTriage,
			Description: "Report the result of the current triage task. The report must be a JSON object " +
				"with the fields the task requires; the guide answers with the next mandatory task.",
			Params: []Param{
				sessionParam,
				{Name: "report", Type: TypeObject, Description: "Structured result of the current task", Required: true},
			},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				report, err := objectArg(args, "report")
				if err != nil {
					return nil, err
				}
				clean, err := runner.SanitizeReport(report, tb.maxInput)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
				}
				return tb.engine.Continue(ctx, triage.Name, id, domain.ReportInput(clean))
			},
		},
		{
			Name:        "get_triage_session",
			Group:       GroupTriage,
			Description: "Get the current state, triage level and audit trail of a triage session.",
			Params:      []Param{sessionParam},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				return tb.lookup(ctx, triage.Name, id, "session", "Session %s not found")
			},
		},
		{
			Name:        "cancel_triage",
			Group:       GroupTriage,
			Description: "Cancel a triage session.",
			Params:      []Param{sessionParam},
			Call: func(ctx context.Context, args map[string]any) (any, error) {
				id, err := stringArg(args, "session_id", "")
				if err != nil {
					return nil, err
				}
				return tb.engine.Cancel(ctx, triage.Name, id)
			},
		},
	}
}

// lookup wraps a snapshot as {"status": "found", key: view}.
func (tb *Toolbox) lookup(ctx context.Context, guide, id, key, notFound string) (map[string]any, error) {
	view, found, err := tb.engine.Get(ctx, guide, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]any{
			"status":  string(domain.StatusError),
			"message": fmt.Sprintf(notFound, id),
		}, nil
	}
	return map[string]any{"status": "found", key: view}, nil
}

func parseObject(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("must be a JSON object: %w", err)
	}
	return obj, nil
}
