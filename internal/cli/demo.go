package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/internal/config"
	"github.com/aretw0/toolguide/internal/presentation/tui"
	"github.com/aretw0/toolguide/pkg/agent"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
	"github.com/aretw0/toolguide/pkg/runner"
)

// PizzaOptions configures the interactive pizza demo.
type PizzaOptions struct {
	In        io.Reader
	Out       io.Writer
	JSON      bool
	ShowState bool
	MaxInput  int
}

// RunPizza takes an order in the terminal until it is confirmed, cancelled
// or the input ends.
func RunPizza(ctx context.Context, rt *Runtime, opts PizzaOptions) error {
	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		tui.PrintBanner(opts.Out, "pizza ordering guide "+strings.TrimSpace(toolguide.Version))
		textOpts := []runner.TextHandlerOption{runner.WithShowState(opts.ShowState)}
		if tui.IsInteractive() {
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(rt.Logger),
		runner.WithMaxInputSize(opts.MaxInput),
	)
	final, err := r.Run(ctx, rt.Engine, pizza.Name)
	if err != nil {
		if !opts.JSON && isInterrupted(err) {
			printSystemMessage(opts.Out, "Order abandoned.")
		}
		return handleExecutionError(err)
	}
	if !opts.JSON {
		printSystemMessage(opts.Out, "Session %s finished with status %s.", final.SessionID, final.Status)
	}
	return nil
}

// TriageOptions configures the triage agent demo.
type TriageOptions struct {
	Out      io.Writer
	Scenario string

	// LLM drives the session with a chat model instead of the scripted agent.
	LLM       bool
	Statement string
	Agent     config.AgentConfig

	JSON bool
}

// RunTriage lets an agent triage a simulated patient and prints the transcript.
func RunTriage(ctx context.Context, rt *Runtime, opts TriageOptions) error {
	if opts.Scenario == "" {
		opts.Scenario = clinic.ChestPainEmergency
	}

	agentOpts := []agent.Option{
		agent.WithLogger(rt.Logger),
		agent.WithMaxSteps(opts.Agent.MaxSteps),
	}
	if !opts.JSON {
		tui.PrintBanner(opts.Out, "emergency triage guide "+strings.TrimSpace(toolguide.Version))
		agentOpts = append(agentOpts, agent.WithObserver(transcriptPrinter(opts.Out)))
	}

	var (
		outcome agent.Outcome
		err     error
	)
	if opts.LLM {
		if opts.Agent.APIKey == "" {
			return fmt.Errorf("an API key is required for the LLM agent (agent.api_key or TOOLGUIDE_AGENT_API_KEY)")
		}
		statement := opts.Statement
		if statement == "" {
			statement = clinic.InterviewSimulator{}.Answer(opts.Scenario, clinic.QuestionInitial)
		}
		llm := agent.NewLLM(agent.LLMConfig{
			APIKey:  opts.Agent.APIKey,
			Model:   opts.Agent.Model,
			BaseURL: opts.Agent.BaseURL,
		}, rt.Tools, agentOpts...)
		outcome, err = llm.Run(ctx, statement)
	} else {
		outcome, err = agent.NewScripted(rt.Tools, agentOpts...).Run(ctx, opts.Scenario)
	}
	if err != nil {
		return handleExecutionError(err)
	}

	if opts.JSON {
		enc := json.NewEncoder(opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"session_id": outcome.SessionID,
			"final":      outcome.Final,
			"transcript": outcome.Transcript,
			"summary":    outcome.Summary,
		})
	}

	fmt.Fprintln(opts.Out)
	printSystemMessage(opts.Out, "Session %s finished with status %s.", outcome.SessionID, outcome.Final.Status)
	if level, ok := outcome.Final.Extra["triage_level"]; ok {
		printSystemMessage(opts.Out, "Triage level: %v", level)
	}
	if outcome.Final.Message != "" {
		fmt.Fprintf(opts.Out, "\n%s\n", outcome.Final.Message)
	}
	if outcome.Summary != "" {
		fmt.Fprintf(opts.Out, "\nAgent: %s\n", outcome.Summary)
	}
	return nil
}

func transcriptPrinter(w io.Writer) agent.Observer {
	return func(e agent.Event) {
		switch e.Kind {
		case agent.EventPatient:
			fmt.Fprintf(w, "🧑 Patient: %s\n", e.Text)
		case agent.EventAgent:
			fmt.Fprintf(w, "🤖 Agent: %s\n", e.Text)
		case agent.EventToolCall:
			if e.Error != "" {
				fmt.Fprintf(w, "🔧 %s failed: %s\n", e.Tool, e.Error)
				return
			}
			fmt.Fprintf(w, "🔧 %s%s\n", e.Tool, toolNote(e.Result))
		}
	}
}

// toolNote summarizes guide responses so the transcript shows the protocol
// moving forward.
func toolNote(result any) string {
	resp, ok := result.(domain.Response)
	if !ok {
		return ""
	}
	switch {
	case resp.Task != "":
		return fmt.Sprintf(" -> %s (%s)", resp.Status, resp.Task)
	case resp.Status != "":
		return fmt.Sprintf(" -> %s", resp.Status)
	}
	return ""
}
