package main

import (
	"context"
	"os"

	"github.com/aretw0/toolguide/internal/cli"
	"github.com/aretw0/toolguide/pkg/guides/triage/clinic"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run one of the bundled guides in the terminal",
}

var demoPizzaCmd = &cobra.Command{
	Use:   "pizza",
	Short: "Order a pizza, one question at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		jsonMode, _ := cmd.Flags().GetBool("json")
		showState, _ := cmd.Flags().GetBool("show-state")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunPizza(ctx, rt, cli.PizzaOptions{
			In:        os.Stdin,
			Out:       cmd.OutOrStdout(),
			JSON:      jsonMode,
			ShowState: showState,
			MaxInput:  cfg.MaxInputSize,
		})
	},
}

var demoTriageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Watch an agent triage a simulated patient",
	Long: `Runs the triage guide end to end. By default a scripted agent plays the
protocol against a simulated patient; with --llm a chat model drives the
session through the same tools.

Scenarios: chest_pain_emergency, minor_issue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		scenario, _ := cmd.Flags().GetString("scenario")
		useLLM, _ := cmd.Flags().GetBool("llm")
		statement, _ := cmd.Flags().GetString("statement")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.RunTriage(ctx, rt, cli.TriageOptions{
			Out:       cmd.OutOrStdout(),
			Scenario:  scenario,
			LLM:       useLLM,
			Statement: statement,
			Agent:     cfg.Agent,
			JSON:      jsonMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(demoPizzaCmd)
	demoCmd.AddCommand(demoTriageCmd)

	demoPizzaCmd.Flags().Bool("json", false, "Read answers and write instructions as JSON lines")
	demoPizzaCmd.Flags().Bool("show-state", true, "Print the guide state before each question")

	demoTriageCmd.Flags().String("scenario", clinic.ChestPainEmergency, "Simulated patient scenario")
	demoTriageCmd.Flags().Bool("llm", false, "Drive the session with a chat model")
	demoTriageCmd.Flags().String("statement", "", "Opening patient statement for the LLM agent")
	demoTriageCmd.Flags().String("model", "gpt-4o-mini", "Chat model for the LLM agent")
	demoTriageCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	_ = v.BindPFlag("agent.model", demoTriageCmd.Flags().Lookup("model"))
}
