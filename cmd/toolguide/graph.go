package main

import (
	"github.com/aretw0/toolguide/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <guide>",
	Short: "Print the Mermaid state diagram of a guide",
	Long: `Prints a Mermaid flowchart of the guide's states and declared transitions.
With --session, the states visited by that session are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		return cli.PrintGraph(cmd.Context(), rt, cmd.OutOrStdout(), args[0], sessionID)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the path of this session")
}
