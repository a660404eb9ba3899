package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/toolguide"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of toolguide",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "toolguide version %s\n", strings.TrimSpace(toolguide.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
