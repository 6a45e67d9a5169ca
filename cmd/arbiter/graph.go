package main

import (
	"fmt"

	"github.com/aretw0/arbiter/internal/demo"
	"github.com/aretw0/arbiter/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the game state machine as a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(demo.Definition.Describe(), nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
