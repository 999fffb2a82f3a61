package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/transform"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <agent>",
	Short: "Export the flow graph visualization",
	Long:  `Loads the agent's definition and outputs a Mermaid diagram (graph TD) of its states and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		def, err := loadDefinition(cmd.Context(), e.backend.Store, args[0])
		if err != nil {
			return err
		}
		g, report := transform.ToGraph(def)
		for _, issue := range report.Issues {
			e.logger.Warn("Definition repaired", "agent_id", args[0], "issue", issue.String())
		}

		highlight, _ := cmd.Flags().GetStringSlice("highlight")
		selected, _ := cmd.Flags().GetString("select")
		var overlay *graph.Overlay
		if len(highlight) > 0 || selected != "" {
			overlay = &graph.Overlay{Highlighted: highlight, Selected: selected}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("highlight", nil, "States to highlight")
	graphCmd.Flags().String("select", "", "State to mark as selected")
}
