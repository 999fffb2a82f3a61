package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/edit"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <agent> <script>",
	Short: "Apply a script of edit commands to an agent's flow",
	Long: `Opens an editor session, applies every command of the YAML or JSON script as one batch,
and saves the result. If any command is rejected nothing is saved.

Example script:

  - op: add_state
    as: faq
  - op: rename_state
    state: $faq
    new_name: faq
  - op: add_transition
    source: greeting
    target: faq
    description: user has a question`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID, scriptPath := args[0], args[1]

		cmds, err := edit.LoadScript(scriptPath)
		if err != nil {
			return err
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		mgr := e.manager()
		opened, err := mgr.Open(ctx, agentID)
		if err != nil {
			return err
		}

		snap, outcomes, err := mgr.Apply(ctx, opened.ID, cmds...)
		if err != nil {
			_ = mgr.Discard(ctx, opened.ID)
			return err
		}
		out := cmd.OutOrStdout()
		for _, o := range outcomes {
			fmt.Fprintf(out, "✓ %s %s\n", o.Op, o.State)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			fmt.Fprint(out, graph.GenerateMermaid(snap.Graph, nil))
			return mgr.Discard(ctx, snap.ID)
		}

		result, err := mgr.Save(ctx, snap.ID)
		if err != nil {
			return err
		}
		printDiff(out, result.Diff)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().Bool("dry-run", false, "Print the resulting graph instead of saving")
}

func printDiff(w io.Writer, diff *domain.DefinitionDiff) {
	if diff == nil {
		fmt.Fprintln(w, "No changes.")
		return
	}
	line := func(label string, names []string) {
		if len(names) > 0 {
			fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
		}
	}
	line("Added", diff.Added)
	line("Removed", diff.Removed)
	line("Modified", diff.Modified)
	if diff.StartingState != nil {
		fmt.Fprintf(w, "Starting state: %s\n", *diff.StartingState)
	}
}
