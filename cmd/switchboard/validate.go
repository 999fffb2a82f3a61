package main

import (
	"fmt"

	"github.com/aretw0/switchboard/pkg/transform"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <agent>",
	Short: "Check an agent's stored definition for consistency",
	Long: `Loads the agent's definition the way an editor session would and lists every repair
it needed: blank or duplicate state names, transitions to missing states, and an unknown
starting state. Exits with an error when any repair was necessary.`,
	Args: cobra.ExactArgs(1),
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

		_, report := transform.ToGraph(def)
		if report.Clean() {
			fmt.Fprintf(cmd.OutOrStdout(), "Definition of %s is valid! ✅\n", args[0])
			return nil
		}
		for _, issue := range report.Issues {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", issue)
		}
		return fmt.Errorf("validation failed: %d repair(s) needed", len(report.Issues))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
