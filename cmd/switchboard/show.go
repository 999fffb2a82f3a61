package main

import (
	"fmt"
	"os"

	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Print an agent's states, prompts and transitions",
	Long:  `Renders the stored definition as Markdown. On a terminal the output is styled with glamour.`,
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

		plain, _ := cmd.Flags().GetBool("plain")
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plain = true
		}
		render := tui.NewRenderer(plain)
		out, err := render(tui.DefinitionMarkdown(args[0], def))
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("plain", false, "Print raw Markdown even on a terminal")
}
