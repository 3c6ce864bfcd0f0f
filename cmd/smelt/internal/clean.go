package internal

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [part...]",
	Short: "Remove part work areas and their staged output",
	Long: `Clean withdraws the named parts' contributions from the stage and
prime trees and removes their work directories. With no parts the
whole work area is removed.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	m, err := setup()
	if err != nil {
		return err
	}
	return m.Clean(cmd.Context(), args...)
}
