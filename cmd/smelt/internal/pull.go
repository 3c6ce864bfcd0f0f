package internal

import (
	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/internal/states"
)

var pullCmd = &cobra.Command{
	Use:   "pull [part...]",
	Short: "Download or copy part sources",
	Long:  `Pull retrieves the sources of the named parts, or of every part.`,
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, states.Pull, args)
}
