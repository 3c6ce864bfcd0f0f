package internal

import (
	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/internal/states"
)

var stageCmd = &cobra.Command{
	Use:   "stage [part...]",
	Short: "Stage part outputs into the shared tree",
	Long: `Stage runs every step up to stage for the named parts, or every part,
hard-linking install outputs into the shared stage tree.`,
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, states.Stage, args)
}
