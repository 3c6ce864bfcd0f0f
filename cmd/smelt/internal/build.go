package internal

import (
	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/internal/states"
)

var buildCmd = &cobra.Command{
	Use:   "build [part...]",
	Short: "Build parts and collect their outputs",
	Long: `Build pulls and builds the named parts, or every part. Outputs are
normalized into each part's install directory.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, states.Build, args)
}
