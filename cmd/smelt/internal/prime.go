package internal

import (
	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/internal/states"
)

var primeCmd = &cobra.Command{
	Use:   "prime [part...]",
	Short: "Prime the final output tree",
	Long: `Prime runs the full lifecycle for the named parts, or every part,
filtering staged files into the prime tree ready for packing.`,
	RunE: runPrime,
}

func init() {
	rootCmd.AddCommand(primeCmd)
}

func runPrime(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, states.Prime, args)
}
