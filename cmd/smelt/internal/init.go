package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter parts.yaml",
	Long:  `Init writes a minimal parts.yaml into the project directory.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterParts = `parts:
  app:
    plugin: maven
    source: .
    maven-parameters:
      - -DskipTests
`

func runInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(flagProjectDir, PartsFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := os.WriteFile(path, []byte(starterParts), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}
