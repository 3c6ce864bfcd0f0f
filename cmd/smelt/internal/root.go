package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/internal/config"
	"github.com/smeltbuild/smelt/internal/layout"
	"github.com/smeltbuild/smelt/internal/lifecycle"
	"github.com/smeltbuild/smelt/internal/logx"
	"github.com/smeltbuild/smelt/internal/states"
	"github.com/smeltbuild/smelt/parts"

	_ "github.com/smeltbuild/smelt/plugins/ant"
	_ "github.com/smeltbuild/smelt/plugins/maven"
)

// PartsFile is the project file name looked up in the project directory.
const PartsFile = "parts.yaml"

var (
	flagProjectDir string
	flagWorkDir    string
	flagVerbosity  string
	flagNoColor    bool
)

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "smelt",
	Short: "smelt builds Java parts with Maven and Ant",
	Long: `smelt reads a parts.yaml describing named parts and drives each one
through pull, build, stage and prime, collecting the build outputs
into a shared tree.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProjectDir, "project-dir", "p", ".", "Directory containing parts.yaml")
	pf.StringVar(&flagWorkDir, "work-dir", "", "Directory for part work areas (default: the project directory)")
	pf.StringVar(&flagVerbosity, "verbosity", "", "Log level: trace, debug, info, warn or error")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored progress output")
}

// Execute runs the root command. It is called by main.main() and is the
// single exit point for command errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Log.Error().Msg(err.Error())
		os.Exit(1)
	}
}

// loadConfig merges defaults, smelt.toml, environment and flags, then
// configures logging once for the whole invocation.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagProjectDir, "")
	if err != nil {
		return err
	}
	if flagWorkDir != "" {
		loaded.WorkDir = flagWorkDir
	}
	if flagVerbosity != "" {
		loaded.LogLevel = flagVerbosity
	}
	if flagNoColor {
		loaded.NoColor = true
	}
	cfg = loaded

	logx.Configure(cfg.LogLevel)
	if cfg.NoColor {
		color.NoColor = true
	}
	return nil
}

// setup loads the project and wires the lifecycle manager for it.
func setup() (*lifecycle.Manager, error) {
	project, err := parts.LoadProject(filepath.Join(flagProjectDir, PartsFile))
	if err != nil {
		return nil, err
	}

	opts := []layout.Option{layout.WithPartitions(project.Partitions)}
	if cfg.WorkDir != "" {
		workDir := cfg.WorkDir
		if !filepath.IsAbs(workDir) {
			workDir = filepath.Join(flagProjectDir, workDir)
		}
		opts = append(opts, layout.WithWorkDir(workDir))
	}
	lay := layout.New(flagProjectDir, opts...)

	features := lifecycle.Features{Partitions: len(project.Partitions) > 0}
	return lifecycle.NewManager(project, lay, cfg, features, lifecycle.WithReporter(progress))
}

// runLifecycle is the shared body of the step commands.
func runLifecycle(cmd *cobra.Command, target states.Step, args []string) error {
	m, err := setup()
	if err != nil {
		return err
	}
	return m.Run(cmd.Context(), target, args...)
}

func progress(part string, step states.Step, skipped bool) {
	if skipped {
		fmt.Printf("%s %s: %s (up to date)\n", color.YellowString("-"), part, step)
		return
	}
	fmt.Printf("%s %s: %s\n", color.GreenString("✔"), part, step)
}
