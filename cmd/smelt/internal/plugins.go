package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smeltbuild/smelt/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the registered plugins and their keywords",
	RunE:  runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	summary, err := pluginSummary()
	if err != nil {
		return err
	}
	fmt.Print(summary)
	return nil
}

func pluginSummary() (string, error) {
	var b strings.Builder
	for _, name := range plugins.Names() {
		p, err := plugins.Lookup(name)
		if err != nil {
			return "", err
		}
		fmt.Fprintln(&b, name)
		for _, kw := range p.Keywords() {
			if kw.Default != "" {
				fmt.Fprintf(&b, "  %s (%s, default %q)\n", kw.Name, kw.Type, kw.Default)
			} else {
				fmt.Fprintf(&b, "  %s (%s)\n", kw.Name, kw.Type)
			}
		}
	}
	return b.String(), nil
}
