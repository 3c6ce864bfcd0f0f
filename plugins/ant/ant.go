// Package ant builds parts with Apache Ant.
package ant

import (
	"fmt"
	"strings"

	"github.com/smeltbuild/smelt/internal/java"
	"github.com/smeltbuild/smelt/parts"
	"github.com/smeltbuild/smelt/plugins"
)

// defaultBuildFile is ant's own default. It is advertised through the
// keyword schema but never passed on the command line; -f appears only
// when the part sets ant-build-file explicitly.
const defaultBuildFile = "build.xml"

type plugin struct{}

func init() {
	plugins.Register(plugin{})
}

func (plugin) Name() string { return "ant" }

func (plugin) Keywords() []plugins.Keyword {
	return []plugins.Keyword{
		{Name: "ant-build-targets", Type: plugins.StringListKeyword},
		{Name: "ant-build-file", Type: plugins.StringKeyword, Default: defaultBuildFile},
		{Name: "ant-properties", Type: plugins.StringMapKeyword},
	}
}

func (p plugin) Validate(opts *parts.Options) error {
	return plugins.ValidateOptions(p.Name(), p.Keywords(), opts)
}

func (plugin) Environment(ctx *plugins.Context) ([]plugins.EnvVar, error) {
	return java.BuildEnv(ctx, true)
}

func (plugin) ToolPath(ctx *plugins.Context) (string, error) {
	return plugins.LocateTool(ctx, "ant")
}

func (plugin) Commands(ctx *plugins.Context) ([]string, error) {
	cmd := []string{"ant"}

	targets, err := ctx.Options.StringList("ant-build-targets")
	if err != nil {
		return nil, err
	}
	cmd = append(cmd, targets...)

	if ctx.Options.Has("ant-build-file") {
		file, err := ctx.Options.String("ant-build-file", defaultBuildFile)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, "-f", file)
	}

	props, err := ctx.Options.Pairs("ant-properties")
	if err != nil {
		return nil, err
	}
	for _, prop := range props {
		cmd = append(cmd, fmt.Sprintf("-D%s=%s", prop.Key, prop.Value))
	}

	return []string{strings.Join(cmd, " ")}, nil
}

func (plugin) NormalizeOutputs(ctx *plugins.Context) error {
	home, err := java.Home(ctx.JavaRoots)
	if err != nil {
		return err
	}
	return java.NormalizeOutputs(ctx.BuildDir, ctx.InstallDir, home)
}
