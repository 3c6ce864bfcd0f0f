// Package maven builds parts with Apache Maven. It expects a pom.xml
// at the root of the source tree and runs the package phase.
package maven

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/smeltbuild/smelt/internal/java"
	"github.com/smeltbuild/smelt/parts"
	"github.com/smeltbuild/smelt/plugins"
)

// settingsRel is where the generated settings file lands, relative to
// the part build directory.
const settingsRel = ".parts/.m2/settings.xml"

type plugin struct{}

func init() {
	plugins.Register(plugin{})
}

func (plugin) Name() string { return "maven" }

func (plugin) Keywords() []plugins.Keyword {
	return []plugins.Keyword{
		{Name: "maven-parameters", Type: plugins.StringListKeyword},
	}
}

func (p plugin) Validate(opts *parts.Options) error {
	return plugins.ValidateOptions(p.Name(), p.Keywords(), opts)
}

func (plugin) Environment(ctx *plugins.Context) ([]plugins.EnvVar, error) {
	return java.BuildEnv(ctx, false)
}

func (plugin) ToolPath(ctx *plugins.Context) (string, error) {
	return plugins.LocateTool(ctx, "mvn")
}

func (plugin) Commands(ctx *plugins.Context) ([]string, error) {
	cmd := []string{"mvn", "package"}

	if useProxy(ctx.Env) || backstageRepo(ctx) != "" {
		settings := filepath.Join(ctx.BuildDir, settingsRel)
		if err := writeSettings(settings, ctx); err != nil {
			return nil, err
		}
		cmd = append(cmd, "-s", settings)
	}

	params, err := ctx.Options.StringList("maven-parameters")
	if err != nil {
		return nil, err
	}
	cmd = append(cmd, params...)

	return []string{strings.Join(cmd, " ")}, nil
}

func (plugin) NormalizeOutputs(ctx *plugins.Context) error {
	home, err := java.Home(ctx.JavaRoots)
	if err != nil {
		return err
	}
	return java.NormalizeOutputs(ctx.BuildDir, ctx.InstallDir, home)
}

func useProxy(env map[string]string) bool {
	_, http := env["http_proxy"]
	_, https := env["https_proxy"]
	return http || https
}

// backstageRepo returns the shared Maven repository directory exposed
// by earlier parts, or "" when there is none.
func backstageRepo(ctx *plugins.Context) string {
	if ctx.BackstageDir == "" {
		return ""
	}
	dir := filepath.Join(ctx.BackstageDir, "maven-use")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// proxyFromURL builds one settings proxy block from an ambient proxy
// variable.
func proxyFromURL(protocol, raw string, env map[string]string) (proxy, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return proxy{}, fmt.Errorf("failed to parse %s_proxy: %w", protocol, err)
	}
	p := proxy{
		ID:            protocol + "_proxy",
		Active:        true,
		Protocol:      protocol,
		Host:          parsed.Hostname(),
		Port:          parsed.Port(),
		NonProxyHosts: nonProxyHosts(env),
	}
	if user := parsed.User; user != nil {
		password, _ := user.Password()
		p.Username = user.Username()
		p.Password = &password
	}
	return p, nil
}

func nonProxyHosts(env map[string]string) string {
	raw, ok := env["no_proxy"]
	if !ok {
		raw = "localhost"
	}
	hosts := strings.Split(raw, ",")
	for i, host := range hosts {
		hosts[i] = strings.TrimSpace(host)
	}
	return strings.Join(hosts, "|")
}
