// Package executor materializes step scripts and runs them.
//
// Every step that executes commands gets two files under the part's
// run directory: environment.sh carrying the exports smelt
// contributes, and <step>.sh carrying the command lines. The
// subprocess inherits the ambient environment; everything smelt adds
// flows through environment.sh, so a failed step can be replayed by
// hand from the scripts left on disk.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smeltbuild/smelt/internal/layout"
	"github.com/smeltbuild/smelt/internal/logx"
	"github.com/smeltbuild/smelt/internal/states"
	"github.com/smeltbuild/smelt/parts"
	"github.com/smeltbuild/smelt/plugins"
)

// Executor runs step scripts against one project layout.
type Executor struct {
	layout   *layout.Project
	parallel int
}

// New returns an executor. parallel feeds SMELT_PARALLEL_BUILD_COUNT.
func New(l *layout.Project, parallel int) *Executor {
	if parallel < 1 {
		parallel = 1
	}
	return &Executor{layout: l, parallel: parallel}
}

// Run writes environment.sh and <step>.sh for the part, then executes
// the step script with the step's working directory as cwd, streaming
// tool output to the console.
func (e *Executor) Run(ctx context.Context, part *parts.Part, step states.Step, commands []string, env []plugins.EnvVar) error {
	runDir := e.layout.PartRun(part.Name)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	if err := e.writeEnvironment(runDir, part, env); err != nil {
		return err
	}
	script := filepath.Join(runDir, string(step)+".sh")
	if err := writeScript(script, filepath.Join(runDir, "environment.sh"), commands); err != nil {
		return err
	}

	cwd := e.cwdFor(part.Name, step)
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		return err
	}

	logx.Log.Debug().
		Str("part", part.Name).
		Str("step", string(step)).
		Str("script", script).
		Str("cwd", cwd).
		Msg("running step script")

	cmd := exec.CommandContext(ctx, script)
	cmd.Dir = cwd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s step of part %q failed: %w", step, part.Name, err)
	}

	logx.Log.Debug().
		Str("part", part.Name).
		Str("step", string(step)).
		Msg("step script finished")
	return nil
}

func (e *Executor) cwdFor(part string, step states.Step) string {
	switch step {
	case states.Pull:
		return e.layout.PartSrc(part)
	case states.Stage:
		return e.layout.Stage()
	case states.Prime:
		return e.layout.Prime()
	default:
		return e.layout.PartBuild(part)
	}
}

// writeEnvironment renders environment.sh: the SMELT_* family first,
// then the plugin exports, then the user's build-environment entries.
// Later exports win, so user entries override the plugin's.
func (e *Executor) writeEnvironment(runDir string, part *parts.Part, env []plugins.EnvVar) error {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")

	exports := []plugins.EnvVar{
		{Name: "SMELT_PART_NAME", Value: part.Name},
		{Name: "SMELT_PART_SRC", Value: e.layout.PartSrc(part.Name)},
		{Name: "SMELT_PART_BUILD", Value: e.layout.PartBuild(part.Name)},
		{Name: "SMELT_PART_INSTALL", Value: e.layout.PartInstall(part.Name)},
		{Name: "SMELT_STAGE", Value: e.layout.Stage()},
		{Name: "SMELT_PRIME", Value: e.layout.Prime()},
		{Name: "SMELT_PROJECT_DIR", Value: e.layout.Dir()},
		{Name: "SMELT_PARALLEL_BUILD_COUNT", Value: strconv.Itoa(e.parallel)},
	}
	exports = append(exports, env...)
	for _, kv := range part.BuildEnvironment {
		exports = append(exports, plugins.EnvVar{Name: kv.Key, Value: kv.Value})
	}

	// Values go out in plain double quotes so entries may reference
	// other variables, e.g. PATH="$PATH:/extra/bin".
	for _, ev := range exports {
		fmt.Fprintf(&b, "export %s=\"%s\"\n", ev.Name, ev.Value)
	}
	return os.WriteFile(filepath.Join(runDir, "environment.sh"), []byte(b.String()), 0o755)
}

func writeScript(path, envFile string, commands []string) error {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("set -euo pipefail\n")
	fmt.Fprintf(&b, "source %s\n", envFile)
	b.WriteString("set -x\n")
	for _, command := range commands {
		b.WriteString(command + "\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o755)
}
