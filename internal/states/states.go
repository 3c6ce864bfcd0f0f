// Package states persists the record each executed step leaves behind
// and decides whether a step needs to run again.
package states

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smeltbuild/smelt/parts"
)

// Step is one stage of a part's lifecycle.
type Step string

const (
	Pull  Step = "pull"
	Build Step = "build"
	Stage Step = "stage"
	Prime Step = "prime"
)

// Sequence returns the steps to execute, in order, to reach target.
func Sequence(target Step) []Step {
	all := []Step{Pull, Build, Stage, Prime}
	for i, step := range all {
		if step == target {
			return all[:i+1]
		}
	}
	return nil
}

// ParseStep validates a step name.
func ParseStep(name string) (Step, error) {
	step := Step(name)
	switch step {
	case Pull, Build, Stage, Prime:
		return step, nil
	}
	return "", fmt.Errorf("unknown step %q", name)
}

// State is the durable record of one executed step.
type State struct {
	ExecutionID    string            `yaml:"execution-id"`
	PartProperties map[string]string `yaml:"part-properties,omitempty"`
	ProjectOptions map[string]string `yaml:"project-options,omitempty"`
	Files          []string          `yaml:"files,omitempty"`
	Directories    []string          `yaml:"directories,omitempty"`
}

// Save writes the state record at path, creating parents.
func Save(path string, state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads the state record at path. An absent file is not an error;
// it loads as a nil state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", path, err)
	}
	return &state, nil
}

// Remove deletes the state record at path if present.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// PropertiesOfInterest narrows a part's declaration down to the
// properties whose change invalidates the given step.
func PropertiesOfInterest(part *parts.Part, step Step) (map[string]string, error) {
	switch step {
	case Pull:
		return map[string]string{
			"source":        part.Source,
			"source-type":   part.SourceType,
			"source-branch": part.SourceBranch,
			"source-tag":    part.SourceTag,
			"source-commit": part.SourceCommit,
			"source-depth":  strconv.Itoa(part.SourceDepth),
			"override-pull": part.OverridePull,
		}, nil
	case Build:
		var snapshot []string
		if part.Options != nil {
			var err error
			snapshot, err = part.Options.Snapshot()
			if err != nil {
				return nil, err
			}
		}
		return map[string]string{
			"plugin":            part.Plugin,
			"options":           strings.Join(snapshot, "\n"),
			"build-environment": joinEnv(part.BuildEnvironment),
			"override-build":    part.OverrideBuild,
		}, nil
	case Stage:
		return map[string]string{
			"stage":          strings.Join(part.StageFiles, "\n"),
			"override-stage": part.OverrideStage,
		}, nil
	case Prime:
		return map[string]string{
			"prime":          strings.Join(part.PrimeFiles, "\n"),
			"override-prime": part.OverridePrime,
		}, nil
	}
	return nil, fmt.Errorf("unknown step %q", step)
}

func joinEnv(env []parts.KV) string {
	entries := make([]string, len(env))
	for i, kv := range env {
		entries[i] = kv.Key + "=" + kv.Value
	}
	return strings.Join(entries, "\n")
}

// Diff returns the keys whose values differ between two property maps,
// sorted. A nil map and a map of empty values compare equal.
func Diff(saved, current map[string]string) []string {
	keys := make(map[string]bool, len(saved)+len(current))
	for k := range saved {
		keys[k] = true
	}
	for k := range current {
		keys[k] = true
	}

	var out []string
	for k := range keys {
		if saved[k] != current[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
