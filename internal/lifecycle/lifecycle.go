// Package lifecycle drives parts through the pull, build, stage and
// prime steps. Each step's inputs are recorded in a state file; a step
// whose recorded state still matches is skipped, and re-running a step
// withdraws everything built on top of it first.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smeltbuild/smelt/internal/config"
	"github.com/smeltbuild/smelt/internal/executor"
	"github.com/smeltbuild/smelt/internal/filesets"
	"github.com/smeltbuild/smelt/internal/layout"
	"github.com/smeltbuild/smelt/internal/logx"
	"github.com/smeltbuild/smelt/internal/migration"
	"github.com/smeltbuild/smelt/internal/partition"
	"github.com/smeltbuild/smelt/internal/source"
	"github.com/smeltbuild/smelt/internal/states"
	"github.com/smeltbuild/smelt/parts"
	"github.com/smeltbuild/smelt/plugins"
)

// Features toggles optional project capabilities.
type Features struct {
	// Partitions permits a partitions list in the project file.
	Partitions bool
}

// Reporter receives a line per part and step, after the step ran or was
// skipped. The CLI uses it for progress output.
type Reporter func(part string, step states.Step, skipped bool)

// Option configures a Manager.
type Option func(*Manager)

// WithReporter installs a progress callback.
func WithReporter(r Reporter) Option {
	return func(m *Manager) { m.reporter = r }
}

// WithJavaRoots overrides the JDK discovery roots for every plugin
// invocation.
func WithJavaRoots(roots ...string) Option {
	return func(m *Manager) { m.javaRoots = roots }
}

// Manager runs a loaded project against its work area.
type Manager struct {
	project   *parts.Project
	layout    *layout.Project
	cfg       *config.Config
	features  Features
	exec      *executor.Executor
	reporter  Reporter
	javaRoots []string
}

// NewManager validates the project against the registered plugins and
// returns a manager for it. Validation failures name the part.
func NewManager(project *parts.Project, lay *layout.Project, cfg *config.Config, features Features, opts ...Option) (*Manager, error) {
	if err := partition.Validate(project.Partitions, features.Partitions); err != nil {
		return nil, err
	}

	m := &Manager{
		project:  project,
		layout:   lay,
		cfg:      cfg,
		features: features,
		exec:     executor.New(lay, cfg.Parallel),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, part := range project.Parts {
		p, err := m.pluginFor(part)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(part.Options); err != nil {
			return nil, fmt.Errorf("part %q: %w", part.Name, err)
		}
	}
	return m, nil
}

// pluginFor resolves a part's plugin; parts without one get the nil
// plugin so they can still pull and stage.
func (m *Manager) pluginFor(part *parts.Part) (plugins.Plugin, error) {
	name := part.Plugin
	if name == "" {
		name = "nil"
	}
	p, err := plugins.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", part.Name, err)
	}
	return p, nil
}

// Run executes every step up to target for the selected parts, all
// parts when names is empty. Each part completes the whole sequence
// before the next starts, so a dependency part declared earlier is
// fully staged by the time a later part builds against it.
func (m *Manager) Run(ctx context.Context, target states.Step, names ...string) error {
	sel, err := m.selectParts(names)
	if err != nil {
		return err
	}
	if err := m.layout.MkSharedDirs(); err != nil {
		return err
	}

	execID := uuid.NewString()
	logger := logx.Log.With().Str("execution", execID).Logger()
	logger.Debug().Str("target", string(target)).Msg("starting run")

	for _, part := range sel {
		for _, step := range states.Sequence(target) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.runStep(ctx, logger, execID, part, step); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clean withdraws the selected parts' stage and prime contributions and
// removes their work directories, in reverse declaration order. With no
// names the whole work area goes.
func (m *Manager) Clean(ctx context.Context, names ...string) error {
	sel, err := m.selectParts(names)
	if err != nil {
		return err
	}
	for i := len(sel) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		part := sel[i]
		if err := m.invalidateFrom(part, states.Pull); err != nil {
			return err
		}
		if err := m.layout.CleanPart(part.Name); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return m.layout.CleanAll()
	}
	return nil
}

func (m *Manager) runStep(ctx context.Context, logger zerolog.Logger, execID string, part *parts.Part, step states.Step) error {
	statePath := m.layout.PartState(part.Name, string(step))
	saved, err := states.Load(statePath)
	if err != nil {
		return err
	}
	props, err := states.PropertiesOfInterest(part, step)
	if err != nil {
		return fmt.Errorf("part %q: %w", part.Name, err)
	}
	options := m.projectOptions()

	if saved != nil {
		changed := states.Diff(saved.PartProperties, props)
		changed = append(changed, states.Diff(saved.ProjectOptions, options)...)
		if len(changed) == 0 {
			logger.Debug().Str("part", part.Name).Str("step", string(step)).Msg("already up to date")
			m.report(part.Name, step, true)
			return nil
		}
		logger.Debug().Str("part", part.Name).Str("step", string(step)).
			Strs("changed", changed).Msg("recorded state is stale")
	}

	// Re-running a step invalidates it and everything after it.
	if err := m.invalidateFrom(part, step); err != nil {
		return err
	}
	if err := m.layout.MkPartDirs(part.Name); err != nil {
		return err
	}

	logger.Info().Str("part", part.Name).Str("step", string(step)).Msg("running step")

	state := &states.State{ExecutionID: execID, PartProperties: props, ProjectOptions: options}
	switch step {
	case states.Pull:
		err = m.pull(ctx, part)
	case states.Build:
		err = m.build(ctx, logger, part)
	case states.Stage:
		state.Files, state.Directories, err = m.stage(ctx, part)
	case states.Prime:
		state.Files, state.Directories, err = m.prime(ctx, part)
	default:
		err = fmt.Errorf("unknown step %q", step)
	}
	if err != nil {
		return err
	}

	if err := states.Save(statePath, state); err != nil {
		return err
	}
	m.report(part.Name, step, false)
	return nil
}

// invalidateFrom undoes step and every later step for the part, latest
// first, so stale stage and prime contributions are withdrawn before
// the step runs again.
func (m *Manager) invalidateFrom(part *parts.Part, step states.Step) error {
	all := states.Sequence(states.Prime)
	for i := len(all) - 1; i >= 0; i-- {
		if err := m.undoStep(part, all[i]); err != nil {
			return err
		}
		if all[i] == step {
			break
		}
	}
	return nil
}

func (m *Manager) undoStep(part *parts.Part, step states.Step) error {
	statePath := m.layout.PartState(part.Name, string(step))
	st, err := states.Load(statePath)
	if err != nil {
		return err
	}

	switch step {
	case states.Pull:
		if err := os.RemoveAll(m.layout.PartSrc(part.Name)); err != nil {
			return err
		}
	case states.Build:
		if err := os.RemoveAll(m.layout.PartBuild(part.Name)); err != nil {
			return err
		}
		if err := os.RemoveAll(m.layout.PartInstall(part.Name)); err != nil {
			return err
		}
	case states.Stage:
		if st != nil {
			if err := migration.Unmigrate(m.layout.Stage(), st.Files, st.Directories); err != nil {
				return err
			}
		}
	case states.Prime:
		if st != nil {
			if err := migration.Unmigrate(m.layout.Prime(), st.Files, st.Directories); err != nil {
				return err
			}
		}
	}
	return states.Remove(statePath)
}

func (m *Manager) pull(ctx context.Context, part *parts.Part) error {
	if part.OverridePull != "" {
		return m.exec.Run(ctx, part, states.Pull, []string{part.OverridePull}, nil)
	}
	if part.Source == "" {
		return nil
	}
	handler, err := source.Detect(m.layout.Dir(), part, m.sourceIgnore())
	if err != nil {
		return err
	}
	return handler.Pull(ctx, m.layout.PartSrc(part.Name))
}

// sourceIgnore lists the trees the tool owns, kept out of local source
// copies when the project directory doubles as a source.
func (m *Manager) sourceIgnore() []string {
	if m.layout.WorkDir() != m.layout.Dir() {
		return []string{m.layout.WorkDir()}
	}
	ig := []string{
		m.layout.PartsDir(),
		m.layout.Backstage(),
		m.layout.Stage(),
		m.layout.Prime(),
	}
	if len(m.layout.Partitions()) > 0 {
		ig = append(ig, filepath.Join(m.layout.WorkDir(), "partitions"))
	}
	return ig
}

func (m *Manager) build(ctx context.Context, logger zerolog.Logger, part *parts.Part) error {
	p, err := m.pluginFor(part)
	if err != nil {
		return err
	}
	pctx := m.pluginContext(part)

	env, err := p.Environment(pctx)
	if err != nil {
		return fmt.Errorf("part %q: %w", part.Name, err)
	}
	tool, err := p.ToolPath(pctx)
	if err != nil {
		return fmt.Errorf("part %q: %w", part.Name, err)
	}
	if tool != "" {
		logger.Debug().Str("part", part.Name).Str("tool", tool).Msg("located build tool")
	}

	commands := []string{part.OverrideBuild}
	if part.OverrideBuild == "" {
		commands, err = p.Commands(pctx)
		if err != nil {
			return fmt.Errorf("part %q: %w", part.Name, err)
		}
	}

	if err := m.mirrorSource(ctx, part); err != nil {
		return err
	}

	// Staged tools come first on the script's search path.
	env = append(env, plugins.EnvVar{
		Name: "PATH",
		Value: filepath.Join(m.layout.Stage(), "bin") + ":" +
			filepath.Join(m.layout.Stage(), "usr", "bin") + ":$PATH",
	})

	if err := m.exec.Run(ctx, part, states.Build, commands, env); err != nil {
		return err
	}

	if err := p.NormalizeOutputs(pctx); err != nil {
		return fmt.Errorf("part %q: %w", part.Name, err)
	}
	return nil
}

// mirrorSource hard-links the pulled source into the build directory so
// the tool never modifies the pristine copy.
func (m *Manager) mirrorSource(ctx context.Context, part *parts.Part) error {
	src := source.NewLocal(m.layout.PartSrc(part.Name))
	if err := src.Pull(ctx, m.layout.PartBuild(part.Name)); err != nil {
		return fmt.Errorf("part %q: %w", part.Name, err)
	}
	return nil
}

func (m *Manager) stage(ctx context.Context, part *parts.Part) ([]string, []string, error) {
	if part.OverrideStage != "" {
		return nil, nil, m.exec.Run(ctx, part, states.Stage, []string{part.OverrideStage}, nil)
	}
	set, err := filesets.New(part.StageFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("part %q: stage: %w", part.Name, err)
	}

	install := m.layout.PartInstall(part.Name)
	allFiles, allDirs, err := migration.Collect(install)
	if err != nil {
		return nil, nil, err
	}
	files, dirs := set.Apply(allFiles, allDirs)

	if err := m.checkStagePermissions(part, files); err != nil {
		return nil, nil, err
	}
	if err := migration.MigratePaths(install, m.layout.Stage(), files, dirs, part.Permissions); err != nil {
		return nil, nil, fmt.Errorf("part %q: %w", part.Name, err)
	}
	return files, dirs, nil
}

// checkStagePermissions refuses to stage a file that another part has
// already staged under a different ownership or mode, even when the
// bytes agree.
func (m *Manager) checkStagePermissions(part *parts.Part, files []string) error {
	if len(part.Permissions) == 0 {
		return nil
	}
	for _, other := range m.project.Parts {
		if other.Name == part.Name || len(other.Permissions) == 0 {
			continue
		}
		st, err := states.Load(m.layout.PartState(other.Name, string(states.Stage)))
		if err != nil {
			return err
		}
		if st == nil {
			continue
		}
		staged := make(map[string]bool, len(st.Files))
		for _, f := range st.Files {
			staged[f] = true
		}
		for _, f := range files {
			if !staged[f] {
				continue
			}
			mine := parts.FilterPermissions(f, part.Permissions)
			theirs := parts.FilterPermissions(f, other.Permissions)
			if !parts.PermissionsAreCompatible(mine, theirs) {
				return fmt.Errorf("parts %q and %q stage %s with incompatible permissions",
					part.Name, other.Name, f)
			}
		}
	}
	return nil
}

func (m *Manager) prime(ctx context.Context, part *parts.Part) ([]string, []string, error) {
	if part.OverridePrime != "" {
		return nil, nil, m.exec.Run(ctx, part, states.Prime, []string{part.OverridePrime}, nil)
	}
	st, err := states.Load(m.layout.PartState(part.Name, string(states.Stage)))
	if err != nil {
		return nil, nil, err
	}
	if st == nil {
		return nil, nil, fmt.Errorf("part %q has not been staged", part.Name)
	}
	set, err := filesets.New(part.PrimeFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("part %q: prime: %w", part.Name, err)
	}
	files, dirs := set.Apply(st.Files, st.Directories)
	if err := migration.MigratePaths(m.layout.Stage(), m.layout.Prime(), files, dirs, part.Permissions); err != nil {
		return nil, nil, fmt.Errorf("part %q: %w", part.Name, err)
	}
	return files, dirs, nil
}

func (m *Manager) pluginContext(part *parts.Part) *plugins.Context {
	return &plugins.Context{
		PartName:     part.Name,
		Options:      part.Options,
		SrcDir:       m.layout.PartSrc(part.Name),
		BuildDir:     m.layout.PartBuild(part.Name),
		InstallDir:   m.layout.PartInstall(part.Name),
		StageDir:     m.layout.Stage(),
		BackstageDir: m.layout.Backstage(),
		Env:          environMap(),
		Parallel:     m.cfg.Parallel,
		StagedParts:  m.stagedParts(),
		JavaRoots:    m.javaRoots,
	}
}

// stagedParts lists parts whose stage state is on disk, in declaration
// order. Contributions recorded by earlier runs count.
func (m *Manager) stagedParts() []string {
	var staged []string
	for _, p := range m.project.Parts {
		if _, err := os.Stat(m.layout.PartState(p.Name, string(states.Stage))); err == nil {
			staged = append(staged, p.Name)
		}
	}
	return staged
}

func (m *Manager) projectOptions() map[string]string {
	return map[string]string{"partitions": strings.Join(m.project.Partitions, ",")}
}

func (m *Manager) selectParts(names []string) ([]*parts.Part, error) {
	if len(names) == 0 {
		return m.project.Parts, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if m.project.Part(name) == nil {
			return nil, fmt.Errorf("unknown part %q", name)
		}
		want[name] = true
	}
	var sel []*parts.Part
	for _, p := range m.project.Parts {
		if want[p.Name] {
			sel = append(sel, p)
		}
	}
	return sel, nil
}

func (m *Manager) report(name string, step states.Step, skipped bool) {
	if m.reporter != nil {
		m.reporter(name, step, skipped)
	}
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
