// Package layout owns every path the tool touches under a project:
// per-part work directories, the shared stage, prime and backstage
// trees, and their partition-aware variants.
package layout

import (
	"os"
	"path/filepath"

	"github.com/smeltbuild/smelt/internal/partition"
)

// Project resolves paths for one project directory. The work tree
// defaults to the project directory itself and can be redirected.
type Project struct {
	dir        string
	workDir    string
	partitions []string
}

type Option func(*Project)

// WithWorkDir redirects the work tree (parts, stage, prime, backstage)
// away from the project directory.
func WithWorkDir(dir string) Option {
	return func(p *Project) {
		if dir != "" {
			p.workDir = dir
		}
	}
}

// WithPartitions enables partition-aware stage and prime trees.
// The first partition owns the base directories.
func WithPartitions(names []string) Option {
	return func(p *Project) { p.partitions = names }
}

func New(projectDir string, opts ...Option) *Project {
	p := &Project{dir: projectDir, workDir: projectDir}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Project) Dir() string           { return p.dir }
func (p *Project) WorkDir() string       { return p.workDir }
func (p *Project) Partitions() []string  { return p.partitions }
func (p *Project) PartsDir() string      { return filepath.Join(p.workDir, "parts") }
func (p *Project) Backstage() string     { return filepath.Join(p.workDir, "backstage") }
func (p *Project) PartDir(part string) string { return filepath.Join(p.PartsDir(), part) }

func (p *Project) PartSrc(part string) string     { return filepath.Join(p.PartDir(part), "src") }
func (p *Project) PartBuild(part string) string   { return filepath.Join(p.PartDir(part), "build") }
func (p *Project) PartInstall(part string) string { return filepath.Join(p.PartDir(part), "install") }
func (p *Project) PartRun(part string) string     { return filepath.Join(p.PartDir(part), "run") }

func (p *Project) PartStateDir(part string) string {
	return filepath.Join(p.PartDir(part), "state")
}

func (p *Project) PartState(part, step string) string {
	return filepath.Join(p.PartStateDir(part), step)
}

// Stage returns the default partition's stage directory.
func (p *Project) Stage() string { return p.StageFor("") }

// Prime returns the default partition's prime directory.
func (p *Project) Prime() string { return p.PrimeFor("") }

// StageFor returns the stage directory of the named partition.
// The empty name means the default (first) partition.
func (p *Project) StageFor(name string) string {
	return p.sharedFor(name, "stage")
}

// PrimeFor returns the prime directory of the named partition.
func (p *Project) PrimeFor(name string) string {
	return p.sharedFor(name, "prime")
}

func (p *Project) sharedFor(name, suffix string) string {
	m := partition.DirMap(p.workDir, p.partitions, suffix)
	if name == "" && len(p.partitions) > 0 {
		name = p.partitions[0]
	}
	return m[name]
}

// MkPartDirs creates a part's work directories.
func (p *Project) MkPartDirs(part string) error {
	for _, dir := range []string{
		p.PartSrc(part),
		p.PartBuild(part),
		p.PartInstall(part),
		p.PartRun(part),
		p.PartStateDir(part),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// MkSharedDirs creates the stage, prime and backstage trees, including
// every partition's variant.
func (p *Project) MkSharedDirs() error {
	dirs := []string{p.Backstage()}
	for _, m := range []map[string]string{
		partition.DirMap(p.workDir, p.partitions, "stage"),
		partition.DirMap(p.workDir, p.partitions, "prime"),
	} {
		for _, dir := range m {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// CleanPart removes a part's work directories.
func (p *Project) CleanPart(part string) error {
	return os.RemoveAll(p.PartDir(part))
}

// CleanAll removes every work directory the tool owns. The project
// directory itself is never removed, even when it doubles as work dir.
func (p *Project) CleanAll() error {
	dirs := []string{p.PartsDir(), p.Backstage()}
	for _, m := range []map[string]string{
		partition.DirMap(p.workDir, p.partitions, "stage"),
		partition.DirMap(p.workDir, p.partitions, "prime"),
	} {
		for _, dir := range m {
			dirs = append(dirs, dir)
		}
	}
	if len(p.partitions) > 0 {
		dirs = append(dirs, filepath.Join(p.workDir, "partitions"))
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}
