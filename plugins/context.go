package plugins

import "github.com/smeltbuild/smelt/parts"

// Context is the read-only view one plugin invocation receives. The
// lifecycle constructs it per part and step; plugins never mutate it,
// and concurrent invocations of different parts hold disjoint contexts.
type Context struct {
	// PartName is the part being built.
	PartName string

	// Options holds the part's plugin-prefixed keywords.
	Options *parts.Options

	// SrcDir, BuildDir and InstallDir are the part's work directories.
	// The tool runs in BuildDir; normalized outputs land in InstallDir.
	SrcDir     string
	BuildDir   string
	InstallDir string

	// StageDir and BackstageDir are the shared trees populated by
	// earlier parts.
	StageDir     string
	BackstageDir string

	// Env is the ambient environment snapshot the build will run
	// under. Plugins read proxy settings and the search path from it.
	Env map[string]string

	// Parallel is the advertised parallel build count.
	Parallel int

	// StagedParts names the parts whose outputs are already in
	// StageDir, in the order they were staged.
	StagedParts []string

	// JavaRoots overrides the JDK discovery roots. Empty means the
	// platform default.
	JavaRoots []string
}

// Staged reports whether the named part's outputs are in StageDir.
func (c *Context) Staged(part string) bool {
	for _, name := range c.StagedParts {
		if name == part {
			return true
		}
	}
	return false
}
