// Package parts models the project file: named parts in declaration
// order, their sources, plugin keywords, stage/prime filters and
// permissions. Declaration order is execution order; the 'after'
// keyword only asserts that its targets were declared earlier.
package parts

// Part is one named unit of build configuration.
type Part struct {
	Name   string
	Plugin string

	Source       string
	SourceType   string
	SourceBranch string
	SourceTag    string
	SourceCommit string
	SourceDepth  int

	After []string

	// BuildEnvironment entries are exported into the build script in
	// declaration order, after the plugin's own environment.
	BuildEnvironment []KV

	OverridePull  string
	OverrideBuild string
	OverrideStage string
	OverridePrime string

	// StageFiles and PrimeFiles are fileset filters; empty means
	// everything.
	StageFiles []string
	PrimeFiles []string

	Permissions []Permissions

	// Options holds the plugin-prefixed keywords.
	Options *Options
}

// Project is a loaded parts.yaml.
type Project struct {
	Parts      []*Part
	Partitions []string
}

// Part returns the named part, or nil.
func (pr *Project) Part(name string) *Part {
	for _, p := range pr.Parts {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Names returns the part names in declaration order.
func (pr *Project) Names() []string {
	names := make([]string, len(pr.Parts))
	for i, p := range pr.Parts {
		names[i] = p.Name
	}
	return names
}
