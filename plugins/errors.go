package plugins

import "fmt"

// MissingToolError reports that no usable installation of a runtime
// the plugin requires was discovered in the build environment.
type MissingToolError struct {
	Tool string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("no %s installation found in the build environment", e.Tool)
}

// ToolNotFoundError reports that the build tool executable is absent
// from both the dependency-staging path and the search path.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("cannot find the %q executable: stage it through a %q part or install it on the search path",
		e.Tool, e.Tool+"-deps")
}

// OutputCollisionError reports a name collision between outputs with
// differing content. Identical content is treated as idempotent and
// never raises this.
type OutputCollisionError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("output %q already exists with different content: %s vs %s",
		e.Name, e.Existing, e.Incoming)
}

// InvalidKeywordError reports a configuration keyword that is unknown
// to the plugin or whose value fails its declared semantic type.
type InvalidKeywordError struct {
	Plugin  string
	Keyword string
	Reason  string
}

func (e *InvalidKeywordError) Error() string {
	return fmt.Sprintf("invalid %s keyword %q: %s", e.Plugin, e.Keyword, e.Reason)
}
