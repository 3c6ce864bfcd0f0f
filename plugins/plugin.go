// Package plugins defines the contract every build tool plugin
// implements and the registry the lifecycle resolves plugins from.
//
// A plugin invocation is a single linear sequence: validate keywords,
// prepare the environment, resolve the tool path, synthesize the
// command lines, execute, then normalize outputs. A failure at any
// stage is terminal for the invocation; nothing is retried and no
// state persists between invocations.
package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smeltbuild/smelt/internal/fsutil"
	"github.com/smeltbuild/smelt/parts"
)

// KeywordType is the semantic type of a plugin keyword value.
type KeywordType int

const (
	StringKeyword KeywordType = iota
	StringListKeyword
	StringMapKeyword
)

func (t KeywordType) String() string {
	switch t {
	case StringKeyword:
		return "string"
	case StringListKeyword:
		return "list of strings"
	case StringMapKeyword:
		return "ordered map"
	}
	return "unknown"
}

// Keyword declares one recognized configuration key.
type Keyword struct {
	Name    string
	Type    KeywordType
	Default string
}

// EnvVar is one variable a plugin exports into the build script.
// Order is preserved; later exports override earlier ones at runtime.
type EnvVar struct {
	Name  string
	Value string
}

// Plugin is implemented once per underlying build tool. Implementations
// are stateless; all invocation inputs arrive through the Context.
type Plugin interface {
	// Name is the plugin name used in parts.yaml and as the keyword
	// prefix.
	Name() string

	// Keywords declares the recognized configuration keys.
	Keywords() []Keyword

	// Validate checks the declared keyword values against the schema.
	Validate(opts *parts.Options) error

	// Environment returns the variables exported before the user's
	// build-environment entries.
	Environment(ctx *Context) ([]EnvVar, error)

	// ToolPath locates the external tool executable. An empty path
	// with a nil error means the plugin runs no external tool.
	ToolPath(ctx *Context) (string, error)

	// Commands returns the shell command lines of the build step, in
	// execution order.
	Commands(ctx *Context) ([]string, error)

	// NormalizeOutputs relocates build outputs into the install
	// layout after the tool exits successfully.
	NormalizeOutputs(ctx *Context) error
}

var registry = make(map[string]Plugin)

// Register adds a plugin to the registry. It panics on duplicates,
// like database/sql drivers.
func Register(p Plugin) {
	name := p.Name()
	if _, dup := registry[name]; dup {
		panic("plugins: Register called twice for " + name)
	}
	registry[name] = p
}

// Lookup resolves a registered plugin by name.
func Lookup(name string) (Plugin, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q", name)
	}
	return p, nil
}

// Names returns the registered plugin names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateOptions checks opts against a keyword schema: every declared
// key must be known and every value must decode as its declared type.
// Shared by plugin Validate implementations.
func ValidateOptions(plugin string, keywords []Keyword, opts *parts.Options) error {
	known := make(map[string]Keyword, len(keywords))
	for _, kw := range keywords {
		known[kw.Name] = kw
	}

	for _, key := range opts.Keys() {
		kw, ok := known[key]
		if !ok {
			return &InvalidKeywordError{Plugin: plugin, Keyword: key, Reason: "unknown keyword"}
		}

		var err error
		switch kw.Type {
		case StringKeyword:
			_, err = opts.String(key, kw.Default)
		case StringListKeyword:
			_, err = opts.StringList(key)
		case StringMapKeyword:
			_, err = opts.Pairs(key)
		}
		if err != nil {
			return &InvalidKeywordError{Plugin: plugin, Keyword: key, Reason: err.Error()}
		}
	}
	return nil
}

// LocateTool resolves a tool executable. A staged <tool>-deps part
// wins over a same-named executable on the search path; when neither
// provides the tool the result is a ToolNotFoundError.
func LocateTool(ctx *Context, tool string) (string, error) {
	staged := filepath.Join(ctx.StageDir, "bin", tool)
	if ctx.Staged(tool+"-deps") && fsutil.IsExecutable(staged) {
		return staged, nil
	}
	if path, ok := lookPath(ctx.Env["PATH"], tool); ok {
		return path, nil
	}
	return "", &ToolNotFoundError{Tool: tool}
}

// lookPath searches a PATH-style list for an executable, against the
// build environment rather than the process environment.
func lookPath(pathList, tool string) (string, bool) {
	for _, dir := range strings.Split(pathList, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, tool)
		if fsutil.IsExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}
