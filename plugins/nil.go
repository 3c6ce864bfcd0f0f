package plugins

import "github.com/smeltbuild/smelt/parts"

// nilPlugin builds nothing. It exists so source-only parts can pull
// and stage files without running a tool.
type nilPlugin struct{}

func init() {
	Register(nilPlugin{})
}

func (nilPlugin) Name() string        { return "nil" }
func (nilPlugin) Keywords() []Keyword { return nil }

func (nilPlugin) Validate(opts *parts.Options) error {
	return ValidateOptions("nil", nil, opts)
}

func (nilPlugin) Environment(*Context) ([]EnvVar, error) { return nil, nil }
func (nilPlugin) ToolPath(*Context) (string, error)      { return "", nil }
func (nilPlugin) Commands(*Context) ([]string, error)    { return nil, nil }
func (nilPlugin) NormalizeOutputs(*Context) error        { return nil }
