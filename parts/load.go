package parts

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var partNameRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// LoadProject parses a parts.yaml file. Parsing is strict: unknown
// top-level keys and unknown generic part keywords fail the load, and
// keys carrying the part's plugin prefix are collected into Options in
// declaration order for the plugin schema to validate.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return ParseProject(data)
}

// ParseProject parses project file content.
func ParseProject(data []byte) (*Project, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("project file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("project file must be a mapping")
	}

	pr := &Project{}
	var partsNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "parts":
			partsNode = val
		case "partitions":
			names, err := stringSeq(val)
			if err != nil {
				return nil, fmt.Errorf("partitions: %w", err)
			}
			pr.Partitions = names
		default:
			return nil, fmt.Errorf("unknown top-level key %q", key.Value)
		}
	}
	if partsNode == nil {
		return nil, fmt.Errorf("parts definition is missing")
	}
	if partsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parts must be a mapping")
	}

	for i := 0; i+1 < len(partsNode.Content); i += 2 {
		nameNode, body := partsNode.Content[i], partsNode.Content[i+1]
		name := nameNode.Value
		if !partNameRE.MatchString(name) {
			return nil, fmt.Errorf("part name %q is invalid", name)
		}
		if pr.Part(name) != nil {
			return nil, fmt.Errorf("part %q is declared twice", name)
		}
		p, err := parsePart(name, body)
		if err != nil {
			return nil, err
		}
		pr.Parts = append(pr.Parts, p)
	}
	if len(pr.Parts) == 0 {
		return nil, fmt.Errorf("no parts are defined")
	}

	if err := validateAfter(pr); err != nil {
		return nil, err
	}
	return pr, nil
}

func parsePart(name string, node *yaml.Node) (*Part, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("part %q must be a mapping", name)
	}

	p := &Part{Name: name, Options: newOptions()}

	// The plugin name decides which prefixed keywords belong to the
	// part, so find it before walking the rest.
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "plugin" {
			val := node.Content[i+1]
			if val.Kind != yaml.ScalarNode || val.Value == "" {
				return nil, fmt.Errorf("part %q: plugin must be a string", name)
			}
			p.Plugin = val.Value
		}
	}
	if p.Plugin == "" {
		return nil, fmt.Errorf("part %q: plugin not declared", name)
	}

	prefix := p.Plugin + "-"
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "plugin":
			// handled above
		case "source":
			p.Source, err = scalar(key.Value, val)
		case "source-type":
			p.SourceType, err = scalar(key.Value, val)
		case "source-branch":
			p.SourceBranch, err = scalar(key.Value, val)
		case "source-tag":
			p.SourceTag, err = scalar(key.Value, val)
		case "source-commit":
			p.SourceCommit, err = scalar(key.Value, val)
		case "source-depth":
			err = val.Decode(&p.SourceDepth)
		case "after":
			p.After, err = stringSeq(val)
		case "build-environment":
			p.BuildEnvironment, err = envEntries(val)
		case "override-pull":
			p.OverridePull, err = scalar(key.Value, val)
		case "override-build":
			p.OverrideBuild, err = scalar(key.Value, val)
		case "override-stage":
			p.OverrideStage, err = scalar(key.Value, val)
		case "override-prime":
			p.OverridePrime, err = scalar(key.Value, val)
		case "stage":
			p.StageFiles, err = stringSeq(val)
		case "prime":
			p.PrimeFiles, err = stringSeq(val)
		case "permissions":
			err = val.Decode(&p.Permissions)
			if err == nil {
				for j := range p.Permissions {
					if err = p.Permissions[j].Validate(); err != nil {
						break
					}
				}
			}
		default:
			if strings.HasPrefix(key.Value, prefix) {
				p.Options.add(key.Value, val)
				continue
			}
			return nil, fmt.Errorf("part %q: unknown keyword %q", name, key.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", name, err)
		}
	}

	if err := validateSource(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validateSource(p *Part) error {
	if p.Source == "" {
		for key, set := range map[string]bool{
			"source-type":   p.SourceType != "",
			"source-branch": p.SourceBranch != "",
			"source-tag":    p.SourceTag != "",
			"source-commit": p.SourceCommit != "",
			"source-depth":  p.SourceDepth != 0,
		} {
			if set {
				return fmt.Errorf("part %q: %s requires source", p.Name, key)
			}
		}
		return nil
	}

	refs := 0
	for _, set := range []bool{p.SourceBranch != "", p.SourceTag != "", p.SourceCommit != ""} {
		if set {
			refs++
		}
	}
	if refs > 1 {
		return fmt.Errorf("part %q: source-branch, source-tag and source-commit are mutually exclusive", p.Name)
	}
	if p.SourceDepth < 0 {
		return fmt.Errorf("part %q: source-depth must not be negative", p.Name)
	}
	return nil
}

// validateAfter checks that every 'after' entry names a part declared
// earlier. Declaration order is execution order, so a later or unknown
// reference can never be satisfied.
func validateAfter(pr *Project) error {
	index := make(map[string]int, len(pr.Parts))
	for i, p := range pr.Parts {
		index[p.Name] = i
	}
	for i, p := range pr.Parts {
		for _, dep := range p.After {
			j, ok := index[dep]
			if !ok {
				return fmt.Errorf("part %q: after references unknown part %q", p.Name, dep)
			}
			if j >= i {
				return fmt.Errorf("part %q: after must name a part declared earlier, not %q", p.Name, dep)
			}
		}
	}
	return nil
}

func scalar(key string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return node.Value, nil
}

func stringSeq(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("must be a list of strings")
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
			return nil, fmt.Errorf("must be a list of strings")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// envEntries decodes a build-environment list: single-key mappings in
// declaration order.
func envEntries(node *yaml.Node) ([]KV, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("build-environment must be a list of single-entry mappings")
	}
	out := make([]KV, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("build-environment must be a list of single-entry mappings")
		}
		k, v := item.Content[0], item.Content[1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("build-environment must be a list of single-entry mappings")
		}
		out = append(out, KV{Key: k.Value, Value: v.Value})
	}
	return out, nil
}
