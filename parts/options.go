package parts

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// KV is one entry of an ordered string mapping keyword.
type KV struct {
	Key   string
	Value string
}

// Options holds one part's plugin-prefixed keyword values exactly as
// declared, preserving declaration order for every accessor. Ordering
// matters: build commands render targets and properties in the order
// the part author wrote them.
type Options struct {
	keys   []string
	values map[string]*yaml.Node
}

func newOptions() *Options {
	return &Options{values: make(map[string]*yaml.Node)}
}

func (o *Options) add(key string, value *yaml.Node) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Keys returns the keyword names in declaration order.
func (o *Options) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Has reports whether the keyword was declared.
func (o *Options) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// String returns a scalar keyword value, or def when undeclared.
func (o *Options) String(key, def string) (string, error) {
	node, ok := o.values[key]
	if !ok {
		return def, nil
	}
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return "", fmt.Errorf("keyword %q must be a string", key)
	}
	return node.Value, nil
}

// StringList returns a list-of-strings keyword value in declaration
// order, or nil when undeclared.
func (o *Options) StringList(key string) ([]string, error) {
	node, ok := o.values[key]
	if !ok {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("keyword %q must be a list of strings", key)
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
			return nil, fmt.Errorf("keyword %q must be a list of strings", key)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// Pairs returns an ordered string-mapping keyword value in declaration
// order, or nil when undeclared. Duplicate keys are rejected.
func (o *Options) Pairs(key string) ([]KV, error) {
	node, ok := o.values[key]
	if !ok {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("keyword %q must be a mapping of strings", key)
	}
	seen := make(map[string]bool, len(node.Content)/2)
	out := make([]KV, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			return nil, fmt.Errorf("keyword %q must be a mapping of strings", key)
		}
		if seen[k.Value] {
			return nil, fmt.Errorf("keyword %q has duplicate entry %q", key, k.Value)
		}
		seen[k.Value] = true
		out = append(out, KV{Key: k.Value, Value: v.Value})
	}
	return out, nil
}

// Snapshot renders each keyword as "name: <yaml>" in declaration
// order, for recording in step states. Reordering an ordered mapping
// produces a different snapshot, so the step reruns.
func (o *Options) Snapshot() ([]string, error) {
	out := make([]string, 0, len(o.keys))
	for _, key := range o.keys {
		data, err := yaml.Marshal(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot keyword %q: %w", key, err)
		}
		out = append(out, key+": "+string(data))
	}
	return out, nil
}
