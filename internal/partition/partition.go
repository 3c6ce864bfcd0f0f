// Package partition validates partition names and maps each partition
// to its directory. Partitions split the stage and prime trees so parts
// can target separate payload areas.
//
// A plain partition name is lowercase alphanumeric with inner dashes.
// A namespaced name is namespace/partition where the namespace carries
// no dashes; namespaces may nest. Conflicts arise when two names
// collapse to the same path treating '-' and '/' as the same separator,
// or when one name is a path prefix of another.
package partition

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	plainRE     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	namespaceRE = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Validate checks a partition name list against the feature gate.
// With the feature disabled the list must be empty; with it enabled the
// list must be non-empty, every name valid, all names unique and free
// of conflicts.
func Validate(names []string, enabled bool) error {
	if !enabled {
		if len(names) > 0 {
			return fmt.Errorf("partitions are defined but the partition feature is not enabled")
		}
		return nil
	}
	if len(names) == 0 {
		return fmt.Errorf("partition feature is enabled but no partitions are defined")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("partitions must be unique")
		}
		seen[name] = true

		if err := checkName(name); err != nil {
			return err
		}
	}

	if groups := conflictGroups(names); len(groups) > 0 {
		var b strings.Builder
		b.WriteString("partition name conflicts:")
		for _, group := range groups {
			b.WriteString("\n- '" + strings.Join(group, "', '") + "'")
		}
		return fmt.Errorf("%s", b.String())
	}
	return nil
}

func checkName(name string) error {
	if !strings.Contains(name, "/") {
		if !plainRE.MatchString(name) {
			return fmt.Errorf("partition %q is invalid", name)
		}
		return nil
	}

	parts := strings.Split(name, "/")
	if !namespaceRE.MatchString(parts[0]) {
		return fmt.Errorf("namespaced partition %q is invalid", name)
	}
	for _, p := range parts[1:] {
		if !plainRE.MatchString(p) {
			return fmt.Errorf("namespaced partition %q is invalid", name)
		}
	}
	return nil
}

// conflictGroups clusters conflicting names. Groups are ordered by the
// first conflicting name's position in the input; names inside a group
// sort lexically.
func conflictGroups(names []string) [][]string {
	parent := make(map[string]string, len(names))
	var find func(string) string
	find = func(n string) string {
		if parent[n] != n {
			parent[n] = find(parent[n])
		}
		return parent[n]
	}
	for _, n := range names {
		parent[n] = n
	}

	for i, a := range names {
		for _, b := range names[i+1:] {
			if conflict(a, b) {
				parent[find(a)] = find(b)
			}
		}
	}

	byRoot := make(map[string][]string)
	var order []string
	for _, n := range names {
		root := find(n)
		if len(byRoot[root]) == 0 {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], n)
	}

	var groups [][]string
	for _, root := range order {
		group := byRoot[root]
		if len(group) < 2 {
			continue
		}
		sort.Strings(group)
		groups = append(groups, group)
	}
	return groups
}

func conflict(a, b string) bool {
	if strings.ReplaceAll(a, "-", "/") == strings.ReplaceAll(b, "-", "/") {
		return true
	}
	pa := strings.Split(a, "/")
	pb := strings.Split(b, "/")
	if len(pa) > len(pb) {
		pa, pb = pb, pa
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// DirMap maps each partition to its directory under baseDir, with the
// optional suffix appended. The first partition owns baseDir itself;
// every other partition lives under partitions/<name>. With no
// partitions the map holds a single "" key for baseDir.
func DirMap(baseDir string, names []string, suffix string) map[string]string {
	m := make(map[string]string, len(names)+1)
	if len(names) == 0 {
		m[""] = filepath.Join(baseDir, suffix)
		return m
	}
	for i, name := range names {
		if i == 0 {
			m[name] = filepath.Join(baseDir, suffix)
			continue
		}
		m[name] = filepath.Join(baseDir, "partitions", name, suffix)
	}
	return m
}
