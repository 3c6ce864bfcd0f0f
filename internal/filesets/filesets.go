// Package filesets filters which installed files a part contributes to
// the stage and prime trees.
//
// An entry is an install-relative path or the wildcard "*"; a leading
// "-" turns it into an exclusion covering the whole subtree. An empty
// fileset keeps everything.
package filesets

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var partitionedEntryRE = regexp.MustCompile(`^\(([a-z0-9][a-z0-9/-]*)\)(/.*)?$`)

// Fileset is a parsed include/exclude list.
type Fileset struct {
	includes []string
	excludes []string
}

// New parses entries into a fileset. Paths must stay inside the tree
// they filter; entries addressing a partition other than default are
// rejected while partition support stays scoped to directory layout.
func New(entries []string) (*Fileset, error) {
	f := &Fileset{}
	for _, entry := range entries {
		exclude := strings.HasPrefix(entry, "-")
		p := strings.TrimPrefix(entry, "-")

		if m := partitionedEntryRE.FindStringSubmatch(p); m != nil {
			if m[1] != "default" {
				return nil, fmt.Errorf("fileset entry %q: only the default partition can be addressed", entry)
			}
			p = strings.TrimPrefix(m[2], "/")
		}
		if p == "" {
			return nil, fmt.Errorf("fileset entries cannot be empty")
		}
		if strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("fileset paths cannot be absolute: %q", entry)
		}
		if p != "*" {
			p = path.Clean(p)
		}
		if p == "." || p == ".." || strings.HasPrefix(p, "../") {
			return nil, fmt.Errorf("fileset paths cannot escape the tree: %q", entry)
		}

		if exclude {
			f.excludes = append(f.excludes, p)
		} else {
			f.includes = append(f.includes, p)
		}
	}

	for _, inc := range f.includes {
		for _, exc := range f.excludes {
			if covers(exc, inc) {
				return nil, fmt.Errorf("fileset includes %q but excludes %q", inc, exc)
			}
		}
	}
	return f, nil
}

// Includes returns the include entries, without the implicit "*".
func (f *Fileset) Includes() []string {
	return append([]string(nil), f.includes...)
}

// Excludes returns the exclude entries.
func (f *Fileset) Excludes() []string {
	return append([]string(nil), f.excludes...)
}

// Apply filters walked install-relative files and dirs down to the
// migration set. Ancestor directories of every kept file are kept so
// the destination tree can be built parent-first; dirs arrive in walk
// order and leave in the same order.
func (f *Fileset) Apply(files, dirs []string) (outFiles, outDirs []string) {
	for _, file := range files {
		if f.match(file) {
			outFiles = append(outFiles, file)
		}
	}

	needed := make(map[string]bool)
	for _, file := range outFiles {
		for dir := path.Dir(file); dir != "." && dir != "/"; dir = path.Dir(dir) {
			needed[dir] = true
		}
	}
	for _, dir := range dirs {
		if needed[dir] || f.match(dir) {
			outDirs = append(outDirs, dir)
		}
	}
	return outFiles, outDirs
}

// match reports whether an install-relative path migrates.
func (f *Fileset) match(p string) bool {
	for _, exc := range f.excludes {
		if covers(exc, p) {
			return false
		}
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, inc := range f.includes {
		if covers(inc, p) {
			return true
		}
	}
	return false
}

// covers reports whether entry names p or a subtree containing p.
func covers(entry, p string) bool {
	if entry == "*" {
		return true
	}
	return p == entry || strings.HasPrefix(p, entry+"/")
}
