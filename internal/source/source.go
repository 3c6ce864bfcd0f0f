// Package source acquires part sources into the part source directory.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smeltbuild/smelt/parts"
)

// Handler materializes one part's source tree.
type Handler interface {
	// Pull places the source at dst. For tree copies dst must not
	// already contain files; repeated git pulls reuse the checkout.
	Pull(ctx context.Context, dst string) error
}

// Detect picks the handler for a part's source declaration: an explicit
// source-type wins, otherwise git-shaped URLs go to git and everything
// else is treated as a local path relative to projectDir. The ignore
// paths are honored by local handlers so a project that uses its own
// tree as a source does not copy the build work area into itself.
func Detect(projectDir string, part *parts.Part, ignore []string, opts ...GitOption) (Handler, error) {
	src := part.Source
	if src == "" {
		return nil, fmt.Errorf("part %q has no source", part.Name)
	}

	switch part.SourceType {
	case "git":
		return NewGit(src, gitRef(part), part.SourceDepth, opts...), nil
	case "local":
		return NewLocal(resolveLocal(projectDir, src), ignore...), nil
	case "":
		if looksLikeGit(src) {
			return NewGit(src, gitRef(part), part.SourceDepth, opts...), nil
		}
		if strings.Contains(src, "://") {
			return nil, fmt.Errorf("part %q: unsupported source %q", part.Name, src)
		}
		return NewLocal(resolveLocal(projectDir, src), ignore...), nil
	default:
		return nil, fmt.Errorf("part %q: unknown source-type %q", part.Name, part.SourceType)
	}
}

// gitRef returns the single requested ref; the loader already rejects
// declarations with more than one of branch/tag/commit.
func gitRef(part *parts.Part) string {
	switch {
	case part.SourceBranch != "":
		return part.SourceBranch
	case part.SourceTag != "":
		return part.SourceTag
	default:
		return part.SourceCommit
	}
}

func resolveLocal(projectDir, src string) string {
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(projectDir, src)
}

func looksLikeGit(src string) bool {
	switch {
	case strings.HasSuffix(src, ".git"):
		return true
	case strings.HasPrefix(src, "git://"), strings.HasPrefix(src, "git+ssh://"):
		return true
	case strings.HasPrefix(src, "git@"):
		return true
	}
	return false
}
