package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smeltbuild/smelt/internal/fsutil"
)

// localHandler mirrors a directory tree, hard-linking regular files
// where possible. Absolute paths in ignore are skipped, which keeps the
// work directory out of the copy when the source is the project
// directory itself.
type localHandler struct {
	src    string
	ignore []string
}

// NewLocal returns a handler copying the tree rooted at src.
func NewLocal(src string, ignore ...string) Handler {
	return &localHandler{src: src, ignore: ignore}
}

func (l *localHandler) Pull(ctx context.Context, dst string) error {
	info, err := os.Stat(l.src)
	if err != nil {
		return fmt.Errorf("failed to read source %s: %w", l.src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", l.src)
	}

	return filepath.WalkDir(l.src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.skip(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(l.src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type()&fs.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		case d.Type().IsRegular():
			return fsutil.LinkOrCopy(path, target)
		default:
			// Sockets, devices and the like have no place in a
			// source tree.
			return nil
		}
	})
}

func (l *localHandler) skip(path string) bool {
	for _, ignored := range l.ignore {
		if path == ignored {
			return true
		}
	}
	return false
}
