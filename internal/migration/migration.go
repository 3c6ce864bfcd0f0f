// Package migration moves a part's installed files into the shared
// stage and prime trees and backs them out again.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/smeltbuild/smelt/internal/filesets"
	"github.com/smeltbuild/smelt/internal/fsutil"
	"github.com/smeltbuild/smelt/parts"
	"github.com/smeltbuild/smelt/plugins"
)

// Collect walks srcRoot and returns its files and directories as
// slash-separated relative paths, directories parent-first.
func Collect(srcRoot string) (files, dirs []string, err error) {
	err = filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			dirs = append(dirs, rel)
		} else {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", srcRoot, err)
	}
	return files, dirs, nil
}

// Migrate hard-links the fileset-selected content of srcRoot into
// dstRoot and applies the matching permissions entries. A nil fileset
// keeps everything. Content already present is skipped when it is the
// same inode or equal bytes; a name collision with differing content is
// an OutputCollisionError. The migrated relative paths are returned for
// state recording.
func Migrate(srcRoot, dstRoot string, set *filesets.Fileset, permissions []parts.Permissions) ([]string, []string, error) {
	allFiles, allDirs, err := Collect(srcRoot)
	if err != nil {
		return nil, nil, err
	}
	files, dirs := allFiles, allDirs
	if set != nil {
		files, dirs = set.Apply(allFiles, allDirs)
	}
	if err := MigratePaths(srcRoot, dstRoot, files, dirs, permissions); err != nil {
		return nil, nil, err
	}
	return files, dirs, nil
}

// MigratePaths hard-links an explicit set of relative paths from
// srcRoot into dstRoot, dirs parent-first, with the same collision and
// permissions handling as Migrate. Used when the source set comes from
// a recorded state rather than a walk.
func MigratePaths(srcRoot, dstRoot string, files, dirs []string, permissions []parts.Permissions) error {
	for _, dir := range dirs {
		info, err := os.Stat(filepath.Join(srcRoot, dir))
		if err != nil {
			return err
		}
		target := filepath.Join(dstRoot, dir)
		if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
			return err
		}
		if err := parts.ApplyPermissions(target, parts.FilterPermissions(dir, permissions)); err != nil {
			return err
		}
	}

	for _, file := range files {
		src := filepath.Join(srcRoot, file)
		dst := filepath.Join(dstRoot, file)
		if err := migrateFile(file, src, dst); err != nil {
			return err
		}
		if err := parts.ApplyPermissions(dst, parts.FilterPermissions(file, permissions)); err != nil {
			return err
		}
	}
	return nil
}

func migrateFile(rel, src, dst string) error {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if srcInfo.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		existing, err := os.Readlink(dst)
		switch {
		case err == nil:
			if existing == target {
				return nil
			}
			return &plugins.OutputCollisionError{Name: rel, Existing: dst, Incoming: src}
		case errors.Is(err, fs.ErrNotExist):
			return os.Symlink(target, dst)
		default:
			return &plugins.OutputCollisionError{Name: rel, Existing: dst, Incoming: src}
		}
	}

	dstInfo, err := os.Lstat(dst)
	switch {
	case err == nil:
		if os.SameFile(srcInfo, dstInfo) {
			return nil
		}
		if srcInfo.Mode().IsRegular() && dstInfo.Mode().IsRegular() {
			equal, eqErr := fsutil.FilesEqual(src, dst)
			if eqErr != nil {
				return eqErr
			}
			if equal {
				return nil
			}
		}
		return &plugins.OutputCollisionError{Name: rel, Existing: dst, Incoming: src}
	case errors.Is(err, fs.ErrNotExist):
		if err := fsutil.LinkOrCopy(src, dst); err != nil {
			return fmt.Errorf("failed to link %s: %w", rel, err)
		}
		return nil
	default:
		return err
	}
}

// Unmigrate removes a part's recorded contribution from a shared tree.
// Files go first, then directories deepest-first; a directory other
// parts still populate stays.
func Unmigrate(root string, files, dirs []string) error {
	for _, file := range files {
		err := os.Remove(filepath.Join(root, file))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		err := os.Remove(filepath.Join(root, dirs[i]))
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
		case errors.Is(err, unix.ENOTEMPTY), errors.Is(err, unix.EEXIST):
		default:
			return err
		}
	}
	return nil
}
