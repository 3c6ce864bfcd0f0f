// Package java locates Java installations on the build host and carries
// the post-build conventions shared by the Java build tool plugins.
package java

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/smeltbuild/smelt/internal/fsutil"
	"github.com/smeltbuild/smelt/pkgs/vercmp"
	"github.com/smeltbuild/smelt/plugins"
)

// DefaultRoot is where Debian-flavored systems keep their JDKs.
const DefaultRoot = "/usr/lib/jvm"

// Installation is a usable JDK or JRE found under a search root.
type Installation struct {
	// Home is the installation directory, suitable for JAVA_HOME.
	Home string
	// Version is the version token parsed from the directory name,
	// e.g. "21" from java-21-openjdk-amd64 or "1.8.0" from
	// java-1.8.0-openjdk-amd64.
	Version string
}

var versionRE = regexp.MustCompile(`[0-9][0-9A-Za-z._]*`)

func versionOf(name string) string {
	if v := versionRE.FindString(name); v != "" {
		return v
	}
	return name
}

// Discover scans the given roots for Java installations. A directory
// counts when it exposes an executable bin/java. An empty roots list
// means the conventional /usr/lib/jvm location.
func Discover(roots []string) ([]Installation, error) {
	if len(roots) == 0 {
		roots = []string{DefaultRoot}
	}
	var found []Installation
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
		for _, entry := range entries {
			home := filepath.Join(root, entry.Name())
			if !fsutil.IsExecutable(filepath.Join(home, "bin", "java")) {
				continue
			}
			found = append(found, Installation{Home: home, Version: versionOf(entry.Name())})
		}
	}
	return found, nil
}

// Home returns the home directory of the highest-versioned installation
// under the given roots. With no installation at all the result is a
// MissingToolError.
func Home(roots []string) (string, error) {
	installs, err := Discover(roots)
	if err != nil {
		return "", err
	}
	if len(installs) == 0 {
		return "", &plugins.MissingToolError{Tool: "java"}
	}
	best := installs[0]
	for _, inst := range installs[1:] {
		if vercmp.Compare(inst.Version, best.Version) > 0 {
			best = inst
		}
	}
	return best.Home, nil
}

// BuildEnv assembles the environment shared by the Java build plugins:
// JAVA_HOME pointing at the highest-versioned installation, followed by
// the ambient proxy settings passed through unchanged.
func BuildEnv(ctx *plugins.Context, includeNoProxy bool) ([]plugins.EnvVar, error) {
	home, err := Home(ctx.JavaRoots)
	if err != nil {
		return nil, err
	}
	env := []plugins.EnvVar{{Name: "JAVA_HOME", Value: home}}
	return append(env, ProxyEnv(ctx.Env, includeNoProxy)...), nil
}

// ProxyEnv extracts the proxy variables to propagate from the ambient
// environment. Values pass through verbatim.
func ProxyEnv(ambient map[string]string, includeNoProxy bool) []plugins.EnvVar {
	names := []string{"http_proxy", "https_proxy"}
	if includeNoProxy {
		names = append(names, "no_proxy")
	}
	var env []plugins.EnvVar
	for _, name := range names {
		if value, ok := ambient[name]; ok {
			env = append(env, plugins.EnvVar{Name: name, Value: value})
		}
	}
	return env
}

// NormalizeOutputs lays out the conventional Java artifact directories
// under installDir: bin/java links to the JDK that ran the build, and
// jar/ collects every archive produced under buildDir, filenames
// preserved. Repeating the pass over identical outputs is a no-op; a
// name collision with differing content is an OutputCollisionError.
func NormalizeOutputs(buildDir, installDir, javaHome string) error {
	binDir := filepath.Join(installDir, "bin")
	jarDir := filepath.Join(installDir, "jar")
	for _, dir := range []string{binDir, jarDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if javaHome != "" {
		if err := linkJava(binDir, filepath.Join(javaHome, "bin", "java")); err != nil {
			return err
		}
	}

	archives, err := findArchives(buildDir)
	if err != nil {
		return err
	}
	for _, archive := range archives {
		if err := linkArchive(jarDir, archive); err != nil {
			return err
		}
	}
	return nil
}

// linkJava symlinks the java executable that ran the build at
// binDir/java, with a relative target when possible.
func linkJava(binDir, java string) error {
	if _, err := os.Stat(java); err != nil {
		return fmt.Errorf("failed to locate the build's java executable: %w", err)
	}
	target := java
	if rel, err := filepath.Rel(binDir, java); err == nil {
		target = rel
	}

	link := filepath.Join(binDir, "java")
	existing, err := os.Readlink(link)
	switch {
	case err == nil:
		if existing == target {
			return nil
		}
		return &plugins.OutputCollisionError{Name: "bin/java", Existing: existing, Incoming: target}
	case errors.Is(err, fs.ErrNotExist):
		return os.Symlink(target, link)
	default:
		// Something that is not a symlink sits at bin/java.
		return &plugins.OutputCollisionError{Name: "bin/java", Existing: link, Incoming: target}
	}
}

func findArchives(buildDir string) ([]string, error) {
	var archives []string
	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".jar") {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for archives: %w", buildDir, err)
	}
	return archives, nil
}

func linkArchive(jarDir, src string) error {
	name := filepath.Base(src)
	dst := filepath.Join(jarDir, name)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	dstInfo, err := os.Stat(dst)
	switch {
	case err == nil:
		if os.SameFile(srcInfo, dstInfo) {
			return nil
		}
		equal, eqErr := fsutil.FilesEqual(src, dst)
		if eqErr != nil {
			return eqErr
		}
		if equal {
			return nil
		}
		return &plugins.OutputCollisionError{Name: "jar/" + name, Existing: dst, Incoming: src}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.Link(src, dst); err != nil {
			return fmt.Errorf("failed to link %s: %w", src, err)
		}
		return nil
	default:
		return err
	}
}
