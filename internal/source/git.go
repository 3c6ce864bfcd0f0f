package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// gitHandler pulls sources with a minimal fetch: init once, fetch the
// requested ref at the requested depth, check out FETCH_HEAD.
type gitHandler struct {
	git    string
	remote string
	ref    string
	depth  int
}

// GitOption configures the git handler.
type GitOption func(*gitHandler)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitHandler) {
		g.git = path
	}
}

// NewGit returns a handler fetching ref from remote. An empty ref means
// the remote HEAD; a depth of zero means a depth of one.
func NewGit(remote, ref string, depth int, opts ...GitOption) Handler {
	g := &gitHandler{git: "git", remote: remote, ref: ref, depth: depth}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitHandler) Pull(ctx context.Context, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dst, ".git")); os.IsNotExist(err) {
		if err := g.run(ctx, dst, "init"); err != nil {
			return fmt.Errorf("failed to init %s: %w", dst, err)
		}
	}

	ref := g.ref
	if ref == "" {
		ref = "HEAD"
	}
	depth := g.depth
	if depth <= 0 {
		depth = 1
	}
	if err := g.run(ctx, dst, "fetch", "--depth", strconv.Itoa(depth), g.remote, ref); err != nil {
		return fmt.Errorf("failed to fetch %s from %s: %w", ref, g.remote, err)
	}
	if err := g.run(ctx, dst, "checkout", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	return nil
}

func (g *gitHandler) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.git, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}
	return nil
}
