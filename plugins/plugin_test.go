package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smeltbuild/smelt/parts"
)

// optionsFrom builds Options the way the project loader does.
func optionsFrom(t *testing.T, src string) *parts.Options {
	t.Helper()
	var b strings.Builder
	b.WriteString("parts:\n  app:\n    plugin: test\n")
	for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	pr, err := parts.ParseProject([]byte(b.String()))
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	return pr.Part("app").Options
}

func TestLookupRegistered(t *testing.T) {
	p, err := Lookup("nil")
	if err != nil {
		t.Fatalf("Lookup(nil): %v", err)
	}
	if p.Name() != "nil" {
		t.Errorf("Name() = %q, want %q", p.Name(), "nil")
	}

	if _, err := Lookup("bogus"); err == nil {
		t.Error("Lookup(bogus) succeeded, want error")
	}
}

func TestValidateOptionsUnknownKeyword(t *testing.T) {
	opts := optionsFrom(t, "test-unknown: x")

	err := ValidateOptions("test", []Keyword{{Name: "test-known", Type: StringKeyword}}, opts)
	if err == nil {
		t.Fatal("ValidateOptions succeeded, want error")
	}
	var kwErr *InvalidKeywordError
	if !errors.As(err, &kwErr) {
		t.Fatalf("error type = %T, want *InvalidKeywordError", err)
	}
	if kwErr.Keyword != "test-unknown" {
		t.Errorf("Keyword = %q, want %q", kwErr.Keyword, "test-unknown")
	}
}

func TestValidateOptionsTypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kw   Keyword
	}{
		{"list as string", "test-file: [a]", Keyword{Name: "test-file", Type: StringKeyword}},
		{"string as list", "test-args: xyz", Keyword{Name: "test-args", Type: StringListKeyword}},
		{"list as map", "test-props: [a]", Keyword{Name: "test-props", Type: StringMapKeyword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := optionsFrom(t, tt.src)
			err := ValidateOptions("test", []Keyword{tt.kw}, opts)
			var kwErr *InvalidKeywordError
			if !errors.As(err, &kwErr) {
				t.Fatalf("error = %v, want *InvalidKeywordError", err)
			}
			if kwErr.Keyword != tt.kw.Name {
				t.Errorf("Keyword = %q, want %q", kwErr.Keyword, tt.kw.Name)
			}
		})
	}
}

func TestValidateOptionsValid(t *testing.T) {
	opts := optionsFrom(t, "test-args: [a, b]\ntest-props:\n  k: v")

	err := ValidateOptions("test", []Keyword{
		{Name: "test-args", Type: StringListKeyword},
		{Name: "test-props", Type: StringMapKeyword},
	}, opts)
	if err != nil {
		t.Errorf("ValidateOptions = %v, want nil", err)
	}
}

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestLocateToolPrefersStagedPart(t *testing.T) {
	stage := t.TempDir()
	pathDir := t.TempDir()
	writeExecutable(t, filepath.Join(stage, "bin", "ant"))
	writeExecutable(t, filepath.Join(pathDir, "ant"))

	ctx := &Context{
		StageDir:    stage,
		Env:         map[string]string{"PATH": pathDir},
		StagedParts: []string{"ant-deps"},
	}

	got, err := LocateTool(ctx, "ant")
	if err != nil {
		t.Fatalf("LocateTool: %v", err)
	}
	if want := filepath.Join(stage, "bin", "ant"); got != want {
		t.Errorf("LocateTool = %q, want staged %q", got, want)
	}
}

func TestLocateToolFallsBackToPath(t *testing.T) {
	stage := t.TempDir()
	pathDir := t.TempDir()
	writeExecutable(t, filepath.Join(pathDir, "ant"))

	// The staged binary exists but no ant-deps part was staged, so the
	// search path wins.
	writeExecutable(t, filepath.Join(stage, "bin", "ant"))

	ctx := &Context{
		StageDir: stage,
		Env:      map[string]string{"PATH": pathDir},
	}

	got, err := LocateTool(ctx, "ant")
	if err != nil {
		t.Fatalf("LocateTool: %v", err)
	}
	if want := filepath.Join(pathDir, "ant"); got != want {
		t.Errorf("LocateTool = %q, want %q", got, want)
	}
}

func TestLocateToolNotFound(t *testing.T) {
	ctx := &Context{
		StageDir: t.TempDir(),
		Env:      map[string]string{"PATH": t.TempDir()},
	}

	_, err := LocateTool(ctx, "ant")
	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *ToolNotFoundError", err)
	}
	if notFound.Tool != "ant" {
		t.Errorf("Tool = %q, want %q", notFound.Tool, "ant")
	}
}

func TestLocateToolIgnoresNonExecutable(t *testing.T) {
	pathDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(pathDir, "ant"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := &Context{
		StageDir: t.TempDir(),
		Env:      map[string]string{"PATH": pathDir},
	}

	if _, err := LocateTool(ctx, "ant"); err == nil {
		t.Error("LocateTool found a non-executable file, want error")
	}
}
