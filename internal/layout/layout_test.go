package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPartDirs(t *testing.T) {
	p := New("/project")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"src", p.PartSrc("app"), "/project/parts/app/src"},
		{"build", p.PartBuild("app"), "/project/parts/app/build"},
		{"install", p.PartInstall("app"), "/project/parts/app/install"},
		{"run", p.PartRun("app"), "/project/parts/app/run"},
		{"state", p.PartState("app", "build"), "/project/parts/app/state/build"},
		{"stage", p.Stage(), "/project/stage"},
		{"prime", p.Prime(), "/project/prime"},
		{"backstage", p.Backstage(), "/project/backstage"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestWithWorkDir(t *testing.T) {
	p := New("/project", WithWorkDir("/work"))

	if got, want := p.Dir(), "/project"; got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
	if got, want := p.PartBuild("app"), "/work/parts/app/build"; got != want {
		t.Errorf("PartBuild = %q, want %q", got, want)
	}
	if got, want := p.Stage(), "/work/stage"; got != want {
		t.Errorf("Stage = %q, want %q", got, want)
	}
}

func TestPartitionedDirs(t *testing.T) {
	p := New("/project", WithPartitions([]string{"default", "kernel"}))

	if got, want := p.Stage(), "/project/stage"; got != want {
		t.Errorf("Stage() = %q, want %q", got, want)
	}
	if got, want := p.StageFor("default"), "/project/stage"; got != want {
		t.Errorf("StageFor(default) = %q, want %q", got, want)
	}
	if got, want := p.StageFor("kernel"), "/project/partitions/kernel/stage"; got != want {
		t.Errorf("StageFor(kernel) = %q, want %q", got, want)
	}
	if got, want := p.PrimeFor("kernel"), "/project/partitions/kernel/prime"; got != want {
		t.Errorf("PrimeFor(kernel) = %q, want %q", got, want)
	}
}

func TestMkAndCleanPartDirs(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	if err := p.MkPartDirs("app"); err != nil {
		t.Fatalf("MkPartDirs: %v", err)
	}
	for _, d := range []string{p.PartSrc("app"), p.PartBuild("app"), p.PartInstall("app"), p.PartRun("app"), p.PartStateDir("app")} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("missing dir %s: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
	}

	if err := p.CleanPart("app"); err != nil {
		t.Fatalf("CleanPart: %v", err)
	}
	if _, err := os.Stat(p.PartDir("app")); !os.IsNotExist(err) {
		t.Errorf("part dir still exists after CleanPart")
	}
}

func TestMkSharedDirsPartitioned(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, WithPartitions([]string{"default", "boot"}))

	if err := p.MkSharedDirs(); err != nil {
		t.Fatalf("MkSharedDirs: %v", err)
	}
	for _, d := range []string{
		filepath.Join(dir, "stage"),
		filepath.Join(dir, "prime"),
		filepath.Join(dir, "backstage"),
		filepath.Join(dir, "partitions/boot/stage"),
		filepath.Join(dir, "partitions/boot/prime"),
	} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("missing shared dir %s: %v", d, err)
		}
	}

	if err := p.CleanAll(); err != nil {
		t.Fatalf("CleanAll: %v", err)
	}
	for _, d := range []string{
		filepath.Join(dir, "stage"),
		filepath.Join(dir, "partitions"),
		filepath.Join(dir, "backstage"),
	} {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("%s still exists after CleanAll", d)
		}
	}
}
