package states

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smeltbuild/smelt/parts"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		target Step
		want   []Step
	}{
		{Pull, []Step{Pull}},
		{Build, []Step{Pull, Build}},
		{Stage, []Step{Pull, Build, Stage}},
		{Prime, []Step{Pull, Build, Stage, Prime}},
	}

	for _, tt := range tests {
		if got := Sequence(tt.target); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Sequence(%s) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestParseStep(t *testing.T) {
	if _, err := ParseStep("build"); err != nil {
		t.Errorf("ParseStep(build) = %v, want nil", err)
	}
	if _, err := ParseStep("deploy"); err == nil {
		t.Error("ParseStep(deploy) succeeded, want error")
	}
}

func TestSaveLoadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "build")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load of absent state: %v", err)
	}
	if loaded != nil {
		t.Fatalf("Load of absent state = %+v, want nil", loaded)
	}

	saved := &State{
		ExecutionID:    "f3c9f1aa-0000-0000-0000-000000000000",
		PartProperties: map[string]string{"plugin": "ant"},
		ProjectOptions: map[string]string{"partitions": ""},
		Files:          []string{"bin/tool"},
		Directories:    []string{"bin"},
	}
	if err := Save(path, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, saved) {
		t.Errorf("Load = %+v, want %+v", loaded, saved)
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("state file still present after Remove")
	}
	if err := Remove(path); err != nil {
		t.Errorf("second Remove = %v, want nil", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	if err := os.WriteFile(path, []byte("\t- broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of invalid yaml succeeded, want error")
	}
}

func mustParse(t *testing.T, src string) *parts.Project {
	t.Helper()
	project, err := parts.ParseProject([]byte(src))
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	return project
}

func TestPropertiesOfInterestPerStep(t *testing.T) {
	project := mustParse(t, `
parts:
  app:
    plugin: ant
    source: https://example.com/app.git
    source-tag: v1.2
    ant-build-targets: [jar]
    build-environment:
      - JAVA_OPTS: -Xmx1g
    override-build: ant dist
    stage: [bin, jar]
    prime: ["-jar/tests.jar"]
`)
	part := project.Part("app")

	pull, err := PropertiesOfInterest(part, Pull)
	if err != nil {
		t.Fatal(err)
	}
	if pull["source"] != "https://example.com/app.git" || pull["source-tag"] != "v1.2" {
		t.Errorf("pull properties = %v", pull)
	}
	if _, ok := pull["plugin"]; ok {
		t.Error("pull properties include the plugin")
	}

	build, err := PropertiesOfInterest(part, Build)
	if err != nil {
		t.Fatal(err)
	}
	if build["plugin"] != "ant" {
		t.Errorf("build plugin = %q, want %q", build["plugin"], "ant")
	}
	if build["override-build"] != "ant dist" {
		t.Errorf("build override = %q", build["override-build"])
	}
	if build["build-environment"] != "JAVA_OPTS=-Xmx1g" {
		t.Errorf("build environment = %q", build["build-environment"])
	}
	if _, ok := build["source"]; ok {
		t.Error("build properties include the source")
	}

	stage, err := PropertiesOfInterest(part, Stage)
	if err != nil {
		t.Fatal(err)
	}
	if stage["stage"] != "bin\njar" {
		t.Errorf("stage fileset = %q", stage["stage"])
	}

	prime, err := PropertiesOfInterest(part, Prime)
	if err != nil {
		t.Fatal(err)
	}
	if prime["prime"] != "-jar/tests.jar" {
		t.Errorf("prime fileset = %q", prime["prime"])
	}
}

func TestReorderedOptionsChangeBuildProperties(t *testing.T) {
	first := mustParse(t, `
parts:
  app:
    plugin: ant
    ant-properties:
      alpha: "1"
      beta: "2"
`)
	second := mustParse(t, `
parts:
  app:
    plugin: ant
    ant-properties:
      beta: "2"
      alpha: "1"
`)

	propsFirst, err := PropertiesOfInterest(first.Part("app"), Build)
	if err != nil {
		t.Fatal(err)
	}
	propsSecond, err := PropertiesOfInterest(second.Part("app"), Build)
	if err != nil {
		t.Fatal(err)
	}

	diff := Diff(propsFirst, propsSecond)
	if !reflect.DeepEqual(diff, []string{"options"}) {
		t.Errorf("Diff = %v, want [options]", diff)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		saved   map[string]string
		current map[string]string
		want    []string
	}{
		{"both nil", nil, nil, nil},
		{"nil equals empty values", nil, map[string]string{"override-pull": ""}, nil},
		{"equal", map[string]string{"a": "1"}, map[string]string{"a": "1"}, nil},
		{
			"changed and added",
			map[string]string{"a": "1", "b": "2"},
			map[string]string{"a": "x", "c": "3"},
			[]string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Diff(tt.saved, tt.current); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff = %v, want %v", got, tt.want)
			}
		})
	}
}
