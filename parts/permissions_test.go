package parts

import (
	"os"
	"path/filepath"
	"testing"
)

func intp(n int) *int { return &n }

func TestPermissionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Permissions
		wantErr bool
	}{
		{"empty defaults to everything", Permissions{}, false},
		{"mode only", Permissions{Mode: "755"}, false},
		{"owner and group", Permissions{Owner: intp(1000), Group: intp(1000)}, false},
		{"owner without group", Permissions{Owner: intp(1000)}, true},
		{"group without owner", Permissions{Group: intp(1000)}, true},
		{"bad mode", Permissions{Mode: "99x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.p.Path == "" {
				t.Error("Validate left Path empty, want *")
			}
		})
	}
}

func TestModeBits(t *testing.T) {
	tests := []struct {
		mode string
		want os.FileMode
	}{
		{"755", 0o755},
		{"0755", 0o755},
		{"0o755", 0o755},
		{"644", 0o644},
	}

	for _, tt := range tests {
		p := Permissions{Mode: tt.mode}
		got, err := p.ModeBits()
		if err != nil {
			t.Errorf("ModeBits(%q): %v", tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ModeBits(%q) = %o, want %o", tt.mode, got, tt.want)
		}
	}
}

func TestAppliesTo(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*", "anything/at/all", true},
		{"", "anything", true},
		{"usr/share/*", "usr/share/doc/readme", true},
		{"usr/share/*", "usr/bin/tool", false},
		{"*.jar", "lib/app.jar", true},
		{"bin/?", "bin/a", true},
		{"bin/?", "bin/ab", false},
	}

	for _, tt := range tests {
		p := Permissions{Path: tt.pattern}
		if got := p.AppliesTo(tt.path); got != tt.want {
			t.Errorf("AppliesTo(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestApplyMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := Permissions{Mode: "700"}
	if err := p.Apply(path); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o700 {
		t.Errorf("mode = %o, want %o", got, 0o700)
	}
}

func TestFilterPermissions(t *testing.T) {
	perms := []Permissions{
		{Path: "*", Mode: "755"},
		{Path: "etc/*", Mode: "600"},
		{Path: "usr/*", Mode: "644"},
	}

	got := FilterPermissions("etc/passwd", perms)
	if len(got) != 2 {
		t.Fatalf("FilterPermissions matched %d entries, want 2", len(got))
	}
	if got[0].Path != "*" || got[1].Path != "etc/*" {
		t.Errorf("FilterPermissions = %v, want * then etc/*", got)
	}
}

func TestPermissionsAreCompatible(t *testing.T) {
	tests := []struct {
		name  string
		left  []Permissions
		right []Permissions
		want  bool
	}{
		{"both empty", nil, nil, true},
		{"one empty", []Permissions{{Mode: "755"}}, nil, true},
		{
			"same mode different spellings",
			[]Permissions{{Mode: "755"}},
			[]Permissions{{Mode: "0755"}},
			true,
		},
		{
			"different modes",
			[]Permissions{{Mode: "755"}},
			[]Permissions{{Mode: "644"}},
			false,
		},
		{
			"mode set only on one side",
			[]Permissions{{Mode: "755"}},
			[]Permissions{{Owner: intp(1), Group: intp(1)}},
			false,
		},
		{
			"later entry wins before comparing",
			[]Permissions{{Mode: "600"}, {Mode: "755"}},
			[]Permissions{{Mode: "755"}},
			true,
		},
		{
			"different owners",
			[]Permissions{{Owner: intp(1), Group: intp(1)}},
			[]Permissions{{Owner: intp(2), Group: intp(1)}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PermissionsAreCompatible(tt.left, tt.right); got != tt.want {
				t.Errorf("PermissionsAreCompatible = %v, want %v", got, tt.want)
			}
		})
	}
}
