package partition

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidateFeatureDisabled(t *testing.T) {
	if err := Validate(nil, false); err != nil {
		t.Errorf("Validate(nil, false) = %v, want nil", err)
	}
	if err := Validate([]string{}, false); err != nil {
		t.Errorf("Validate([], false) = %v, want nil", err)
	}

	err := Validate([]string{"anything"}, false)
	if err == nil {
		t.Fatal("Validate with partitions and feature disabled succeeded, want error")
	}
	want := "partitions are defined but the partition feature is not enabled"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestValidateSuccess(t *testing.T) {
	tests := [][]string{
		{"default"},
		{"default", "mypart"},
		{"default", "mypart1"},
		{"default", "my-part"},
		{"mypart", "mypart2"},
		{"mypart", "test/foo"},
		{"mypart", "test/mypart"},
		{"mypart", "test/foo-bar"},
		{"mypart", "test1/foo-bar2"},
		{"mypart", "test1/foo/bar2"},
		{"test1/mypart", "test1/mypart2"},
		{"test/foo-bar", "test/foo-baz"},
		{"test/foo-bar-baz", "test/foo-bar"},
	}

	for _, names := range tests {
		if err := Validate(names, true); err != nil {
			t.Errorf("Validate(%v, true) = %v, want nil", names, err)
		}
	}
}

func TestValidateFailure(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{[]string{}, "partition feature is enabled but no partitions are defined"},
		{[]string{"default", "default"}, "partitions must be unique"},
		{[]string{"default", "test/foo", "test/foo"}, "partitions must be unique"},
		{[]string{"default", "!!!"}, `partition "!!!" is invalid`},
		{[]string{"default", "-"}, `partition "-" is invalid`},
		{[]string{"default", "woop-"}, `partition "woop-" is invalid`},
		{[]string{"default", "woop."}, `partition "woop." is invalid`},
		{[]string{"default", "/"}, `namespaced partition "/" is invalid`},
		{[]string{"default", "test/!!!"}, `namespaced partition "test/!!!" is invalid`},
		{[]string{"default", "test/-"}, `namespaced partition "test/-" is invalid`},
		{[]string{"default", "te-st/foo"}, `namespaced partition "te-st/foo" is invalid`},
		{
			[]string{"default", "test", "test/foo"},
			"partition name conflicts:\n- 'test', 'test/foo'",
		},
		{
			[]string{"default", "test/foo/bar", "test/foo"},
			"partition name conflicts:\n- 'test/foo', 'test/foo/bar'",
		},
		{
			[]string{"default", "test-foo", "test/foo"},
			"partition name conflicts:\n- 'test-foo', 'test/foo'",
		},
		{
			[]string{
				"default",
				"test",
				"test/foo/bar/baz",
				"test/foo-bar/baz",
				"test/foo/bar-baz",
				"qux/baz",
				"qux-baz",
			},
			"partition name conflicts:\n" +
				"- 'test', 'test/foo-bar/baz', 'test/foo/bar-baz', 'test/foo/bar/baz'\n" +
				"- 'qux-baz', 'qux/baz'",
		},
	}

	for _, tt := range tests {
		err := Validate(tt.names, true)
		if err == nil {
			t.Errorf("Validate(%v, true) succeeded, want error", tt.names)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("Validate(%v, true) error = %q, want %q", tt.names, err.Error(), tt.want)
		}
	}
}

func TestDirMap(t *testing.T) {
	for _, suffix := range []string{"", "sub/sub/dir"} {
		got := DirMap("/base", []string{"foo", "a", "b/c-d"}, suffix)
		want := map[string]string{
			"foo":   filepath.Join("/base", suffix),
			"a":     filepath.Join("/base", "partitions/a", suffix),
			"b/c-d": filepath.Join("/base", "partitions/b/c-d", suffix),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("DirMap(suffix=%q) = %v, want %v", suffix, got, want)
		}
	}
}

func TestDirMapNoPartitions(t *testing.T) {
	got := DirMap("/base", nil, "stage")
	want := map[string]string{"": filepath.Join("/base", "stage")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DirMap = %v, want %v", got, want)
	}
}
