package parts

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Permissions assigns ownership and mode bits to the files a part
// contributes. Path is a shell-style pattern relative to the target
// tree and defaults to everything; '*' crosses directory separators.
// Owner and group are numeric IDs and must be set together. Mode is an
// octal string: "755", "0755" and "0o755" are all accepted.
type Permissions struct {
	Path  string `yaml:"path,omitempty"`
	Owner *int   `yaml:"owner,omitempty"`
	Group *int   `yaml:"group,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
}

// Validate normalizes the pattern and checks the owner/group pairing
// and the mode string.
func (p *Permissions) Validate() error {
	if p.Path == "" {
		p.Path = "*"
	}
	if (p.Owner == nil) != (p.Group == nil) {
		return fmt.Errorf("if either 'owner' or 'group' is set, both must be")
	}
	if p.Mode != "" {
		if _, err := p.ModeBits(); err != nil {
			return err
		}
	}
	return nil
}

// ModeBits parses the octal mode string.
func (p *Permissions) ModeBits() (os.FileMode, error) {
	s := strings.TrimPrefix(p.Mode, "0o")
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permissions mode %q: %w", p.Mode, err)
	}
	return os.FileMode(n), nil
}

// AppliesTo reports whether the pattern matches path.
func (p *Permissions) AppliesTo(path string) bool {
	if p.Path == "*" || p.Path == "" {
		return true
	}
	return fnmatch(p.Path, path)
}

// Apply sets the configured mode and ownership on target. The caller
// is expected to have checked AppliesTo first.
func (p *Permissions) Apply(target string) error {
	if p.Mode != "" {
		mode, err := p.ModeBits()
		if err != nil {
			return err
		}
		if err := os.Chmod(target, mode); err != nil {
			return err
		}
	}
	if p.Owner != nil && p.Group != nil {
		if err := os.Chown(target, *p.Owner, *p.Group); err != nil {
			return err
		}
	}
	return nil
}

// FilterPermissions returns the subset of permissions whose patterns
// apply to target.
func FilterPermissions(target string, permissions []Permissions) []Permissions {
	var out []Permissions
	for _, p := range permissions {
		if p.AppliesTo(target) {
			out = append(out, p)
		}
	}
	return out
}

// ApplyPermissions applies every entry in permissions to target.
func ApplyPermissions(target string, permissions []Permissions) error {
	for _, p := range permissions {
		if err := p.Apply(target); err != nil {
			return err
		}
	}
	return nil
}

// PermissionsAreCompatible reports whether applying the two permission
// sets to the same path would produce the same owner, group and mode.
// An empty set conflicts with nothing. Patterns are ignored; callers
// filter first.
func PermissionsAreCompatible(left, right []Permissions) bool {
	if len(left) == 0 || len(right) == 0 {
		return true
	}

	sl := squashPermissions(left)
	sr := squashPermissions(right)

	if !intPtrEqual(sl.Owner, sr.Owner) || !intPtrEqual(sl.Group, sr.Group) {
		return false
	}
	if sl.Mode == "" && sr.Mode == "" {
		return true
	}
	if sl.Mode == "" || sr.Mode == "" {
		return false
	}
	lm, err := sl.ModeBits()
	if err != nil {
		return false
	}
	rm, err := sr.ModeBits()
	if err != nil {
		return false
	}
	return lm == rm
}

// squashPermissions compresses a sequence into one entry whose
// application equals applying the whole list in order.
func squashPermissions(permissions []Permissions) Permissions {
	out := Permissions{Path: "*"}
	for _, p := range permissions {
		if p.Owner != nil {
			out.Owner = p.Owner
		}
		if p.Group != nil {
			out.Group = p.Group
		}
		if p.Mode != "" {
			out.Mode = p.Mode
		}
	}
	return out
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// fnmatch implements shell-style pattern matching where '*' and '?'
// cross directory separators and '[...]' character sets are honored.
func fnmatch(pattern, name string) bool {
	var b strings.Builder
	b.WriteString(`^`)
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			set := pattern[i+1 : i+1+end]
			if strings.HasPrefix(set, "!") {
				set = "^" + set[1:]
			}
			b.WriteString("[" + set + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
