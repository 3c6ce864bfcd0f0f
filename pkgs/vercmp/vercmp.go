// Package vercmp orders version strings the way GNU filevercmp does:
// digit runs compare by numeric value, letters sort before other bytes,
// and '~' sorts before everything including the end of the string.
//
// This ordering handles the version shapes found in tool install trees,
// none of which are semver: "17.0.10", "1.8.0_392", "java-21-openjdk".
package vercmp

// Compare returns an integer comparing two version strings.
// The result is negative when a orders before b, zero when the two are
// equivalent (leading zeros in numeric runs are insignificant), and
// positive when a orders after b.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// Non-digit run: byte order with letters first, '~' lowest.
		for (i < len(a) && !digit(a[i])) || (j < len(b) && !digit(b[j])) {
			var ca, cb byte
			if i < len(a) {
				ca = a[i]
			}
			if j < len(b) {
				cb = b[j]
			}
			if wa, wb := weight(ca), weight(cb); wa != wb {
				return wa - wb
			}
			i++
			j++
		}

		// Digit run: numeric comparison. A longer run of significant
		// digits is the larger number; otherwise the first differing
		// digit decides.
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		lead := 0
		for i < len(a) && j < len(b) && digit(a[i]) && digit(b[j]) {
			if lead == 0 {
				lead = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && digit(a[i]) {
			return 1
		}
		if j < len(b) && digit(b[j]) {
			return -1
		}
		if lead != 0 {
			return lead
		}
	}
	return 0
}

// Latest returns the highest version in vs, or "" when vs is empty.
func Latest(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// weight ranks a byte for the non-digit phase: digits and end-of-string
// rank 0 so a digit run on one side pairs with the end of the other,
// letters rank by their own value, '~' ranks below everything, and any
// other byte ranks after all letters.
func weight(c byte) int {
	switch {
	case digit(c) || c == 0:
		return 0
	case alpha(c):
		return int(c)
	case c == '~':
		return -1
	}
	return int(c) + 256
}

func digit(c byte) bool { return '0' <= c && c <= '9' }

func alpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
