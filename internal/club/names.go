package club

import "strings"

// MaxNameLength is the longest sanitized player name.
const MaxNameLength = 20

// SanitizeName maps a free-form name onto its canonical key: only ASCII
// letters, digits and spaces survive, runs of spaces collapse, the result is
// trimmed, uppercased and cut to MaxNameLength. Two names are the same
// player iff their sanitized forms are equal.
func SanitizeName(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	space := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == ' ':
			space = b.Len() > 0
			continue
		default:
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteByte(c)
	}
	name := b.String()
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return name
}

// NormalizeID maps a typed join code onto its stored form: sanitized,
// without spaces. Codes are compared case-insensitively this way.
func NormalizeID(raw string) string {
	return strings.ReplaceAll(SanitizeName(raw), " ", "")
}
