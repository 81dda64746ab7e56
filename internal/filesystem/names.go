package filesystem

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EscapeName makes a path safe to store as JSON text without losing bytes.
// Each byte that is not part of a valid UTF-8 sequence becomes \xNN and a
// literal backslash becomes \\, so two names that differ only in invalid
// bytes stay distinct. Names with neither pass through untouched.
func EscapeName(name string) string {
	if utf8.ValidString(name) && !strings.Contains(name, `\`) {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 8)
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&b, `\x%02x`, name[i])
		case r == '\\':
			b.WriteString(`\\`)
		default:
			b.WriteString(name[i : i+size])
		}
		i += size
	}
	return b.String()
}
