package content

import (
	"fmt"
	"unicode/utf8"
)

// TruncateIfNeeded caps content at maxSizeKB kilobytes, cutting on a
// rune boundary and appending a visible marker. The returned bool
// reports whether a cut happened.
func TruncateIfNeeded(content string, maxSizeKB int) (string, bool) {
	maxBytes := maxSizeKB * 1024
	if len(content) <= maxBytes {
		return content, false
	}

	boundary := floorRuneBoundary(content, maxBytes)
	return fmt.Sprintf("%s\n\n[TRUNCATED by ai-fdocs at %dKB]\n", content[:boundary], maxSizeKB), true
}

// floorRuneBoundary rounds idx down to the nearest rune boundary so a
// byte-level cut never splits a multi-byte character.
func floorRuneBoundary(s string, idx int) int {
	if idx > len(s) {
		idx = len(s)
	}
	for idx > 0 && idx < len(s) && !utf8.RuneStart(s[idx]) {
		idx--
	}
	return idx
}
