package content

import (
	"strconv"
	"strings"
)

// IsVersionBetter reports whether newV sorts after currentBest. An
// empty currentBest always loses. Components are compared numerically
// when both parse, with a numeric component beating a missing or
// non-numeric one, and lexical comparison as the last resort. Good
// enough for semver-ish versions without a full semver parser.
func IsVersionBetter(newV, currentBest string) bool {
	if currentBest == "" {
		return true
	}

	newParts := strings.Split(newV, ".")
	bestParts := strings.Split(currentBest, ".")

	n := len(newParts)
	if len(bestParts) > n {
		n = len(bestParts)
	}

	for i := 0; i < n; i++ {
		nv, nOK := numericPart(newParts, i)
		bv, bOK := numericPart(bestParts, i)

		switch {
		case nOK && bOK && nv != bv:
			return nv > bv
		case nOK && !bOK:
			return true
		case !nOK && bOK:
			return false
		default:
			var ns, bs string
			if i < len(newParts) {
				ns = newParts[i]
			}
			if i < len(bestParts) {
				bs = bestParts[i]
			}
			if ns != bs {
				return ns > bs
			}
		}
	}

	return false
}

func numericPart(parts []string, i int) (uint64, bool) {
	if i >= len(parts) {
		return 0, false
	}
	v, err := strconv.ParseUint(parts[i], 10, 32)
	return v, err == nil
}
