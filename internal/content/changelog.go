// Package content post-processes fetched documentation before it is
// written to the cache: changelog windowing, size capping, provenance
// headers, and version comparison.
package content

import (
	"regexp"
	"strconv"
	"strings"
)

var changelogHeadingRe = regexp.MustCompile(`(?m)^#{1,3}\s+.*?\[?v?(\d+\.\d+\.\d+(?:-[\w.]+)?)\]?\b`)

// TruncateMarker is appended whenever older changelog entries are cut.
const TruncateMarker = "*[Earlier entries truncated by ai-fdocs]*"

// TruncateChangelog windows a changelog around the installed version:
// it keeps every entry for the current version plus one older minor
// series, then cuts. When the current version never appears, the first
// two entries are kept instead. Changelogs without recognizable version
// headings pass through untouched.
func TruncateChangelog(content, currentVersion string) string {
	type heading struct {
		pos     int
		version string
	}

	locs := changelogHeadingRe.FindAllStringSubmatchIndex(content, -1)
	headings := make([]heading, 0, len(locs))
	for _, loc := range locs {
		headings = append(headings, heading{pos: loc[0], version: content[loc[2]:loc[3]]})
	}
	if len(headings) == 0 {
		return content
	}

	currentMinor, currentOK := parseMinor(currentVersion)

	foundCurrent := false
	foundPreviousMinor := false
	cut := -1

	for _, h := range headings {
		if h.version == currentVersion {
			foundCurrent = true
			continue
		}

		if foundCurrent && !foundPreviousMinor {
			minor, ok := parseMinor(h.version)
			if !currentOK || !ok || minor != currentMinor {
				foundPreviousMinor = true
			}
			continue
		}

		if foundPreviousMinor {
			cut = h.pos
			break
		}
	}

	if !foundCurrent && len(headings) > 2 {
		cut = headings[2].pos
	}

	if cut < 0 {
		return content
	}
	return strings.TrimRight(content[:cut], " \t\n") + "\n---\n\n" + TruncateMarker + "\n"
}

type minorSeries struct {
	major uint64
	minor uint64
}

func parseMinor(version string) (minorSeries, bool) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return minorSeries{}, false
	}
	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return minorSeries{}, false
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return minorSeries{}, false
	}
	return minorSeries{major: major, minor: minor}, true
}
