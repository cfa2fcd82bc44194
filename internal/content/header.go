package content

import (
	"fmt"
	"strings"
	"time"
)

// Provenance describes where a stored file came from, for the comment
// header injected into markup files.
type Provenance struct {
	Source     string // e.g. "github.com/owner/repo" or a docs.rs URL
	GitRef     string
	Path       string
	SourceURL  string
	Version    string
	IsFallback bool
}

// ShouldInjectHeader reports whether a file format tolerates an HTML
// comment header. Code samples and plain text are left untouched.
func ShouldInjectHeader(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".htm")
}

// InjectHeader prepends the provenance comment block. When the content
// came from a default-branch fallback, a warning line flags that it may
// not match the installed version.
func InjectHeader(body string, p Provenance, now time.Time) string {
	date := now.UTC().Format("2006-01-02")

	var header strings.Builder
	fmt.Fprintf(&header, "<!-- AI-FDOCS: source=%s ref=%s path=%s fetched=%s -->\n", p.Source, p.GitRef, p.Path, date)
	fmt.Fprintf(&header, "<!-- AI-FDOCS: url=%s -->\n", p.SourceURL)
	if p.IsFallback {
		fmt.Fprintf(&header, "<!-- AI-FDOCS WARNING: No tag found for version %s. Fetched from '%s' branch. Content may not match installed version. -->\n", p.Version, p.GitRef)
	}

	return header.String() + "\n" + body
}
