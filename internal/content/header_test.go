package content

import (
	"strings"
	"testing"
	"time"
)

func TestShouldInjectHeader(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"docs/Guide.HTML", true},
		{"notes.htm", true},
		{"example.rs", false},
		{"LICENSE", false},
	}
	for _, c := range cases {
		if got := ShouldInjectHeader(c.path); got != c.want {
			t.Errorf("ShouldInjectHeader(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestInjectHeader(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := InjectHeader("# Title\n", Provenance{
		Source:    "github.com/serde-rs/serde",
		GitRef:    "v1.0.203",
		Path:      "README.md",
		SourceURL: "https://raw.githubusercontent.com/serde-rs/serde/v1.0.203/README.md",
		Version:   "1.0.203",
	}, now)

	if !strings.HasPrefix(got, "<!-- AI-FDOCS: source=github.com/serde-rs/serde ref=v1.0.203 path=README.md fetched=2024-06-01 -->\n") {
		t.Errorf("unexpected header start:\n%s", got)
	}
	if !strings.Contains(got, "<!-- AI-FDOCS: url=https://raw.githubusercontent.com/serde-rs/serde/v1.0.203/README.md -->") {
		t.Error("missing url line")
	}
	if strings.Contains(got, "AI-FDOCS WARNING") {
		t.Error("warning should only appear for fallback content")
	}
	if !strings.HasSuffix(got, "\n# Title\n") {
		t.Errorf("body should follow a blank line:\n%s", got)
	}
}

func TestInjectHeaderFallbackWarning(t *testing.T) {
	got := InjectHeader("body", Provenance{
		Source:     "github.com/tokio-rs/tokio",
		GitRef:     "master",
		Path:       "README.md",
		SourceURL:  "https://raw.githubusercontent.com/tokio-rs/tokio/master/README.md",
		Version:    "1.38.0",
		IsFallback: true,
	}, time.Now())

	if !strings.Contains(got, "AI-FDOCS WARNING: No tag found for version 1.38.0. Fetched from 'master' branch.") {
		t.Errorf("missing fallback warning:\n%s", got)
	}
}
