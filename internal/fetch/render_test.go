package fetch

import (
	"fmt"
	"strings"
	"testing"
)

func TestRenderDocsMarkdownFallbackTitle(t *testing.T) {
	md := RenderDocsMarkdown("demo", "1.0.0", "<html><body></body></html>")
	if !strings.Contains(md, "**demo 1.0.0**") {
		t.Errorf("expected crate+version fallback title:\n%s", md)
	}
	if !strings.Contains(md, "- [rustdoc root](https://docs.rs/demo/1.0.0/demo/)") {
		t.Error("rustdoc root link missing")
	}
}

func TestRenderDocsMarkdownDocblockFallbackContainer(t *testing.T) {
	page := `<html><body><div class="docblock other"><p>Body text here.</p></div></body></html>`
	md := RenderDocsMarkdown("demo", "1.0.0", page)
	if !strings.Contains(md, "## Documentation") || !strings.Contains(md, "Body text here.") {
		t.Errorf("docblock content missing:\n%s", md)
	}
}

func TestRenderDocsMarkdownAnnotatesLinks(t *testing.T) {
	page := `<html><body><div id="main-content">
See <a href="/demo/1.0.0/demo/">the docs</a> and <a href="https://example.com/x">this</a>.
</div></body></html>`
	md := RenderDocsMarkdown("demo", "1.0.0", page)

	if !strings.Contains(md, "the docs (https://docs.rs/demo/1.0.0/demo/)") {
		t.Errorf("relative link not absolutized:\n%s", md)
	}
	if !strings.Contains(md, "this (https://example.com/x)") {
		t.Errorf("absolute link not annotated:\n%s", md)
	}
}

func TestRenderDocsMarkdownCapsLinkList(t *testing.T) {
	var links strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&links, `<a href="/demo/1.0.0/demo/fn.f%d.html">f</a>`, i)
	}
	// One duplicate and one link for another version.
	links.WriteString(`<a href="/demo/1.0.0/demo/fn.f0.html">dup</a>`)
	links.WriteString(`<a href="/demo/0.9.0/demo/">old</a>`)

	page := "<html><body>" + links.String() + "</body></html>"
	md := RenderDocsMarkdown("demo", "1.0.0", page)

	count := strings.Count(md, "- [/demo/1.0.0/")
	if count != maxReferenceLinks {
		t.Errorf("reference links = %d, want %d", count, maxReferenceLinks)
	}
	if strings.Contains(md, "- [/demo/0.9.0/") {
		t.Error("other-version links should be excluded")
	}
}

func TestRenderDocsMarkdownPreBecomesFence(t *testing.T) {
	page := `<html><body><div id="main-content"><pre>let x = 1;
let y = 2;</pre></div></body></html>`
	md := RenderDocsMarkdown("demo", "1.0.0", page)

	if !strings.Contains(md, "```rust") {
		t.Errorf("pre should open a rust fence:\n%s", md)
	}
	if !strings.Contains(md, "let x = 1;") || !strings.Contains(md, "let y = 2;") {
		t.Error("code body lost")
	}
}

func TestCleanMarkdownWhitespace(t *testing.T) {
	in := "  a  \n\n\n\n b \n\n"
	got := cleanMarkdownWhitespace(in)
	if got != "a\n\nb" {
		t.Errorf("got %q, want %q", got, "a\n\nb")
	}
}

func TestRenderDocsMarkdownSkipsScripts(t *testing.T) {
	page := `<html><body><div id="main-content"><script>evil()</script><p>fine</p></div></body></html>`
	md := RenderDocsMarkdown("demo", "1.0.0", page)
	if strings.Contains(md, "evil()") {
		t.Error("script content should be dropped")
	}
	if !strings.Contains(md, "fine") {
		t.Error("paragraph content should survive")
	}
}
