package fetch

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// maxReferenceLinks caps the API-reference link list so a huge rustdoc
// index does not dominate the artifact.
const maxReferenceLinks = 20

// RenderDocsMarkdown converts a docs.rs crate page into the markdown
// layout stored in the cache: an overview line, the extracted page
// body, a link list into the rustdoc for the same version, and a
// minimal import stub.
func RenderDocsMarkdown(crateName, version, htmlSrc string) string {
	title := crateName + " " + version
	var mainContent string
	var links []string

	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err == nil {
		if t := extractTitle(doc); t != "" {
			title = t
		}
		if container := findContentContainer(doc); container != nil {
			mainContent = renderContainer(container)
		}
		links = collectVersionLinks(doc, fmt.Sprintf("/%s/%s/", crateName, version))
	}

	canonicalBase := fmt.Sprintf("https://docs.rs/%s/%s", crateName, version)
	inputURL := fmt.Sprintf("https://docs.rs/crate/%s/%s", crateName, version)

	var out strings.Builder
	fmt.Fprintf(&out, "# %s@%s\n\n", crateName, version)
	out.WriteString("## Overview\n\n")
	fmt.Fprintf(&out, "Generated from docs.rs page **%s** for `%s` `%s`.\n\n", title, crateName, version)

	if mainContent != "" {
		out.WriteString("## Documentation\n\n")
		out.WriteString(mainContent)
		out.WriteString("\n\n")
	}

	out.WriteString("## API Reference\n\n")
	fmt.Fprintf(&out, "- [crate page](%s)\n", inputURL)
	fmt.Fprintf(&out, "- [rustdoc root](%s/%s/)\n", canonicalBase, crateName)
	if len(links) > maxReferenceLinks {
		links = links[:maxReferenceLinks]
	}
	for _, link := range links {
		fmt.Fprintf(&out, "- [%s](https://docs.rs%s)\n", link, link)
	}

	out.WriteString("\n## Example\n\n")
	fmt.Fprintf(&out, "```rust\nuse %s as _;\n```\n\n", crateName)

	out.WriteString("---\n")
	fmt.Fprintf(&out, "Source: %s\n", inputURL)

	return out.String()
}

func extractTitle(doc *html.Node) string {
	node := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if node == nil {
		return ""
	}
	var sb strings.Builder
	collectText(node, &sb)
	return strings.TrimSpace(sb.String())
}

// findContentContainer locates the page body: docs.rs keeps it in
// <div id="main-content">, with <div class="docblock"> as the older
// layout.
func findContentContainer(doc *html.Node) *html.Node {
	if n := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && attrValue(n, "id") == "main-content"
	}); n != nil {
		return n
	}
	return findNode(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "div" {
			return false
		}
		for _, class := range strings.Fields(attrValue(n, "class")) {
			if class == "docblock" {
				return true
			}
		}
		return false
	})
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderContainer(n *html.Node) string {
	var sb strings.Builder
	walkMarkdown(n, &sb)
	return cleanMarkdownWhitespace(sb.String())
}

func walkMarkdown(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "pre":
			// Code blocks on docs.rs are overwhelmingly Rust.
			sb.WriteString("\n```rust\n")
			collectText(n, sb)
			sb.WriteString("\n```\n")
			return
		case "a":
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walkMarkdown(c, sb)
			}
			if href := attrValue(n, "href"); href != "" {
				sb.WriteString(" (")
				sb.WriteString(absoluteDocsURL(href))
				sb.WriteString(")")
			}
			return
		case "br":
			sb.WriteByte('\n')
			return
		case "p", "li", "div", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6":
			sb.WriteByte('\n')
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walkMarkdown(c, sb)
			}
			sb.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkMarkdown(c, sb)
	}
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// absoluteDocsURL anchors site-relative links to docs.rs so they stay
// useful once the markdown leaves the site.
func absoluteDocsURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "/"):
		return "https://docs.rs" + href
	default:
		return href
	}
}

// cleanMarkdownWhitespace trims every line and collapses runs of blank
// lines to a single one.
func cleanMarkdownWhitespace(s string) string {
	var out strings.Builder
	lastWasEmpty := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !lastWasEmpty {
				out.WriteByte('\n')
				lastWasEmpty = true
			}
			continue
		}
		out.WriteString(trimmed)
		out.WriteByte('\n')
		lastWasEmpty = false
	}
	return strings.TrimSpace(out.String())
}

// collectVersionLinks gathers, in document order and without
// duplicates, every href pointing into the rustdoc tree for this exact
// crate version.
func collectVersionLinks(doc *html.Node, prefix string) []string {
	var links []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); strings.HasPrefix(href, prefix) && !seen[href] {
				seen[href] = true
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}
