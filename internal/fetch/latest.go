package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/content"
)

// DocsArtifact is a rendered docs.rs crate page, ready to store as a
// markdown file.
type DocsArtifact struct {
	Markdown  string
	InputURL  string
	Truncated bool
}

// CrateInfo is the subset of the crates.io crate record this tool
// cares about.
type CrateInfo struct {
	MaxStableVersion string
	MaxVersion       string
	Repository       string
	Homepage         string
}

// LatestFetcher resolves published versions via crates.io and renders
// docs.rs pages to markdown.
type LatestFetcher struct {
	client     HTTPClient
	cratesBase string
	docsBase   string
}

// NewLatestFetcher builds a fetcher against the public crates.io and
// docs.rs hosts.
func NewLatestFetcher() *LatestFetcher {
	return NewLatestFetcherWith(NewHTTPClient(), "https://crates.io", "https://docs.rs")
}

// NewLatestFetcherWith builds a fetcher against explicit base URLs for
// tests.
func NewLatestFetcherWith(client HTTPClient, cratesBase, docsBase string) *LatestFetcher {
	return &LatestFetcher{
		client:     client,
		cratesBase: strings.TrimRight(cratesBase, "/"),
		docsBase:   strings.TrimRight(docsBase, "/"),
	}
}

// CrateInfo fetches the crates.io record for a crate.
func (f *LatestFetcher) CrateInfo(ctx context.Context, crateName string) (CrateInfo, error) {
	url := fmt.Sprintf("%s/api/v1/crates/%s", f.cratesBase, crateName)
	resp, err := sendWithRetry(ctx, f.client, url, nil, policyPlain)
	if err != nil {
		return CrateInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CrateInfo{}, &StatusError{URL: url, Status: resp.StatusCode}
	}

	var body struct {
		Crate struct {
			MaxStableVersion string `json:"max_stable_version"`
			MaxVersion       string `json:"max_version"`
			Repository       string `json:"repository"`
			Homepage         string `json:"homepage"`
		} `json:"crate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CrateInfo{}, fmt.Errorf("decoding crates.io response from %s: %w", url, err)
	}

	return CrateInfo{
		MaxStableVersion: body.Crate.MaxStableVersion,
		MaxVersion:       body.Crate.MaxVersion,
		Repository:       body.Crate.Repository,
		Homepage:         body.Crate.Homepage,
	}, nil
}

// ResolveLatestVersion returns the newest published version of a crate,
// preferring the newest stable release over pre-releases.
func (f *LatestFetcher) ResolveLatestVersion(ctx context.Context, crateName string) (string, error) {
	info, err := f.CrateInfo(ctx, crateName)
	if err != nil {
		return "", err
	}
	if v := strings.TrimSpace(info.MaxStableVersion); v != "" {
		return v, nil
	}
	if info.MaxVersion != "" {
		return info.MaxVersion, nil
	}
	return "", fmt.Errorf("crates.io response for '%s' has no max version", crateName)
}

// FetchAPIMarkdown fetches the docs.rs page for a crate version and
// renders it to a size-capped markdown artifact.
func (f *LatestFetcher) FetchAPIMarkdown(ctx context.Context, crateName, version string, maxFileSizeKB int) (DocsArtifact, error) {
	inputURL := fmt.Sprintf("%s/crate/%s/%s", f.docsBase, crateName, version)
	resp, err := sendWithRetry(ctx, f.client, inputURL, nil, policyPlain)
	if err != nil {
		return DocsArtifact{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DocsArtifact{}, &StatusError{URL: inputURL, Status: resp.StatusCode}
	}

	htmlSrc, err := io.ReadAll(resp.Body)
	if err != nil {
		return DocsArtifact{}, &TransportError{URL: inputURL, Err: err}
	}

	markdown := RenderDocsMarkdown(crateName, version, string(htmlSrc))
	markdown, truncated := content.TruncateIfNeeded(markdown, maxFileSizeKB)

	return DocsArtifact{
		Markdown:  markdown,
		InputURL:  fmt.Sprintf("https://docs.rs/crate/%s/%s", crateName, version),
		Truncated: truncated,
	}, nil
}

// FallbackEligible reports whether a docs.rs failure should degrade to
// the GitHub README path instead of failing the crate: upstream
// not-found, throttling, server errors, and transport failures qualify;
// everything else is a real error.
func FallbackEligible(err error) bool {
	var (
		status    *StatusError
		transport *TransportError
	)
	switch {
	case errors.As(err, &status):
		return status.Status == 404 || status.Status == 429 ||
			(status.Status >= 500 && status.Status < 600)
	case errors.As(err, &transport):
		return true
	default:
		return false
	}
}
