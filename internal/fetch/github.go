package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// ResolvedRef is the git ref a crate version was pinned to, and whether
// resolution had to fall back to the repository default branch because
// no version tag matched.
type ResolvedRef struct {
	GitRef     string
	IsFallback bool
}

// FetchedFile is one documentation file pulled from the raw content
// host.
type FetchedFile struct {
	Path      string
	SourceURL string
	Content   string
}

// FileRequest names one file to fetch. Candidates are tried in order
// and the first hit wins; Path is the name the file is stored under
// regardless of which candidate matched.
type FileRequest struct {
	Path       string
	Candidates []string
	Required   bool
}

// BuildRequests produces the file requests for a crate. An explicit
// file list maps one request per file, each required, no casing
// candidates. Otherwise the defaults are an optional README and an
// optional CHANGELOG, each with common casing variants, prefixed by the
// crate subpath for workspace repositories.
func BuildRequests(subpath string, explicitFiles []string) []FileRequest {
	if len(explicitFiles) > 0 {
		reqs := make([]FileRequest, 0, len(explicitFiles))
		for _, f := range explicitFiles {
			reqs = append(reqs, FileRequest{
				Path:       f,
				Candidates: []string{f},
				Required:   true,
			})
		}
		return reqs
	}

	prefix := strings.Trim(subpath, "/")
	if prefix != "" {
		prefix += "/"
	}

	return []FileRequest{
		{
			Path: prefix + "README.md",
			Candidates: []string{
				prefix + "README.md",
				prefix + "Readme.md",
				prefix + "readme.md",
			},
		},
		{
			Path: prefix + "CHANGELOG.md",
			Candidates: []string{
				prefix + "CHANGELOG.md",
				prefix + "Changelog.md",
				prefix + "changelog.md",
			},
		},
	}
}

// RefFetcher resolves version tags and fetches raw files from GitHub.
type RefFetcher struct {
	client  HTTPClient
	apiBase string
	rawBase string
	token   string
}

// NewRefFetcher builds a fetcher against the public GitHub API,
// resolving the token from the environment.
func NewRefFetcher(logger *log.Logger) *RefFetcher {
	return NewRefFetcherWith(NewHTTPClient(), "https://api.github.com", "https://raw.githubusercontent.com", TokenFromEnv(logger))
}

// NewRefFetcherWith builds a fetcher against explicit base URLs. Tests
// point this at an httptest server.
func NewRefFetcherWith(client HTTPClient, apiBase, rawBase, token string) *RefFetcher {
	return &RefFetcher{
		client:  client,
		apiBase: strings.TrimRight(apiBase, "/"),
		rawBase: strings.TrimRight(rawBase, "/"),
		token:   token,
	}
}

func (f *RefFetcher) headers() map[string]string {
	h := map[string]string{"X-GitHub-Api-Version": githubAPIVersion}
	if f.token != "" {
		h["Authorization"] = "Bearer " + f.token
	}
	return h
}

// ResolveRef maps a crate version to a git ref by probing the tag
// shapes repositories commonly use, in order: v{version}, {version},
// {crate}-v{version}, {crate}-{version}. Only a 404 advances to the
// next candidate. When every candidate misses, the repository default
// branch is returned with IsFallback set.
func (f *RefFetcher) ResolveRef(ctx context.Context, repo, crateName, version string) (ResolvedRef, error) {
	candidates := []string{
		"v" + version,
		version,
		crateName + "-v" + version,
		crateName + "-" + version,
	}

	for _, tag := range candidates {
		url := fmt.Sprintf("%s/repos/%s/git/ref/tags/%s", f.apiBase, repo, tag)
		resp, err := sendWithRetry(ctx, f.client, url, f.headers(), policyGitHub)
		if err != nil {
			return ResolvedRef{}, err
		}
		code := resp.StatusCode
		resp.Body.Close()

		if code >= 200 && code < 300 {
			return ResolvedRef{GitRef: tag}, nil
		}
		if code != http.StatusNotFound {
			return ResolvedRef{}, &StatusError{URL: url, Status: code}
		}
	}

	url := fmt.Sprintf("%s/repos/%s", f.apiBase, repo)
	resp, err := sendWithRetry(ctx, f.client, url, f.headers(), policyGitHub)
	if err != nil {
		return ResolvedRef{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ResolvedRef{}, &StatusError{URL: url, Status: resp.StatusCode}
	}

	var info struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ResolvedRef{}, fmt.Errorf("decoding repo info from %s: %w", url, err)
	}

	return ResolvedRef{GitRef: info.DefaultBranch, IsFallback: true}, nil
}

// FileResult pairs one request with its outcome; FetchFiles reports
// per-file results so one miss does not sink the whole crate.
type FileResult struct {
	File FetchedFile
	Err  error
}

// FetchFiles fetches every requested file at the given ref.
func (f *RefFetcher) FetchFiles(ctx context.Context, repo, gitRef string, requests []FileRequest) []FileResult {
	results := make([]FileResult, 0, len(requests))
	for _, req := range requests {
		file, err := f.fetchFile(ctx, repo, gitRef, req)
		results = append(results, FileResult{File: file, Err: err})
	}
	return results
}

func (f *RefFetcher) fetchFile(ctx context.Context, repo, gitRef string, req FileRequest) (FetchedFile, error) {
	tried := make([]string, 0, len(req.Candidates))

	for _, candidate := range req.Candidates {
		tried = append(tried, candidate)
		url := fmt.Sprintf("%s/%s/%s/%s", f.rawBase, repo, gitRef, candidate)
		resp, err := sendWithRetry(ctx, f.client, url, f.headers(), policyGitHub)
		if err != nil {
			return FetchedFile{}, err
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			code := resp.StatusCode
			resp.Body.Close()
			return FetchedFile{}, &StatusError{URL: url, Status: code}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return FetchedFile{}, &TransportError{URL: url, Err: err}
		}

		return FetchedFile{Path: req.Path, SourceURL: url, Content: string(body)}, nil
	}

	if req.Required {
		return FetchedFile{}, &FileNotFoundError{Repo: repo, Path: req.Path, Tried: tried}
	}
	return FetchedFile{}, &OptionalFileNotFoundError{Path: req.Path}
}
