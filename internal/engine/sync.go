package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/lock"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/store"
)

// Engine runs sync passes over the configured crates.
type Engine struct {
	Cfg    *config.Config
	Store  *store.Store
	GitHub *fetch.RefFetcher
	Latest *fetch.LatestFetcher
	Log    *log.Logger

	// LockPath is where the Cargo.lock lives; relative to the working
	// directory by default.
	LockPath string
}

// Options selects what a sync pass does.
type Options struct {
	Mode  config.SyncMode
	Force bool
}

// Run executes one sync pass and regenerates the cache index. The
// returned stats cover every configured crate; per-crate failures are
// counted, not returned.
func (e *Engine) Run(ctx context.Context, opts Options) (Stats, error) {
	var lockVersions map[string]string

	if opts.Mode != config.ModeLatestDocs {
		versions, err := lock.Resolve(e.lockPath())
		if err != nil {
			return Stats{}, err
		}
		lockVersions = versions

		if e.Cfg.Settings.Prune {
			if err := e.Store.Prune(e.Cfg.Crates, lockVersions); err != nil {
				return Stats{}, err
			}
		}
	}

	names := make([]string, 0, len(e.Cfg.Crates))
	for name := range e.Cfg.Crates {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := e.runPool(ctx, names, func(ctx context.Context, name string) Outcome {
		spec := e.Cfg.Crates[name]
		switch opts.Mode {
		case config.ModeLatestDocs:
			return e.syncLatest(ctx, name, spec, opts.Force)
		case config.ModeHybrid:
			return e.syncPinned(ctx, name, spec, lockVersions, opts.Force, true)
		default:
			return e.syncPinned(ctx, name, spec, lockVersions, opts.Force, false)
		}
	})

	var stats Stats
	var saved []store.SavedCrate
	for _, outcome := range outcomes {
		switch outcome.Kind {
		case OutcomeSynced:
			stats.Synced++
			saved = append(saved, *outcome.Saved)
		case OutcomeCached:
			stats.Cached++
			if outcome.Saved != nil {
				saved = append(saved, *outcome.Saved)
			}
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeError:
			stats.recordError(outcome.ErrKind)
		}
	}

	if err := e.Store.WriteIndex(saved); err != nil {
		return stats, err
	}

	e.Log.Info("sync complete",
		"synced", stats.Synced, "cached", stats.Cached,
		"skipped", stats.Skipped, "errors", stats.Errors)
	if stats.Errors > 0 {
		e.Log.Info("error breakdown",
			"auth", stats.AuthErrors, "rate-limit", stats.RateLimitErrors,
			"network", stats.NetworkErrors, "not-found", stats.NotFoundErrors,
			"other", stats.OtherErrors)
	}

	return stats, nil
}

func (e *Engine) lockPath() string {
	if e.LockPath != "" {
		return e.LockPath
	}
	return "Cargo.lock"
}

// runPool fans the crates out over a bounded worker pool. A panicking
// worker is counted as an error instead of taking the process down.
func (e *Engine) runPool(ctx context.Context, names []string, worker func(context.Context, string) Outcome) []Outcome {
	concurrency := e.Cfg.Settings.SyncConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(names))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, name string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					e.Log.Error("sync worker panicked", "crate", name, "panic", r)
					outcomes[i] = Outcome{Kind: OutcomeError, ErrKind: fetch.KindOther}
				}
			}()
			outcomes[i] = worker(ctx, name)
		}(i, name)
	}
	wg.Wait()

	return outcomes
}

// syncPinned syncs one crate at its Cargo.lock version, from GitHub
// alone or, in hybrid mode, docs.rs first with GitHub for the rest.
func (e *Engine) syncPinned(ctx context.Context, name string, spec config.CrateSpec, lockVersions map[string]string, force, hybrid bool) Outcome {
	version, ok := lockVersions[name]
	if !ok {
		e.Log.Warn("crate not found in Cargo.lock, skipping", "crate", name)
		return Outcome{Kind: OutcomeSkipped}
	}

	if !force && e.Store.IsCached(name, version) {
		e.Log.Info("cached, skipping", "crate", name, "version", version)
		return Outcome{Kind: OutcomeCached, Saved: e.cachedInfo(name, version, spec)}
	}

	e.Log.Info("syncing", "crate", name, "version", version)

	if hybrid {
		return e.syncHybrid(ctx, name, spec, version)
	}
	return e.syncFromGitHub(ctx, name, spec, version, "")
}

// syncHybrid prefers the docs.rs rendering for the README and fills in
// the remaining files from the repository at the pinned version.
func (e *Engine) syncHybrid(ctx context.Context, name string, spec config.CrateSpec, version string) Outcome {
	var artifact *fetch.DocsArtifact
	art, err := e.Latest.FetchAPIMarkdown(ctx, name, version, e.Cfg.Settings.MaxFileSizeKB)
	if err != nil {
		e.Log.Warn("docs.rs fetch failed, will use repository README", "crate", name, "version", version, "err", err)
	} else {
		e.Log.Debug("docs.rs page fetched", "crate", name, "version", version)
		artifact = &art
	}

	repo := spec.GitHubRepo()
	if repo == "" {
		if artifact != nil {
			return e.saveArtifact(name, version, *artifact, spec)
		}
		e.Log.Warn("crate has no GitHub repo in config", "crate", name)
		return Outcome{Kind: OutcomeSkipped}
	}

	resolved, err := e.GitHub.ResolveRef(ctx, repo, name, version)
	if err != nil {
		e.Log.Warn("failed to resolve ref", "crate", name, "version", version, "err", err)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}

	requests := fetch.BuildRequests(spec.Subpath, spec.EffectiveFiles())
	if artifact != nil {
		kept := requests[:0]
		for _, req := range requests {
			if !isReadmeRequest(req.Path) {
				kept = append(kept, req)
			}
		}
		requests = kept
	}

	files := e.collectFiles(ctx, name, version, repo, resolved.GitRef, requests)
	if artifact != nil {
		files = append(files, fetch.FetchedFile{
			Path:      "README.md",
			SourceURL: artifact.InputURL,
			Content:   artifact.Markdown,
		})
	}
	if len(files) == 0 {
		e.Log.Warn("no files fetched", "crate", name, "version", version)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.KindNotFound}
	}

	saved, err := e.Store.SaveFiles(store.SaveContext{
		Repo:       repo,
		Ref:        resolved,
		SourceKind: "hybrid_docsrs_github",
	}, name, version, files, spec)
	if err != nil {
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}
	return Outcome{Kind: OutcomeSynced, Saved: &saved}
}

// syncLatest syncs one crate at its newest published version, rendered
// from docs.rs, falling back to the repository when docs.rs is down.
func (e *Engine) syncLatest(ctx context.Context, name string, spec config.CrateSpec, force bool) Outcome {
	version, err := e.Latest.ResolveLatestVersion(ctx, name)
	if err != nil {
		e.Log.Warn("failed to resolve latest version", "crate", name, "err", err)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}

	if !force && e.Store.IsCached(name, version) {
		if meta, ok := e.Store.Meta(name, version); ok {
			if store.FreshWithin(meta.FetchedAt, e.Cfg.Settings.LatestTTLHours, e.Store.Now()) {
				e.Log.Info("cached and fresh, skipping", "crate", name, "version", version)
				return Outcome{Kind: OutcomeCached, Saved: e.cachedInfo(name, version, spec)}
			}
			e.Log.Info("cache TTL expired, refreshing", "crate", name, "version", version)
		}
	}

	artifact, err := e.Latest.FetchAPIMarkdown(ctx, name, version, e.Cfg.Settings.MaxFileSizeKB)
	switch {
	case err == nil:
		return e.saveArtifact(name, version, artifact, spec)
	case fetch.FallbackEligible(err):
		e.Log.Warn("docs.rs unavailable, trying GitHub fallback", "crate", name, "version", version, "err", err)
		return e.syncFromGitHub(ctx, name, spec, version, "github_fallback")
	default:
		e.Log.Warn("docs.rs fetch failed", "crate", name, "version", version, "err", err)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}
}

// syncFromGitHub fetches the configured files from the repository at
// the given version. sourceKind overrides the recorded source when the
// call is a fallback from docs.rs.
func (e *Engine) syncFromGitHub(ctx context.Context, name string, spec config.CrateSpec, version, sourceKind string) Outcome {
	repo := spec.GitHubRepo()
	if repo == "" {
		e.Log.Warn("crate has no GitHub repo in config", "crate", name)
		if sourceKind != "" {
			return Outcome{Kind: OutcomeError, ErrKind: fetch.KindOther}
		}
		return Outcome{Kind: OutcomeSkipped}
	}

	resolved, err := e.GitHub.ResolveRef(ctx, repo, name, version)
	if err != nil {
		e.Log.Warn("failed to resolve ref", "crate", name, "version", version, "err", err)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}

	requests := fetch.BuildRequests(spec.Subpath, spec.EffectiveFiles())
	files := e.collectFiles(ctx, name, version, repo, resolved.GitRef, requests)
	if len(files) == 0 {
		e.Log.Warn("no files fetched", "crate", name, "version", version)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.KindNotFound}
	}

	if sourceKind == "" {
		sourceKind = "github"
	}
	saved, err := e.Store.SaveFiles(store.SaveContext{
		Repo:       repo,
		Ref:        resolved,
		SourceKind: sourceKind,
	}, name, version, files, spec)
	if err != nil {
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}
	return Outcome{Kind: OutcomeSynced, Saved: &saved}
}

func (e *Engine) saveArtifact(name, version string, artifact fetch.DocsArtifact, spec config.CrateSpec) Outcome {
	saved, err := e.Store.SaveDocsArtifact(name, version, artifact, spec)
	if err != nil {
		e.Log.Warn("failed to save docs.rs artifact", "crate", name, "version", version, "err", err)
		return Outcome{Kind: OutcomeError, ErrKind: fetch.ClassifyKind(err)}
	}
	return Outcome{Kind: OutcomeSynced, Saved: &saved}
}

// collectFiles fetches the requested files, dropping optional misses
// and logging everything else.
func (e *Engine) collectFiles(ctx context.Context, name, version, repo, gitRef string, requests []fetch.FileRequest) []fetch.FetchedFile {
	var files []fetch.FetchedFile
	for _, result := range e.GitHub.FetchFiles(ctx, repo, gitRef, requests) {
		if result.Err != nil {
			if !fetch.IsOptionalMiss(result.Err) {
				e.Log.Warn("file fetch failed", "crate", name, "version", version, "err", result.Err)
			}
			continue
		}
		files = append(files, result.File)
	}
	return files
}

func (e *Engine) cachedInfo(name, version string, spec config.CrateSpec) *store.SavedCrate {
	if info, ok := e.Store.ReadCachedInfo(name, version, spec); ok {
		return &info
	}
	return nil
}

func isReadmeRequest(path string) bool {
	return strings.EqualFold(path, "README.md")
}
