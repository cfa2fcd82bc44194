package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/content"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
)

// Store writes and inspects the documentation cache rooted at Dir.
type Store struct {
	Dir           string
	MaxFileSizeKB int
	Log           *log.Logger

	// Now is the clock used for date stamps; tests pin it.
	Now func() time.Time
}

// New builds a store over the rust cache directory derived from the
// configured output dir.
func New(outputDir string, maxFileSizeKB int, logger *log.Logger) *Store {
	return &Store{
		Dir:           RustOutputDir(outputDir),
		MaxFileSizeKB: maxFileSizeKB,
		Log:           logger,
		Now:           time.Now,
	}
}

// RustOutputDir appends the per-language segment to the configured
// output dir unless it is already present.
func RustOutputDir(base string) string {
	if filepath.Base(base) == "rust" {
		return base
	}
	return filepath.Join(base, "rust")
}

// SavedCrate summarizes one stored crate for index generation and
// cached-skip reporting.
type SavedCrate struct {
	Name       string
	Version    string
	GitRef     string
	IsFallback bool
	SourceKind string
	Files      []string
	AINotes    string
}

// SaveContext carries the provenance shared by every file of one save.
type SaveContext struct {
	Repo              string
	Ref               fetch.ResolvedRef
	SourceKind        string
	UpstreamCheckedAt string
	Truncated         *bool
}

// FlattenFilename maps a repository-relative path to a single cache
// file name, so nested docs land flat in the crate directory.
func FlattenFilename(path string) string {
	return strings.ReplaceAll(path, "/", "__")
}

// safeFlatten flattens and then refuses names that could escape or
// shadow files inside the crate directory.
func safeFlatten(path string) (string, error) {
	flat := FlattenFilename(path)
	if flat == "" || strings.HasPrefix(flat, ".") || strings.ContainsAny(flat, `/\`) {
		return "", fmt.Errorf("unsafe documentation file name: %q", path)
	}
	return flat, nil
}

func (s *Store) crateDir(crateName, version string) (string, error) {
	if strings.ContainsAny(crateName, `/\`) || strings.ContainsAny(version, `/\`) ||
		crateName == "" || version == "" || strings.HasPrefix(crateName, ".") {
		return "", fmt.Errorf("unsafe cache directory name: %s@%s", crateName, version)
	}
	return filepath.Join(s.Dir, crateName+"@"+version), nil
}

// EntryDir returns the cache directory path a crate version lives in,
// whether or not it exists.
func (s *Store) EntryDir(crateName, version string) string {
	return filepath.Join(s.Dir, crateName+"@"+version)
}

// IsCached reports whether the cache already holds this exact crate
// version with readable metadata.
func (s *Store) IsCached(crateName, version string) bool {
	dir, err := s.crateDir(crateName, version)
	if err != nil {
		return false
	}
	meta, ok := ReadMeta(dir)
	return ok && meta.Version == version
}

// Meta returns the metadata sidecar for a cached crate version.
func (s *Store) Meta(crateName, version string) (CrateMeta, bool) {
	dir, err := s.crateDir(crateName, version)
	if err != nil {
		return CrateMeta{}, false
	}
	return ReadMeta(dir)
}

// SaveFiles replaces the cache entry for a crate version with the
// fetched files, post-processed: changelog windowing, size capping, and
// a provenance header on markup files. The directory is rebuilt from
// scratch and the metadata sidecar is written last, so a directory with
// a sidecar is always complete.
func (s *Store) SaveFiles(ctx SaveContext, crateName, version string, files []fetch.FetchedFile, spec config.CrateSpec) (SavedCrate, error) {
	dir, err := s.crateDir(crateName, version)
	if err != nil {
		return SavedCrate{}, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return SavedCrate{}, fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SavedCrate{}, fmt.Errorf("creating %s: %w", dir, err)
	}

	now := s.Now()
	savedNames := make([]string, 0, len(files))

	for _, file := range files {
		flat, err := safeFlatten(file.Path)
		if err != nil {
			return SavedCrate{}, err
		}

		body := file.Content
		if strings.Contains(strings.ToLower(file.Path), "changelog") {
			body = content.TruncateChangelog(body, version)
		}
		body, _ = content.TruncateIfNeeded(body, s.MaxFileSizeKB)

		if content.ShouldInjectHeader(file.Path) {
			body = content.InjectHeader(body, content.Provenance{
				Source:     "github.com/" + ctx.Repo,
				GitRef:     ctx.Ref.GitRef,
				Path:       file.Path,
				SourceURL:  file.SourceURL,
				Version:    version,
				IsFallback: ctx.Ref.IsFallback,
			}, now)
		}

		if err := os.WriteFile(filepath.Join(dir, flat), []byte(body), 0o644); err != nil {
			return SavedCrate{}, fmt.Errorf("writing %s: %w", flat, err)
		}
		s.Log.Debug("saved cache file", "crate", crateName, "file", flat)
		savedNames = append(savedNames, flat)
	}

	meta := CrateMeta{
		SchemaVersion:     SchemaVersion,
		Version:           version,
		GitRef:            ctx.Ref.GitRef,
		FetchedAt:         now.UTC().Format(DateFormat),
		IsFallback:        ctx.Ref.IsFallback,
		SourceKind:        ctx.SourceKind,
		UpstreamCheckedAt: ctx.UpstreamCheckedAt,
		Truncated:         ctx.Truncated,
	}
	if err := writeMeta(dir, meta); err != nil {
		return SavedCrate{}, fmt.Errorf("writing metadata for %s@%s: %w", crateName, version, err)
	}

	s.Log.Info("saved crate docs", "crate", crateName, "version", version, "files", len(savedNames))

	return SavedCrate{
		Name:       crateName,
		Version:    version,
		GitRef:     ctx.Ref.GitRef,
		IsFallback: ctx.Ref.IsFallback,
		SourceKind: ctx.SourceKind,
		Files:      savedNames,
		AINotes:    spec.AINotes,
	}, nil
}

// SaveDocsArtifact stores a rendered docs.rs page as the sole README of
// a crate version. The artifact is already size-capped and carries its
// own source footer, so no further processing is applied.
func (s *Store) SaveDocsArtifact(crateName, version string, artifact fetch.DocsArtifact, spec config.CrateSpec) (SavedCrate, error) {
	dir, err := s.crateDir(crateName, version)
	if err != nil {
		return SavedCrate{}, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return SavedCrate{}, fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SavedCrate{}, fmt.Errorf("creating %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(artifact.Markdown), 0o644); err != nil {
		return SavedCrate{}, fmt.Errorf("writing README.md: %w", err)
	}

	today := s.Now().UTC().Format(DateFormat)
	truncated := artifact.Truncated
	meta := CrateMeta{
		SchemaVersion:     SchemaVersion,
		Version:           version,
		GitRef:            artifact.InputURL,
		FetchedAt:         today,
		SourceKind:        "docsrs",
		UpstreamCheckedAt: today,
		Truncated:         &truncated,
	}
	if err := writeMeta(dir, meta); err != nil {
		return SavedCrate{}, fmt.Errorf("writing metadata for %s@%s: %w", crateName, version, err)
	}

	s.Log.Info("saved crate docs", "crate", crateName, "version", version, "source", "docs.rs")

	return SavedCrate{
		Name:       crateName,
		Version:    version,
		GitRef:     artifact.InputURL,
		SourceKind: "docsrs",
		Files:      []string{"README.md"},
		AINotes:    spec.AINotes,
	}, nil
}

// ReadCachedInfo reconstructs a SavedCrate from an existing cache
// entry, listing its non-hidden files.
func (s *Store) ReadCachedInfo(crateName, version string, spec config.CrateSpec) (SavedCrate, bool) {
	dir, err := s.crateDir(crateName, version)
	if err != nil {
		return SavedCrate{}, false
	}
	meta, ok := ReadMeta(dir)
	if !ok {
		return SavedCrate{}, false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return SavedCrate{}, false
	}
	var files []string
	for _, entry := range entries {
		if name := entry.Name(); !strings.HasPrefix(name, ".") {
			files = append(files, name)
		}
	}

	return SavedCrate{
		Name:       crateName,
		Version:    version,
		GitRef:     meta.GitRef,
		IsFallback: meta.IsFallback,
		SourceKind: meta.SourceKind,
		Files:      files,
		AINotes:    spec.AINotes,
	}, true
}

// Prune removes cache directories for crates no longer configured and
// for versions that no longer match the lock file. Files and
// unrecognizable directory names are left alone.
func (s *Store) Prune(configured map[string]config.CrateSpec, lockVersions map[string]string) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache dir %s: %w", s.Dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, version, ok := SplitNameVersion(entry.Name())
		if !ok {
			continue
		}

		remove := false
		if _, isConfigured := configured[name]; !isConfigured {
			remove = true
		} else if lockVersion, inLock := lockVersions[name]; !inLock || lockVersion != version {
			remove = true
		}

		if remove {
			s.Log.Info("pruning stale cache entry", "dir", entry.Name())
			if err := os.RemoveAll(filepath.Join(s.Dir, entry.Name())); err != nil {
				return fmt.Errorf("pruning %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

// BestEntry is the newest cached version found for one crate.
type BestEntry struct {
	Version string
	Dir     string
}

// ScanBest walks the cache and returns, per crate, the newest version
// directory present. Used by latest-mode status when the exact version
// to look for is not known upfront.
func (s *Store) ScanBest() map[string]BestEntry {
	best := make(map[string]BestEntry)

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return best
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, version, ok := SplitNameVersion(entry.Name())
		if !ok {
			continue
		}
		if current, exists := best[name]; !exists || content.IsVersionBetter(version, current.Version) {
			best[name] = BestEntry{Version: version, Dir: filepath.Join(s.Dir, entry.Name())}
		}
	}
	return best
}

// SplitNameVersion splits a cache directory name on its last '@'.
func SplitNameVersion(dirName string) (name, version string, ok bool) {
	idx := strings.LastIndex(dirName, "@")
	if idx <= 0 || idx == len(dirName)-1 {
		return "", "", false
	}
	return dirName[:idx], dirName[idx+1:], true
}
