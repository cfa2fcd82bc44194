package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/store"
)

// DocsStatus classifies one crate's cache entry.
type DocsStatus string

const (
	StatusSynced         DocsStatus = "Synced"
	StatusSyncedFallback DocsStatus = "SyncedFallback"
	StatusOutdated       DocsStatus = "Outdated"
	StatusMissing        DocsStatus = "Missing"
	StatusCorrupted      DocsStatus = "Corrupted"
)

// IsProblem reports whether this status should fail a check run.
func (s DocsStatus) IsProblem() bool {
	return s == StatusOutdated || s == StatusMissing || s == StatusCorrupted
}

// CrateStatus is one row of a status report. Reason is for humans;
// ReasonCode is a stable machine identifier.
type CrateStatus struct {
	CrateName   string     `json:"crate_name"`
	LockVersion string     `json:"lock_version,omitempty"`
	DocsVersion string     `json:"docs_version,omitempty"`
	Status      DocsStatus `json:"status"`
	Reason      string     `json:"reason"`
	ReasonCode  string     `json:"reason_code"`
	Mode        string     `json:"mode"`
	SourceKind  string     `json:"source_kind,omitempty"`
}

const (
	statusModeLockfile = "lockfile"
	statusModeLatest   = "latest_docs"
)

func sortedCrateNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Crates))
	for name := range cfg.Crates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectStatus classifies every configured crate against the lock
// file and the cache, without touching the network.
func CollectStatus(cfg *config.Config, lockVersions map[string]string, st *store.Store) []CrateStatus {
	best := st.ScanBest()

	var results []CrateStatus
	for _, name := range sortedCrateNames(cfg) {
		results = append(results, classifyLockfile(name, lockVersions, best, st))
	}
	return results
}

func classifyLockfile(name string, lockVersions map[string]string, best map[string]store.BestEntry, st *store.Store) CrateStatus {
	row := CrateStatus{CrateName: name, Mode: statusModeLockfile}

	lockVersion, inLock := lockVersions[name]
	if !inLock {
		row.Status = StatusMissing
		row.Reason = "crate missing in Cargo.lock"
		row.ReasonCode = "lockfile_missing_crate"
		return row
	}
	row.LockVersion = lockVersion

	expectedDir := st.EntryDir(name, lockVersion)
	if info, err := os.Stat(expectedDir); err != nil || !info.IsDir() {
		if entry, ok := best[name]; ok {
			row.DocsVersion = entry.Version
			row.Status = StatusOutdated
			row.Reason = fmt.Sprintf("cached docs version %s differs from lock version %s", entry.Version, lockVersion)
			row.ReasonCode = "lockfile_version_mismatch"
			return row
		}
		row.Status = StatusMissing
		row.Reason = "no synced docs found for this crate"
		row.ReasonCode = "lockfile_missing_artifacts"
		return row
	}

	row.DocsVersion = lockVersion
	meta, state := store.InspectMeta(expectedDir)
	if state == store.MetaUnreadable {
		row.Status = StatusCorrupted
		row.Reason = ".aifd-meta.toml is missing or unreadable"
		row.ReasonCode = "meta_unreadable"
		return row
	}
	if state == store.MetaInvalid {
		row.Status = StatusCorrupted
		row.Reason = ".aifd-meta.toml has invalid TOML"
		row.ReasonCode = "meta_invalid_toml"
		return row
	}

	if meta.SchemaVersion > store.SchemaVersion {
		row.SourceKind = meta.SourceKind
		row.Status = StatusCorrupted
		row.Reason = fmt.Sprintf(".aifd-meta.toml schema version %d is newer than supported version %d", meta.SchemaVersion, store.SchemaVersion)
		row.ReasonCode = "meta_schema_unsupported"
		return row
	}

	if meta.Version != lockVersion {
		row.DocsVersion = meta.Version
		row.SourceKind = meta.SourceKind
		row.Status = StatusOutdated
		row.Reason = fmt.Sprintf("metadata version %s differs from lock version %s", meta.Version, lockVersion)
		row.ReasonCode = "meta_version_mismatch"
		return row
	}

	if meta.IsFallback {
		row.SourceKind = "github_fallback"
		row.Status = StatusSyncedFallback
		row.Reason = "synced from fallback branch (no exact tag found)"
		row.ReasonCode = "lockfile_fallback_branch"
		return row
	}

	row.SourceKind = "github"
	if meta.SourceKind != "" {
		row.SourceKind = meta.SourceKind
	}
	row.Status = StatusSynced
	row.Reason = "up to date"
	row.ReasonCode = "lockfile_ok"
	return row
}

// CollectStatusLatest classifies every configured crate against the
// newest cached version. With a non-nil fetcher, entries past their TTL
// are compared against the newest published version on crates.io.
func CollectStatusLatest(ctx context.Context, cfg *config.Config, st *store.Store, fetcher *fetch.LatestFetcher) []CrateStatus {
	best := st.ScanBest()

	var results []CrateStatus
	for _, name := range sortedCrateNames(cfg) {
		results = append(results, classifyLatest(ctx, name, cfg, best, st, fetcher))
	}
	return results
}

func classifyLatest(ctx context.Context, name string, cfg *config.Config, best map[string]store.BestEntry, st *store.Store, fetcher *fetch.LatestFetcher) CrateStatus {
	row := CrateStatus{CrateName: name, Mode: statusModeLatest}

	entry, ok := best[name]
	if !ok {
		row.Status = StatusMissing
		row.Reason = "no synced docs found for this crate"
		row.ReasonCode = "latest_missing_artifacts"
		return row
	}
	row.DocsVersion = entry.Version

	meta, state := store.InspectMeta(entry.Dir)
	switch state {
	case store.MetaUnreadable:
		row.Status = StatusCorrupted
		row.Reason = ".aifd-meta.toml is missing or unreadable"
		row.ReasonCode = "meta_unreadable"
		return row
	case store.MetaInvalid:
		row.Status = StatusCorrupted
		row.Reason = ".aifd-meta.toml has invalid TOML"
		row.ReasonCode = "meta_invalid_toml"
		return row
	}

	if meta.SchemaVersion > store.SchemaVersion {
		row.SourceKind = meta.SourceKind
		row.Status = StatusCorrupted
		row.Reason = fmt.Sprintf(".aifd-meta.toml schema version %d is newer than supported version %d", meta.SchemaVersion, store.SchemaVersion)
		row.ReasonCode = "meta_schema_unsupported"
		return row
	}

	sourceKind := meta.SourceKind
	if sourceKind == "" {
		sourceKind = "docsrs"
	}
	row.SourceKind = sourceKind

	isFallback := meta.IsFallback || sourceKind == "github_fallback"
	if isFallback {
		row.Status = StatusSyncedFallback
		row.Reason = "latest-docs synced via GitHub fallback"
		row.ReasonCode = "latest_ok_fallback"
	} else {
		row.Status = StatusSynced
		row.Reason = "latest-docs up to date"
		row.ReasonCode = "latest_ok_docsrs"
	}

	if fetcher != nil {
		fresh := meta.UpstreamCheckedAt != "" &&
			store.FreshWithin(meta.UpstreamCheckedAt, cfg.Settings.LatestTTLHours, st.Now())
		if !fresh {
			if latest, err := fetcher.ResolveLatestVersion(ctx, name); err == nil && latest != entry.Version {
				row.Status = StatusOutdated
				row.Reason = fmt.Sprintf("latest version %s is newer than cached %s", latest, entry.Version)
				row.ReasonCode = "latest_version_mismatch"
			}
		}
	}

	return row
}

// Summary is the roll-up at the bottom of a status report.
type Summary struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Missing   int `json:"missing"`
	Outdated  int `json:"outdated"`
	Corrupted int `json:"corrupted"`
}

// HasProblems reports whether any crate needs attention.
func (s Summary) HasProblems() bool {
	return s.Missing > 0 || s.Outdated > 0 || s.Corrupted > 0
}

// Summarize counts statuses by class. Fallback entries count as
// synced: the docs exist, they are just approximate.
func Summarize(statuses []CrateStatus) Summary {
	summary := Summary{Total: len(statuses)}
	for _, item := range statuses {
		switch item.Status {
		case StatusSynced, StatusSyncedFallback:
			summary.Synced++
		case StatusMissing:
			summary.Missing++
		case StatusOutdated:
			summary.Outdated++
		case StatusCorrupted:
			summary.Corrupted++
		}
	}
	return summary
}

// FormatStatusTable renders the human-readable status report.
func FormatStatusTable(statuses []CrateStatus) string {
	var out strings.Builder

	fmt.Fprintf(&out, "%-24s %-16s %-16s %-14s\n", "Crate", "Lock Version", "Docs Version", "Status")
	fmt.Fprintf(&out, "%s %s %s %s\n",
		strings.Repeat("-", 24), strings.Repeat("-", 16),
		strings.Repeat("-", 16), strings.Repeat("-", 14))

	for _, item := range statuses {
		lock := item.LockVersion
		if lock == "" {
			lock = "-"
		}
		docs := item.DocsVersion
		if docs == "" {
			docs = "-"
		}
		fmt.Fprintf(&out, "%-24s %-16s %-16s %-14s\n", item.CrateName, lock, docs, item.Status)
		fmt.Fprintf(&out, "  > %s\n", item.Reason)
	}

	summary := Summarize(statuses)
	fmt.Fprintf(&out, "\nTotal: %d | Synced: %d | Missing: %d | Outdated: %d | Corrupted: %d\n",
		summary.Total, summary.Synced, summary.Missing, summary.Outdated, summary.Corrupted)

	if summary.HasProblems() {
		out.WriteString("Hint: run `ai-fdocs sync` (or `--force` for full refresh)\n")
		out.WriteString("CI hint: run `ai-fdocs check` to fail on stale docs\n")
		out.WriteString("\nProblem details:\n")
		for _, item := range statuses {
			if item.Status.IsProblem() {
				fmt.Fprintf(&out, "- %s [%s]: %s\n", item.CrateName, item.Status, item.Reason)
			}
		}
	}

	return out.String()
}

type statusReport struct {
	Summary  Summary       `json:"summary"`
	Statuses []CrateStatus `json:"statuses"`
}

// FormatStatusJSON renders the machine-readable status report.
func FormatStatusJSON(statuses []CrateStatus) (string, error) {
	data, err := json.MarshalIndent(statusReport{
		Summary:  Summarize(statuses),
		Statuses: statuses,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
