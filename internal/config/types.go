package config

// Config represents the ai-fdocs.toml configuration file.
type Config struct {
	Settings Settings             `toml:"settings"`
	Crates   map[string]CrateSpec `toml:"crates"`
}

// SyncMode selects which upstream drives a sync pass.
type SyncMode string

const (
	ModeLockfile   SyncMode = "lockfile"
	ModeLatestDocs SyncMode = "latest_docs"
	ModeHybrid     SyncMode = "hybrid"
)

// ParseSyncMode converts a config or flag value into a SyncMode.
// "latest-docs" is accepted as an alias for "latest_docs".
func ParseSyncMode(value string) (SyncMode, bool) {
	switch value {
	case "lockfile":
		return ModeLockfile, true
	case "latest_docs", "latest-docs":
		return ModeLatestDocs, true
	case "hybrid":
		return ModeHybrid, true
	default:
		return "", false
	}
}

// Settings holds the [settings] table.
type Settings struct {
	OutputDir       string `toml:"output_dir"`
	MaxFileSizeKB   int    `toml:"max_file_size_kb"`
	Prune           bool   `toml:"prune"`
	SyncConcurrency int    `toml:"sync_concurrency"`
	DocsSource      string `toml:"docs_source"`
	SyncMode        string `toml:"sync_mode"`
	LatestTTLHours  int    `toml:"latest_ttl_hours"`
	DocsRsSingle    bool   `toml:"docsrs_single_page"`
}

// Mode returns the configured sync mode. Validation guarantees the raw
// value parses, so an unknown value here falls back to lockfile.
func (s Settings) Mode() SyncMode {
	if mode, ok := ParseSyncMode(s.SyncMode); ok {
		return mode
	}
	return ModeLockfile
}

// CrateSpec configures documentation syncing for a single crate.
//
// The canonical form names the GitHub repository directly via Repo. The
// legacy form nests it inside a sources list; that shape is accepted at
// the deserialization boundary only and resolved through GitHubRepo and
// EffectiveFiles.
type CrateSpec struct {
	Repo    string   `toml:"repo"`
	Subpath string   `toml:"subpath"`
	Files   []string `toml:"files"`
	AINotes string   `toml:"ai_notes"`

	// Legacy nested-source form.
	Sources []LegacySource `toml:"sources"`
}

// LegacySource is the pre-1.0 per-source config entry.
type LegacySource struct {
	Type  string   `toml:"type"` // "github" or "docsrs"
	Repo  string   `toml:"repo"`
	Files []string `toml:"files"`
}

// GitHubRepo returns the owner/name repository identifier for this crate,
// preferring the explicit repo field over the legacy sources list.
// Returns "" when neither form names a repository.
func (c CrateSpec) GitHubRepo() string {
	if c.Repo != "" {
		return c.Repo
	}
	for _, src := range c.Sources {
		if src.Type == "github" && src.Repo != "" {
			return src.Repo
		}
	}
	return ""
}

// EffectiveFiles returns the explicit file list if one is configured,
// checking the legacy sources form as a fallback. nil means "use the
// default README/CHANGELOG requests".
func (c CrateSpec) EffectiveFiles() []string {
	if len(c.Files) > 0 {
		return c.Files
	}
	for _, src := range c.Sources {
		if src.Type == "github" && len(src.Files) > 0 {
			return src.Files
		}
	}
	return nil
}
