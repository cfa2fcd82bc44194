package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exampleConfig = `
[settings]
output_dir = "docs/vendor"
max_file_size_kb = 100
sync_concurrency = 4

[crates.serde]
repo = "serde-rs/serde"

[crates.axum]
repo = "tokio-rs/axum"
subpath = "axum"
files = ["axum/README.md", "axum/CHANGELOG.md"]
ai_notes = "web framework"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ai-fdocs.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, exampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Settings.OutputDir != "docs/vendor" {
		t.Errorf("output_dir = %q, want docs/vendor", cfg.Settings.OutputDir)
	}
	if cfg.Settings.MaxFileSizeKB != 100 {
		t.Errorf("max_file_size_kb = %d, want 100", cfg.Settings.MaxFileSizeKB)
	}
	if len(cfg.Crates) != 2 {
		t.Errorf("crates = %d, want 2", len(cfg.Crates))
	}
	if cfg.Crates["axum"].Subpath != "axum" {
		t.Errorf("subpath = %q, want axum", cfg.Crates["axum"].Subpath)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[crates.serde]\nrepo = \"serde-rs/serde\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Settings.OutputDir != DefaultOutputDir {
		t.Errorf("output_dir = %q, want %q", cfg.Settings.OutputDir, DefaultOutputDir)
	}
	if cfg.Settings.MaxFileSizeKB != DefaultMaxFileSizeKB {
		t.Errorf("max_file_size_kb = %d, want %d", cfg.Settings.MaxFileSizeKB, DefaultMaxFileSizeKB)
	}
	if !cfg.Settings.Prune {
		t.Error("prune default should be true")
	}
	if cfg.Settings.SyncConcurrency != DefaultSyncConcurrency {
		t.Errorf("sync_concurrency = %d, want %d", cfg.Settings.SyncConcurrency, DefaultSyncConcurrency)
	}
	if cfg.Settings.Mode() != ModeLockfile {
		t.Errorf("mode = %v, want lockfile", cfg.Settings.Mode())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "ai-fdocs init") {
		t.Errorf("error should hint at init, got: %v", err)
	}
}

func containsSubstring(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := &Config{Settings: Settings{SyncConcurrency: 0, MaxFileSizeKB: 1, LatestTTLHours: 1, DocsSource: "github", SyncMode: "lockfile", DocsRsSingle: true}}
	if errs := Validate(cfg); !containsSubstring(errs, "sync_concurrency must be greater than 0") {
		t.Errorf("expected concurrency error, got: %v", errs)
	}

	cfg.Settings.SyncConcurrency = MaxSyncConcurrency + 1
	if errs := Validate(cfg); !containsSubstring(errs, "must not exceed") {
		t.Errorf("expected concurrency cap error, got: %v", errs)
	}
}

func TestValidateDocsSource(t *testing.T) {
	cfg := &Config{Settings: Settings{SyncConcurrency: 1, MaxFileSizeKB: 1, LatestTTLHours: 1, DocsSource: "gitlab", SyncMode: "lockfile", DocsRsSingle: true}}
	if errs := Validate(cfg); !containsSubstring(errs, "docs_source") {
		t.Errorf("expected docs_source error, got: %v", errs)
	}
}

func TestValidateSyncMode(t *testing.T) {
	cfg := &Config{Settings: Settings{SyncConcurrency: 1, MaxFileSizeKB: 1, LatestTTLHours: 1, DocsSource: "github", SyncMode: "yolo", DocsRsSingle: true}}
	if errs := Validate(cfg); !containsSubstring(errs, "sync_mode") {
		t.Errorf("expected sync_mode error, got: %v", errs)
	}
}

func TestValidateRepoRequiredOutsideLatestMode(t *testing.T) {
	cfg := &Config{
		Settings: Settings{SyncConcurrency: 1, MaxFileSizeKB: 1, LatestTTLHours: 1, DocsSource: "github", SyncMode: "lockfile", DocsRsSingle: true},
		Crates:   map[string]CrateSpec{"serde": {}},
	}
	if errs := Validate(cfg); !containsSubstring(errs, "must define 'repo'") {
		t.Errorf("expected missing repo error, got: %v", errs)
	}

	cfg.Settings.SyncMode = "latest_docs"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("latest_docs mode should not require repo, got: %v", errs)
	}
}

func TestValidateRepoShape(t *testing.T) {
	cfg := &Config{
		Settings: Settings{SyncConcurrency: 1, MaxFileSizeKB: 1, LatestTTLHours: 1, DocsSource: "github", SyncMode: "lockfile", DocsRsSingle: true},
		Crates:   map[string]CrateSpec{"serde": {Repo: "https://github.com/serde-rs/serde"}},
	}
	if errs := Validate(cfg); !containsSubstring(errs, "owner/name form") {
		t.Errorf("expected repo shape error, got: %v", errs)
	}
}

func TestParseSyncModeAlias(t *testing.T) {
	mode, ok := ParseSyncMode("latest-docs")
	if !ok || mode != ModeLatestDocs {
		t.Errorf("ParseSyncMode(latest-docs) = %v, %v", mode, ok)
	}
	if _, ok := ParseSyncMode("nonsense"); ok {
		t.Error("ParseSyncMode should reject unknown values")
	}
}

func TestLegacySourcesForm(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[crates.tokio]
sources = [
  { type = "github", repo = "tokio-rs/tokio", files = ["README.md"] },
]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	crate := cfg.Crates["tokio"]
	if got := crate.GitHubRepo(); got != "tokio-rs/tokio" {
		t.Errorf("GitHubRepo = %q, want tokio-rs/tokio", got)
	}
	if got := crate.EffectiveFiles(); len(got) != 1 || got[0] != "README.md" {
		t.Errorf("EffectiveFiles = %v, want [README.md]", got)
	}
}

func TestExplicitRepoBeatsLegacySources(t *testing.T) {
	crate := CrateSpec{
		Repo:    "owner/explicit",
		Sources: []LegacySource{{Type: "github", Repo: "owner/legacy"}},
	}
	if got := crate.GitHubRepo(); got != "owner/explicit" {
		t.Errorf("GitHubRepo = %q, want owner/explicit", got)
	}
}

func TestEffectiveFilesNilMeansDefaults(t *testing.T) {
	if got := (CrateSpec{Repo: "a/b"}).EffectiveFiles(); got != nil {
		t.Errorf("EffectiveFiles = %v, want nil", got)
	}
}
