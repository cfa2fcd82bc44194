package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults applied when the [settings] table omits a field.
const (
	DefaultOutputDir       = "fdocs/rust"
	DefaultMaxFileSizeKB   = 200
	DefaultSyncConcurrency = 8
	DefaultLatestTTLHours  = 24

	// MaxSyncConcurrency caps the worker pool to avoid hammering the
	// GitHub API into rate limiting.
	MaxSyncConcurrency = 50
)

// Load reads and validates an ai-fdocs.toml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s (run 'ai-fdocs init' to create one)", path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Config{
		Settings: Settings{
			OutputDir:       DefaultOutputDir,
			MaxFileSizeKB:   DefaultMaxFileSizeKB,
			Prune:           true,
			SyncConcurrency: DefaultSyncConcurrency,
			DocsSource:      "github",
			SyncMode:        string(ModeLockfile),
			LatestTTLHours:  DefaultLatestTTLHours,
			DocsRsSingle:    true,
		},
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Settings.SyncConcurrency <= 0 {
		errs = append(errs, "settings.sync_concurrency must be greater than 0")
	}
	if cfg.Settings.SyncConcurrency > MaxSyncConcurrency {
		errs = append(errs, fmt.Sprintf("settings.sync_concurrency must not exceed %d to avoid rate limiting", MaxSyncConcurrency))
	}
	if cfg.Settings.MaxFileSizeKB <= 0 {
		errs = append(errs, "settings.max_file_size_kb must be greater than 0")
	}
	if cfg.Settings.LatestTTLHours <= 0 {
		errs = append(errs, "settings.latest_ttl_hours must be greater than 0")
	}
	if cfg.Settings.DocsSource != "github" {
		errs = append(errs, fmt.Sprintf("settings.docs_source must be \"github\", got: %s", cfg.Settings.DocsSource))
	}
	if !cfg.Settings.DocsRsSingle {
		errs = append(errs, "settings.docsrs_single_page=false is not supported yet; use true")
	}

	mode, ok := ParseSyncMode(cfg.Settings.SyncMode)
	if !ok {
		errs = append(errs, fmt.Sprintf("settings.sync_mode must be \"lockfile\", \"latest_docs\", or \"hybrid\", got: %s", cfg.Settings.SyncMode))
	}

	// Lockfile and hybrid modes fetch from GitHub, so every crate must
	// name a repository in one of the two accepted forms.
	if ok && mode != ModeLatestDocs {
		for name, crate := range cfg.Crates {
			if crate.GitHubRepo() == "" {
				errs = append(errs, fmt.Sprintf("crate '%s' must define 'repo' or legacy 'sources' with GitHub for %s mode", name, mode))
			}
		}
	}

	for name, crate := range cfg.Crates {
		if repo := crate.GitHubRepo(); repo != "" && strings.Count(repo, "/") != 1 {
			errs = append(errs, fmt.Sprintf("crate '%s': repo must be in owner/name form, got: %s", name, repo))
		}
	}

	return errs
}
