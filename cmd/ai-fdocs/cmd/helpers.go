package cmd

import (
	"context"
	"fmt"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/engine"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/fetch"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/lock"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/store"
)

// loadConfig reads and validates the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config", "path", configPath)
	return cfg, nil
}

// resolveMode applies a --mode flag override on top of the configured
// sync mode.
func resolveMode(cfg *config.Config, flagValue string) (config.SyncMode, error) {
	if flagValue == "" {
		return cfg.Settings.Mode(), nil
	}
	mode, ok := config.ParseSyncMode(flagValue)
	if !ok {
		return "", fmt.Errorf("invalid --mode %q: expected lockfile, latest-docs, or hybrid", flagValue)
	}
	return mode, nil
}

func newStore(cfg *config.Config) *store.Store {
	return store.New(cfg.Settings.OutputDir, cfg.Settings.MaxFileSizeKB, logger)
}

func newEngine(cfg *config.Config) *engine.Engine {
	return &engine.Engine{
		Cfg:      cfg,
		Store:    newStore(cfg),
		GitHub:   fetch.NewRefFetcher(logger),
		Latest:   fetch.NewLatestFetcher(),
		Log:      logger,
		LockPath: lockfilePath,
	}
}

// collectStatuses evaluates crate statuses for the effective mode.
// Latest mode consults crates.io for entries past their TTL.
func collectStatuses(ctx context.Context, cfg *config.Config, mode config.SyncMode) ([]engine.CrateStatus, error) {
	st := newStore(cfg)

	if mode == config.ModeLatestDocs {
		return engine.CollectStatusLatest(ctx, cfg, st, fetch.NewLatestFetcher()), nil
	}

	lockVersions, err := lock.Resolve(lockfilePath)
	if err != nil {
		return nil, err
	}
	return engine.CollectStatus(cfg, lockVersions, st), nil
}

// printStatuses writes a status report to stdout in the chosen format.
func printStatuses(format string, statuses []engine.CrateStatus) error {
	switch format {
	case "json":
		out, err := engine.FormatStatusJSON(statuses)
		if err != nil {
			return fmt.Errorf("serializing status JSON: %w", err)
		}
		fmt.Println(out)
	case "table":
		fmt.Print(engine.FormatStatusTable(statuses))
	default:
		return fmt.Errorf("invalid --format %q: expected table or json", format)
	}
	return nil
}
