package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/engine"
)

var (
	checkMode   string
	checkFormat string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Exit non-zero if any crate docs are not synced",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mode, err := resolveMode(cfg, checkMode)
		if err != nil {
			return err
		}

		statuses, err := collectStatuses(cmd.Context(), cfg, mode)
		if err != nil {
			return err
		}

		failing := false
		for _, s := range statuses {
			if s.Status != engine.StatusSynced && s.Status != engine.StatusSyncedFallback {
				failing = true
				break
			}
		}

		if failing {
			if err := printStatuses(checkFormat, statuses); err != nil {
				return err
			}
			emitCheckFailures(checkFormat, statuses)
			return errors.New("documentation is outdated, missing, or corrupted. Run: ai-fdocs sync")
		}

		if checkFormat == "json" {
			return printStatuses(checkFormat, statuses)
		}
		logger.Info("all configured crate docs are up to date")
		return nil
	},
}

// emitCheckFailures writes one line per failing crate to stderr. Under
// GitHub Actions the lines use workflow error annotations so failures
// surface in the run summary; elsewhere a plain prefix is used for the
// table format only, since JSON output already carries the details.
func emitCheckFailures(format string, statuses []engine.CrateStatus) {
	githubActions := os.Getenv("GITHUB_ACTIONS") == "true"

	for _, s := range statuses {
		if s.Status == engine.StatusSynced || s.Status == engine.StatusSyncedFallback {
			continue
		}
		if githubActions {
			fmt.Fprintf(os.Stderr, "::error title=ai-fdocs check::%s [%s] %s\n", s.CrateName, s.Status, s.Reason)
		} else if format == "table" {
			fmt.Fprintf(os.Stderr, "[ai-fdocs check] %s [%s] %s\n", s.CrateName, s.Status, s.Reason)
		}
	}
}

func init() {
	checkCmd.Flags().StringVar(&checkMode, "mode", "", "sync mode override for check evaluation")
	checkCmd.Flags().StringVar(&checkFormat, "format", "table", "output format (table, json)")
	rootCmd.AddCommand(checkCmd)
}
