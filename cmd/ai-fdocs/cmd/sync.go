package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ai-fdocs/cargo-ai-fdocs/internal/config"
	"github.com/ai-fdocs/cargo-ai-fdocs/internal/engine"
)

var (
	syncMode  string
	syncForce bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download or update dependency documentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mode, err := resolveMode(cfg, syncMode)
		if err != nil {
			return err
		}
		if mode == config.ModeLatestDocs {
			logger.Info("using docs source: crates.io + docs.rs (with GitHub fallback)")
		}

		eng := newEngine(cfg)
		_, err = eng.Run(cmd.Context(), engine.Options{Mode: mode, Force: syncForce})
		return err
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncMode, "mode", "", "sync mode override (lockfile, latest-docs, hybrid)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "ignore local cache and re-fetch configured docs")
	rootCmd.AddCommand(syncCmd)
}
