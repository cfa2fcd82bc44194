package cmd

import (
	"github.com/spf13/cobra"
)

var (
	statusMode   string
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show documentation sync status for configured crates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mode, err := resolveMode(cfg, statusMode)
		if err != nil {
			return err
		}

		statuses, err := collectStatuses(cmd.Context(), cfg, mode)
		if err != nil {
			return err
		}
		return printStatuses(statusFormat, statuses)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusMode, "mode", "", "sync mode override for status evaluation")
	statusCmd.Flags().StringVar(&statusFormat, "format", "table", "output format (table, json)")
	rootCmd.AddCommand(statusCmd)
}
