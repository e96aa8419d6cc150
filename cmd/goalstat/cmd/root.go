// Package cmd provides the CLI commands for goalstat.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goalstat/internal/logging"
	"goalstat/internal/store"
	"goalstat/internal/store/sqlite"
)

var (
	dbPath   string
	logLevel string
	dryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "goalstat",
	Short: "Collect and reconcile national goal statistics",
	Long: `goalstat pulls indicator series from the fedstat.ru portal and
reconciles them into a local catalog, together with project news and
budget feeds.

Examples:
  goalstat ingest https://fedstat.ru/indicator/59448
  goalstat import news filtered_news.json
  goalstat import budgets https://example.org/budgets.json
  goalstat catalog load indicators.csv`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "goalstat.db", "path to the sqlite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(catalogCmd)
}

func newLogger() (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logLevel
	return logging.New(cfg)
}

// openStore returns the configured store; --dry-run substitutes a sink that
// discards all writes.
func openStore() (store.Store, error) {
	if dryRun {
		return &store.NopStore{}, nil
	}
	return sqlite.New(dbPath)
}
