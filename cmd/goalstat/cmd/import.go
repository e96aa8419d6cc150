package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"goalstat/internal/budget"
	"goalstat/internal/news"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import supplementary feeds into the catalog",
}

var importNewsCmd = &cobra.Command{
	Use:   "news <file>",
	Short: "Import a news/activity feed export",
	Long: `Import a JSON news export and attach each item to the projects of
its national goal. Items whose goal is unknown are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportNews,
}

var importBudgetsCmd = &cobra.Command{
	Use:   "budgets <url>",
	Short: "Fetch and import the project budget feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportBudgets,
}

func init() {
	importCmd.AddCommand(importNewsCmd)
	importCmd.AddCommand(importBudgetsCmd)
}

func runImportNews(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	items, err := news.Parse(payload)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.ImportActivities(cmd.Context(), items)
	if err != nil {
		return err
	}

	fmt.Printf("processed=%d inserted=%d updated=%d skipped=%d\n",
		stats.Processed, stats.Inserted, stats.Updated, stats.Skipped)
	return nil
}

func runImportBudgets(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	records, err := budget.NewFetcher(logger).Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.UpsertBudgets(cmd.Context(), records)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d budget rows\n", rows)
	return nil
}
