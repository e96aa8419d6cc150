package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"goalstat/internal/fedstat"
	"goalstat/internal/ingest"
)

var ingestTimeout time.Duration

var ingestCmd = &cobra.Command{
	Use:   "ingest [indicator-url...]",
	Short: "Fetch indicators from the portal and reconcile them into the catalog",
	Long: `Fetch one or more indicator pages, decode their data grids and
reconcile the series into the local catalog. Each indicator must already
exist in the catalog (see "goalstat catalog load"); unknown indicators
fail without writing anything.

Examples:
  goalstat ingest https://fedstat.ru/indicator/59448
  goalstat ingest --dry-run https://fedstat.ru/indicator/59448`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and decode without writing to the database")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 2*time.Minute, "per-indicator timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline := ingest.NewPipeline(fedstat.New(logger), st, logger)

	failed := 0
	for _, pageURL := range args {
		ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
		result, err := pipeline.ProcessIndicator(ctx, pageURL)
		cancel()
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", pageURL, err)
			continue
		}
		fmt.Printf("OK   %s: monthly=%d yearly=%d\n", result.IndicatorName, result.MonthlyRows, result.YearlyRows)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d indicators failed", failed, len(args))
	}
	return nil
}
