package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the daily pipeline",
	Long: `Runs the full daily update for one trading date: price, flow and
margin ingestion, indicator computation, recommendation generation,
and retention cleanup.

A second run for the same date re-fetches and upserts; it does not
duplicate rows.

Example:
  selector update
  selector update --date 2024-03-15`,
	RunE: runUpdate,
}

var updateDate string

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updateDate, "date", "", "trading date (YYYY-MM-DD, default today)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(updateDate)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("=== Daily Update: %s ===\n\n", date.Format("2006-01-02"))

	run, err := app.orchestrator.RunDailyUpdate(ctx, date)
	if err != nil {
		return fmt.Errorf("daily update: %w", err)
	}

	fmt.Printf("Status:    %s\n", run.Status)
	fmt.Printf("Processed: %d\n", run.Processed)
	fmt.Printf("Updated:   %d\n", run.Updated)
	fmt.Printf("Failed:    %d\n", run.Failed)
	fmt.Printf("Duration:  %ds\n", run.ExecutionSeconds)
	if run.ErrorSummary != "" {
		fmt.Printf("Errors:    %s\n", run.ErrorSummary)
	}

	if run.Status == contracts.RunCompleted {
		fmt.Println("\n✅ Update complete")
	} else {
		fmt.Println("\n⚠️  Update finished with errors")
	}
	return nil
}
