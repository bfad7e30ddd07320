package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pipeline run for a date",
	Long: `Shows the update run record for a trading date: lifecycle status,
record counters and error summary.

Example:
  selector status
  selector status --date 2024-03-15`,
	RunE: runStatus,
}

var statusDate string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDate, "date", "", "trading date (YYYY-MM-DD, default today)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(statusDate)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	run, err := app.query.GetRunStatus(ctx, date)
	if errors.Is(err, contracts.ErrNotFound) {
		fmt.Printf("No run recorded for %s\n", date.Format("2006-01-02"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("run status: %w", err)
	}

	fmt.Printf("=== Run %d: %s ===\n\n", run.ID, run.RunDate.Format("2006-01-02"))
	fmt.Printf("Status:    %s\n", run.Status)
	fmt.Printf("Source:    %s\n", run.Source)
	fmt.Printf("Processed: %d\n", run.Processed)
	fmt.Printf("Inserted:  %d\n", run.Inserted)
	fmt.Printf("Updated:   %d\n", run.Updated)
	fmt.Printf("Failed:    %d\n", run.Failed)
	fmt.Printf("Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Printf("Completed: %s (%ds)\n",
			run.CompletedAt.Format("2006-01-02 15:04:05"), run.ExecutionSeconds)
	}
	if run.ErrorSummary != "" {
		fmt.Printf("Errors:    %s\n", run.ErrorSummary)
	}
	return nil
}
