package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Apply retention horizons",
	Long: `Deletes recommendations and run logs older than the configured
retention horizons. The daily pipeline runs the same sweep after every
update; this command covers manual catch-up.

Example:
  selector cleanup`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Retention: recommendations %dd, run logs %dd, prices %dy\n",
		app.cfg.Retention.RecommendationDays, app.cfg.Retention.RunLogDays,
		app.cfg.Retention.PriceYears)

	app.orchestrator.RunCleanup(ctx, time.Now())

	fmt.Println("✅ Cleanup complete")
	return nil
}
