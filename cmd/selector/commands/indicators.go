package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// indicatorsCmd represents the indicators command
var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Technical indicator tools",
	Long: `Inspect or recompute technical indicator snapshots.

Example:
  selector indicators show 2330 --from 2024-01-01 --to 2024-03-15
  selector indicators recompute 2330 --from 2024-01-01 --to 2024-03-15`,
}

var indicatorsShowCmd = &cobra.Command{
	Use:   "show [symbol]",
	Short: "Show indicator history for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndicatorsShow,
}

var indicatorsRecomputeCmd = &cobra.Command{
	Use:   "recompute [symbol]",
	Short: "Recompute snapshots over a date range",
	Long: `Recomputes and upserts indicator snapshots for every stored bar of
the symbol inside the range. Use after backfilling price history.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicatorsRecompute,
}

var (
	indicatorsFrom string
	indicatorsTo   string
)

func init() {
	rootCmd.AddCommand(indicatorsCmd)
	indicatorsCmd.AddCommand(indicatorsShowCmd)
	indicatorsCmd.AddCommand(indicatorsRecomputeCmd)

	indicatorsCmd.PersistentFlags().StringVar(&indicatorsFrom, "from", "", "range start (YYYY-MM-DD)")
	indicatorsCmd.PersistentFlags().StringVar(&indicatorsTo, "to", "", "range end (YYYY-MM-DD, default today)")
}

func runIndicatorsShow(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	to, err := parseDateFlag(indicatorsTo)
	if err != nil {
		return err
	}
	from := to.AddDate(0, 0, -30)
	if indicatorsFrom != "" {
		if from, err = parseDateFlag(indicatorsFrom); err != nil {
			return err
		}
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	snapshots, err := app.query.GetIndicatorHistory(ctx, symbol, from, to)
	if err != nil {
		return fmt.Errorf("indicator history: %w", err)
	}

	fmt.Printf("=== Indicators: %s (%s ~ %s) ===\n\n",
		symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("%-12s %8s %8s %8s %8s %8s\n", "Date", "MA5", "MA20", "RSI14", "MACD", "K")
	for _, s := range snapshots {
		fmt.Printf("%-12s %8s %8s %8s %8s %8s\n",
			s.TradeDate.Format("2006-01-02"),
			formatPtr(s.MA5), formatPtr(s.MA20), formatPtr(s.RSI14),
			formatPtr(s.MACD), formatPtr(s.StochasticK))
	}
	fmt.Printf("\n%d snapshots\n", len(snapshots))
	return nil
}

func runIndicatorsRecompute(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	to, err := parseDateFlag(indicatorsTo)
	if err != nil {
		return err
	}
	from := to.AddDate(0, 0, -30)
	if indicatorsFrom != "" {
		if from, err = parseDateFlag(indicatorsFrom); err != nil {
			return err
		}
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Recomputing %s from %s to %s...\n",
		symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))

	count, err := app.orchestrator.RecomputeIndicators(ctx, symbol, from, to)
	if err != nil {
		return fmt.Errorf("recompute indicators: %w", err)
	}

	fmt.Printf("✅ Recomputed %d snapshots\n", count)
	return nil
}

func formatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
