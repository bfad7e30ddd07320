package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommendation tools",
	Long: `Query or regenerate ranked recommendations.

Categories: short_term, mid_term, long_term, sector_rotation.

Example:
  selector recommend list --category short_term --limit 20
  selector recommend regenerate --date 2024-03-15 --category mid_term`,
}

var recommendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ranked recommendations for a date",
	RunE:  runRecommendList,
}

var recommendRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate recommendations from stored data",
	Long: `Rebuilds recommendations for a date from already-stored bars,
indicators and flows, without re-fetching from the sources. Use after
tuning scoring weights. Omit --category to regenerate all categories.`,
	RunE: runRecommendRegenerate,
}

var (
	recommendDate     string
	recommendCategory string
	recommendLimit    int
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.AddCommand(recommendListCmd)
	recommendCmd.AddCommand(recommendRegenerateCmd)

	recommendCmd.PersistentFlags().StringVar(&recommendDate, "date", "", "trading date (YYYY-MM-DD, default today)")
	recommendCmd.PersistentFlags().StringVar(&recommendCategory, "category", "short_term", "recommendation category")
	recommendListCmd.Flags().IntVar(&recommendLimit, "limit", 20, "max rows (0 = all)")
}

func runRecommendList(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(recommendDate)
	if err != nil {
		return err
	}
	category := contracts.Category(recommendCategory)

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	recs, err := app.query.ListRecommendations(ctx, date, category, recommendLimit)
	if err != nil {
		return fmt.Errorf("list recommendations: %w", err)
	}

	fmt.Printf("=== %s recommendations for %s ===\n\n", category, date.Format("2006-01-02"))
	fmt.Printf("%-5s %-8s %7s %6s %5s %5s %9s %9s\n",
		"Rank", "Symbol", "Score", "Conf", "Buy", "Sell", "Target", "Stop")
	for _, r := range recs {
		fmt.Printf("%-5d %-8s %7.2f %6.2f %5v %5v %9.2f %9.2f\n",
			r.Rank, r.Symbol, r.Score, r.Confidence, r.BuySignal, r.SellSignal,
			r.TargetPrice, r.StopLoss)
	}
	fmt.Printf("\n%d rows\n", len(recs))
	return nil
}

func runRecommendRegenerate(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(recommendDate)
	if err != nil {
		return err
	}

	// --category left at its default regenerates everything unless the
	// flag was set explicitly.
	category := contracts.Category(recommendCategory)
	if !cmd.Flags().Changed("category") {
		category = ""
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.orchestrator.RegenerateRecommendations(ctx, date, category); err != nil {
		return fmt.Errorf("regenerate recommendations: %w", err)
	}

	fmt.Println("✅ Recommendations regenerated")
	return nil
}
