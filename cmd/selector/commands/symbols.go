package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// symbolsCmd represents the symbols command
var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Symbol universe management",
	Long: `Manages the tracked symbol universe. The daily pipeline ingests
whatever symbols are active here.

Example:
  selector symbols add 2330 --name "TSMC" --market TSE --industry Semiconductors
  selector symbols import universe.csv
  selector symbols list
  selector symbols deactivate 2330`,
}

var symbolsAddCmd = &cobra.Command{
	Use:   "add [symbol]",
	Short: "Add or update one symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbolsAdd,
}

var symbolsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import symbols from a CSV file",
	Long: `Imports symbols from a CSV with columns: symbol, name, market,
industry. Existing symbols are updated in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbolsImport,
}

var symbolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active symbols",
	RunE:  runSymbolsList,
}

var symbolsDeactivateCmd = &cobra.Command{
	Use:   "deactivate [symbol]",
	Short: "Exclude a symbol from future runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbolsDeactivate,
}

var (
	symbolName     string
	symbolMarket   string
	symbolIndustry string
)

func init() {
	rootCmd.AddCommand(symbolsCmd)
	symbolsCmd.AddCommand(symbolsAddCmd)
	symbolsCmd.AddCommand(symbolsImportCmd)
	symbolsCmd.AddCommand(symbolsListCmd)
	symbolsCmd.AddCommand(symbolsDeactivateCmd)

	symbolsAddCmd.Flags().StringVar(&symbolName, "name", "", "company name")
	symbolsAddCmd.Flags().StringVar(&symbolMarket, "market", "TSE", "market (TSE, OTC)")
	symbolsAddCmd.Flags().StringVar(&symbolIndustry, "industry", "", "industry classification")
}

func runSymbolsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	symbol := &contracts.Symbol{
		Symbol:   args[0],
		Name:     symbolName,
		Market:   symbolMarket,
		Industry: symbolIndustry,
		IsActive: true,
	}
	if err := app.store.Symbols.Upsert(ctx, symbol); err != nil {
		return fmt.Errorf("upsert symbol: %w", err)
	}

	fmt.Printf("✅ Symbol %s saved\n", symbol.Symbol)
	return nil
}

func runSymbolsImport(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	imported := 0
	for i, record := range records {
		if len(record) < 1 || record[0] == "symbol" {
			continue
		}
		symbol := &contracts.Symbol{Symbol: record[0], Market: "TSE", IsActive: true}
		if len(record) > 1 {
			symbol.Name = record[1]
		}
		if len(record) > 2 && record[2] != "" {
			symbol.Market = record[2]
		}
		if len(record) > 3 {
			symbol.Industry = record[3]
		}

		if err := app.store.Symbols.Upsert(ctx, symbol); err != nil {
			return fmt.Errorf("upsert symbol %s (row %d): %w", symbol.Symbol, i+1, err)
		}
		imported++
	}

	fmt.Printf("✅ Imported %d symbols\n", imported)
	return nil
}

func runSymbolsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	symbols, err := app.store.Symbols.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("list symbols: %w", err)
	}

	fmt.Printf("%-8s %-24s %-6s %s\n", "Symbol", "Name", "Market", "Industry")
	for _, s := range symbols {
		fmt.Printf("%-8s %-24s %-6s %s\n", s.Symbol, s.Name, s.Market, s.Industry)
	}
	fmt.Printf("\n%d active symbols\n", len(symbols))
	return nil
}

func runSymbolsDeactivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.Symbols.Deactivate(ctx, args[0]); err != nil {
		return fmt.Errorf("deactivate symbol: %w", err)
	}

	fmt.Printf("✅ Symbol %s deactivated\n", args[0])
	return nil
}
