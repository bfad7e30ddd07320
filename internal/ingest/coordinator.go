package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Coordinator fans symbol work out over a bounded worker pool and
// funnels validated records into the store. One failing symbol never
// takes down the batch: its error lands in the result and the pool
// moves on.
type Coordinator struct {
	priceSource       contracts.PriceSource
	flowSource        contracts.FlowSource
	marginSource      contracts.MarginSource
	fundamentalSource contracts.FundamentalSource

	priceRepo     contracts.PriceRepository
	flowRepo      contracts.FlowRepository
	marginRepo    contracts.MarginRepository
	financialRepo contracts.FinancialRepository

	workers int
	retry   retryPolicy
	logger  *logger.Logger
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(
	priceSource contracts.PriceSource,
	flowSource contracts.FlowSource,
	marginSource contracts.MarginSource,
	fundamentalSource contracts.FundamentalSource,
	priceRepo contracts.PriceRepository,
	flowRepo contracts.FlowRepository,
	marginRepo contracts.MarginRepository,
	financialRepo contracts.FinancialRepository,
	cfg *config.Config,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		priceSource:       priceSource,
		flowSource:        flowSource,
		marginSource:      marginSource,
		fundamentalSource: fundamentalSource,
		priceRepo:         priceRepo,
		flowRepo:          flowRepo,
		marginRepo:        marginRepo,
		financialRepo:     financialRepo,
		workers:           cfg.Pipeline.Workers,
		retry: retryPolicy{
			MaxAttempts: cfg.Pipeline.MaxRetries,
			Delay:       cfg.Pipeline.RetryDelay,
			MaxDelay:    cfg.Pipeline.MaxRetryDelay,
		},
		logger: log.WithField("component", "ingest"),
	}
}

// SymbolError records one symbol's terminal failure within a batch.
type SymbolError struct {
	Symbol string
	Err    error
}

// Result carries the counters one ingestion stage contributes to the
// run audit record.
type Result struct {
	Processed int
	Inserted  int
	Updated   int
	Failed    int

	// UpdatedSymbols lists symbols whose price rows were freshly
	// written; the indicator stage keys off it.
	UpdatedSymbols []string

	Errors []SymbolError
}

// ErrorSummary folds per-symbol failures into one audit string, capped
// so a wide outage cannot blow up the log row.
func (r *Result) ErrorSummary() string {
	if len(r.Errors) == 0 {
		return ""
	}

	const maxListed = 10
	parts := make([]string, 0, maxListed+1)
	for i, symErr := range r.Errors {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("... and %d more", len(r.Errors)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%s: %v", symErr.Symbol, symErr.Err))
	}
	return strings.Join(parts, "; ")
}

func (r *Result) merge(other *Result) {
	r.Processed += other.Processed
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Failed += other.Failed
	r.UpdatedSymbols = append(r.UpdatedSymbols, other.UpdatedSymbols...)
	r.Errors = append(r.Errors, other.Errors...)
}

// IngestPrices fetches and stores price bars for every symbol over
// [from, to]. Symbols are processed concurrently by the worker pool;
// each symbol retries transient source failures independently.
func (c *Coordinator) IngestPrices(ctx context.Context, symbols []contracts.Symbol, from, to time.Time) (*Result, error) {
	c.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"workers": c.workers,
	}).Info("starting price ingestion")

	total := &Result{}
	resultCh := make(chan *Result, len(symbols))
	symbolCh := make(chan contracts.Symbol, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.priceWorker(ctx, workerID, symbolCh, resultCh, from, to)
		}(i)
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		total.merge(result)
	}

	c.logger.WithFields(map[string]interface{}{
		"processed": total.Processed,
		"inserted":  total.Inserted,
		"updated":   total.Updated,
		"failed":    total.Failed,
	}).Info("price ingestion completed")

	return total, nil
}

func (c *Coordinator) priceWorker(ctx context.Context, workerID int, symbolCh <-chan contracts.Symbol, resultCh chan<- *Result, from, to time.Time) {
	for symbol := range symbolCh {
		select {
		case <-ctx.Done():
			resultCh <- &Result{Failed: 1, Errors: []SymbolError{{Symbol: symbol.Symbol, Err: ctx.Err()}}}
			return
		default:
		}

		result := c.ingestSymbolPrices(ctx, symbol.Symbol, from, to)
		if len(result.Errors) > 0 {
			c.logger.WithError(result.Errors[0].Err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol.Symbol,
			}).Error("price ingestion failed for symbol")
		}
		resultCh <- result
	}
}

func (c *Coordinator) ingestSymbolPrices(ctx context.Context, symbol string, from, to time.Time) *Result {
	var bars []contracts.PriceBar
	err := c.retry.do(ctx, func() error {
		var fetchErr error
		bars, fetchErr = c.priceSource.FetchPriceBars(ctx, symbol, from, to)
		return fetchErr
	})
	if err != nil {
		return &Result{Failed: 1, Errors: []SymbolError{{Symbol: symbol, Err: err}}}
	}

	result := &Result{}
	now := time.Now().UTC()
	valid := bars[:0]
	for i := range bars {
		if vErr := bars[i].Validate(now); vErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, SymbolError{Symbol: symbol, Err: vErr})
			continue
		}
		valid = append(valid, bars[i])
	}

	inserted, updated, err := c.priceRepo.UpsertBatch(ctx, valid)
	result.Inserted += inserted
	result.Updated += updated
	result.Processed += inserted + updated
	if err != nil {
		result.Failed++
		result.Errors = append(result.Errors, SymbolError{Symbol: symbol, Err: err})
		return result
	}

	if inserted+updated > 0 {
		result.UpdatedSymbols = append(result.UpdatedSymbols, symbol)
	}
	return result
}

// IngestFlows fetches one day of institutional flow for all symbols in
// a single source call and stores the rows for known symbols.
func (c *Coordinator) IngestFlows(ctx context.Context, symbols []contracts.Symbol, date time.Time) (*Result, error) {
	var flows []contracts.InstitutionalFlow
	err := c.retry.do(ctx, func() error {
		var fetchErr error
		flows, fetchErr = c.flowSource.FetchInstitutionalFlow(ctx, date)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch institutional flow: %w", err)
	}

	known := symbolSet(symbols)
	kept := flows[:0]
	for _, flow := range flows {
		if _, ok := known[flow.Symbol]; ok {
			kept = append(kept, flow)
		}
	}

	inserted, updated, err := c.flowRepo.UpsertBatch(ctx, kept)
	result := &Result{Processed: inserted + updated, Inserted: inserted, Updated: updated}
	if err != nil {
		return result, fmt.Errorf("store institutional flow: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"inserted": inserted,
		"updated":  updated,
	}).Info("institutional flow ingestion completed")
	return result, nil
}

// IngestMargins fetches one day of margin balances for all symbols and
// stores the rows for known symbols.
func (c *Coordinator) IngestMargins(ctx context.Context, symbols []contracts.Symbol, date time.Time) (*Result, error) {
	var balances []contracts.MarginBalance
	err := c.retry.do(ctx, func() error {
		var fetchErr error
		balances, fetchErr = c.marginSource.FetchMarginBalances(ctx, date)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch margin balances: %w", err)
	}

	known := symbolSet(symbols)
	kept := balances[:0]
	for _, balance := range balances {
		if _, ok := known[balance.Symbol]; ok {
			kept = append(kept, balance)
		}
	}

	inserted, updated, err := c.marginRepo.UpsertBatch(ctx, kept)
	result := &Result{Processed: inserted + updated, Inserted: inserted, Updated: updated}
	if err != nil {
		return result, fmt.Errorf("store margin balances: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"inserted": inserted,
		"updated":  updated,
	}).Info("margin ingestion completed")
	return result, nil
}

// IngestFundamentals refreshes quarterly filings for every symbol over
// the worker pool.
func (c *Coordinator) IngestFundamentals(ctx context.Context, symbols []contracts.Symbol) (*Result, error) {
	total := &Result{}
	resultCh := make(chan *Result, len(symbols))
	symbolCh := make(chan contracts.Symbol, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				resultCh <- c.ingestSymbolFundamentals(ctx, symbol.Symbol)
			}
		}()
	}

	for _, symbol := range symbols {
		symbolCh <- symbol
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		total.merge(result)
	}

	c.logger.WithFields(map[string]interface{}{
		"processed": total.Processed,
		"failed":    total.Failed,
	}).Info("fundamental ingestion completed")
	return total, nil
}

func (c *Coordinator) ingestSymbolFundamentals(ctx context.Context, symbol string) *Result {
	var statements []contracts.FinancialStatement
	err := c.retry.do(ctx, func() error {
		var fetchErr error
		statements, fetchErr = c.fundamentalSource.FetchFinancialStatements(ctx, symbol)
		return fetchErr
	})
	if err != nil {
		return &Result{Failed: 1, Errors: []SymbolError{{Symbol: symbol, Err: err}}}
	}

	result := &Result{}
	for i := range statements {
		if err := c.financialRepo.Upsert(ctx, &statements[i]); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SymbolError{Symbol: symbol, Err: err})
			continue
		}
		result.Processed++
		result.Inserted++
	}
	return result
}

func symbolSet(symbols []contracts.Symbol) map[string]struct{} {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s.Symbol] = struct{}{}
	}
	return set
}
